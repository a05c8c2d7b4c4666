package fshcompiler

import (
	"runtime"
)

// Option configures the compile engine.
type Option func(*Options)

// Options holds all engine configuration.
type Options struct {
	// StrictSliceIndexing scopes soft-index counters per named slice
	// instead of per plain path prefix.
	StrictSliceIndexing bool

	// AutoSlicing lets a contains rule synthesize a default value/$this
	// slicing (with a warning) when the target has none. Extension
	// elements always get the canonical url discriminator regardless.
	AutoSlicing bool

	// MaxIssues caps the diagnostics recorded per artifact; 0 is unlimited.
	MaxIssues int

	// WorkerCount bounds parallel artifact compilation in CompileAll.
	WorkerCount int

	// DefinitionCacheSize is the capacity of the resolved-definition cache.
	DefinitionCacheSize int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		StrictSliceIndexing: false,
		AutoSlicing:         true,
		MaxIssues:           0, // unlimited
		WorkerCount:         runtime.NumCPU(),
		DefinitionCacheSize: 1000,
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithStrictSliceIndexing scopes soft-index counters per named slice.
func WithStrictSliceIndexing(enable bool) Option {
	return func(o *Options) {
		o.StrictSliceIndexing = enable
	}
}

// WithAutoSlicing controls default-slicing synthesis for contains rules.
func WithAutoSlicing(enable bool) Option {
	return func(o *Options) {
		o.AutoSlicing = enable
	}
}

// WithMaxIssues caps per-artifact diagnostics.
func WithMaxIssues(n int) Option {
	return func(o *Options) {
		o.MaxIssues = n
	}
}

// WithWorkerCount sets the batch-compilation parallelism.
func WithWorkerCount(n int) Option {
	return func(o *Options) {
		o.WorkerCount = n
	}
}

// WithDefinitionCacheSize sets the resolved-definition cache capacity.
func WithDefinitionCacheSize(n int) Option {
	return func(o *Options) {
		o.DefinitionCacheSize = n
	}
}
