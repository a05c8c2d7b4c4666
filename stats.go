package fshcompiler

import (
	"sync/atomic"
	"time"
)

// Stats tracks cumulative compilation metrics across a batch. All counters
// are lock-free and safe for concurrent use from the worker pool.
type Stats struct {
	artifactsCompiled atomic.Uint64
	artifactsFailed   atomic.Uint64
	rulesApplied      atomic.Uint64
	errors            atomic.Uint64
	warnings          atomic.Uint64
	totalDuration     atomic.Int64 // nanoseconds
}

// RecordArtifact records one finished artifact.
func (s *Stats) RecordArtifact(result *Result, duration time.Duration) {
	if result.Succeeded {
		s.artifactsCompiled.Add(1)
	} else {
		s.artifactsFailed.Add(1)
	}
	s.errors.Add(uint64(result.ErrorCount()))
	s.warnings.Add(uint64(result.WarningCount()))
	s.totalDuration.Add(int64(duration))
}

// RecordRules adds to the applied-rule counter.
func (s *Stats) RecordRules(n int) {
	s.rulesApplied.Add(uint64(n))
}

// Snapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	ArtifactsCompiled uint64
	ArtifactsFailed   uint64
	RulesApplied      uint64
	Errors            uint64
	Warnings          uint64
	TotalDuration     time.Duration
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ArtifactsCompiled: s.artifactsCompiled.Load(),
		ArtifactsFailed:   s.artifactsFailed.Load(),
		RulesApplied:      s.rulesApplied.Load(),
		Errors:            s.errors.Load(),
		Warnings:          s.warnings.Load(),
		TotalDuration:     time.Duration(s.totalDuration.Load()),
	}
}
