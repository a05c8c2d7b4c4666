package fshcompiler

import (
	"sync"
)

// Result collects the diagnostics of compiling one artifact.
type Result struct {
	// Artifact is the name of the compiled artifact.
	Artifact string `json:"artifact,omitempty"`

	// Succeeded is false when the artifact could not be compiled at all
	// (fatal); per-rule errors degrade output but do not clear it.
	Succeeded bool `json:"succeeded"`

	// Issues contains every diagnostic, in the order it was raised.
	Issues []Issue `json:"issues,omitempty"`

	// mu protects Issues; results may be filled from a worker pool.
	mu sync.Mutex
}

// NewResult creates an empty, succeeded result for the named artifact.
func NewResult(artifact string) *Result {
	return &Result{
		Artifact:  artifact,
		Succeeded: true,
		Issues:    make([]Issue, 0, 8),
	}
}

// AddIssue records an issue. A fatal issue marks the result as failed.
// Thread-safe.
func (r *Result) AddIssue(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityFatal {
		r.Succeeded = false
	}
}

// AddIssues records multiple issues. Thread-safe.
func (r *Result) AddIssues(issues []Issue) {
	for _, issue := range issues {
		r.AddIssue(issue)
	}
}

// HasErrors reports whether any error or fatal issue was recorded.
func (r *Result) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, issue := range r.Issues {
		if issue.IsError() {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error and fatal issues.
func (r *Result) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, issue := range r.Issues {
		if issue.IsError() {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning issues.
func (r *Result) WarningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, issue := range r.Issues {
		if issue.IsWarning() {
			count++
		}
	}
	return count
}

// Errors returns all error and fatal issues.
func (r *Result) Errors() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Issue
	for _, issue := range r.Issues {
		if issue.IsError() {
			out = append(out, issue)
		}
	}
	return out
}

// Warnings returns all warning issues.
func (r *Result) Warnings() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Issue
	for _, issue := range r.Issues {
		if issue.IsWarning() {
			out = append(out, issue)
		}
	}
	return out
}

// Merge folds another result's issues into this one.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	other.mu.Lock()
	issues := make([]Issue, len(other.Issues))
	copy(issues, other.Issues)
	succeeded := other.Succeeded
	other.mu.Unlock()

	r.AddIssues(issues)
	if !succeeded {
		r.mu.Lock()
		r.Succeeded = false
		r.mu.Unlock()
	}
}
