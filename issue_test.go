package fshcompiler

import (
	"strings"
	"testing"
)

func TestIssueBuilder(t *testing.T) {
	issue := ErrorIssue().
		Kind("WideningCardinalityError").
		Message("cannot widen 1..5 to 0..10").
		At("Observation.component").
		Position("bp.fsh", 12, 3).
		Build()

	if !issue.IsError() || issue.IsWarning() {
		t.Error("error issue misclassified")
	}
	if issue.Kind != "WideningCardinalityError" {
		t.Errorf("Kind = %q", issue.Kind)
	}

	rendered := issue.String()
	for _, want := range []string{"error:", "cannot widen", "Observation.component", "bp.fsh:12:3"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("String() = %q; missing %q", rendered, want)
		}
	}
}

func TestIssueSeverities(t *testing.T) {
	if !NewIssue(SeverityFatal).Build().IsError() {
		t.Error("fatal issue is not an error")
	}
	if !WarningIssue().Build().IsWarning() {
		t.Error("warning issue is not a warning")
	}
	info := NewIssue(SeverityInformation).Build()
	if info.IsError() || info.IsWarning() {
		t.Error("information issue misclassified")
	}
}

func TestResult(t *testing.T) {
	t.Run("counts by severity", func(t *testing.T) {
		r := NewResult("BloodPressure")
		r.AddIssue(ErrorIssue().Message("bad rule").Build())
		r.AddIssue(WarningIssue().Message("suspicious").Build())
		r.AddIssue(WarningIssue().Message("also suspicious").Build())

		if !r.Succeeded {
			t.Error("per-rule errors must not clear Succeeded")
		}
		if r.ErrorCount() != 1 || r.WarningCount() != 2 {
			t.Errorf("counts = %d errors, %d warnings; want 1, 2", r.ErrorCount(), r.WarningCount())
		}
		if !r.HasErrors() {
			t.Error("HasErrors() = false")
		}
		if len(r.Errors()) != 1 || len(r.Warnings()) != 2 {
			t.Errorf("Errors/Warnings = %d/%d; want 1/2", len(r.Errors()), len(r.Warnings()))
		}
	})

	t.Run("fatal marks the result failed", func(t *testing.T) {
		r := NewResult("X")
		r.AddIssue(NewIssue(SeverityFatal).Message("no parent").Build())
		if r.Succeeded {
			t.Error("Succeeded = true after a fatal issue")
		}
	})

	t.Run("merge folds issues and failure", func(t *testing.T) {
		a := NewResult("A")
		a.AddIssue(WarningIssue().Message("w").Build())

		b := NewResult("B")
		b.AddIssue(NewIssue(SeverityFatal).Message("f").Build())

		a.Merge(b)
		if a.Succeeded {
			t.Error("merged failure did not propagate")
		}
		if len(a.Issues) != 2 {
			t.Errorf("len(Issues) = %d; want 2", len(a.Issues))
		}
	})
}

func TestOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.AutoSlicing || opts.MaxIssues != 0 {
		t.Errorf("DefaultOptions() = %+v; want AutoSlicing on, unlimited issues", opts)
	}

	opts.Apply(
		WithStrictSliceIndexing(true),
		WithAutoSlicing(false),
		WithMaxIssues(25),
		WithWorkerCount(2),
		WithDefinitionCacheSize(50),
	)
	if !opts.StrictSliceIndexing || opts.AutoSlicing || opts.MaxIssues != 25 ||
		opts.WorkerCount != 2 || opts.DefinitionCacheSize != 50 {
		t.Errorf("applied options = %+v", opts)
	}
}
