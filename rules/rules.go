// Package rules defines the typed rule records the engine consumes: a sealed
// tagged union over the operations of the authoring language, each carrying a
// target path and source provenance. Producing these records (lexing and
// parsing the authoring language) is an external concern.
package rules

import (
	"fmt"
	"strings"

	"github.com/FHIR/sushi-sub009/element"
)

// SourceInfo is the provenance of a rule in its authoring-language source.
type SourceInfo struct {
	File   string
	Line   int
	Column int
}

// String renders the location for diagnostics, e.g. "patient.fsh:12:3".
func (s SourceInfo) String() string {
	if s.File == "" && s.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Rule is the sealed union over rule kinds. Concrete variants embed Base;
// the engine dispatches on the concrete type with an exhaustive switch.
type Rule interface {
	RulePath() string
	RuleSource() SourceInfo
	isRule()
}

// Base carries the fields common to every rule: the target path (relative to
// the artifact root, possibly soft-indexed) and source provenance.
type Base struct {
	Path   string
	Source SourceInfo
}

// RulePath returns the rule's target path.
func (b Base) RulePath() string { return b.Path }

// RuleSource returns the rule's source provenance.
func (b Base) RuleSource() SourceInfo { return b.Source }

func (b Base) isRule() {}

// Flags is the flag payload shared by flag-setting rules, composed by value
// rather than mixed in. Zero values mean "leave unchanged".
type Flags struct {
	MustSupport     bool
	IsModifier      bool
	IsSummary       bool
	StandardsStatus string // "", draft, trial-use, or normative
}

// Summary renders the set flags for diagnostics.
func (f Flags) Summary() string {
	var parts []string
	if f.MustSupport {
		parts = append(parts, "MS")
	}
	if f.IsModifier {
		parts = append(parts, "?!")
	}
	if f.IsSummary {
		parts = append(parts, "SU")
	}
	if f.StandardsStatus != "" {
		parts = append(parts, f.StandardsStatus)
	}
	return strings.Join(parts, " ")
}

// CardRule narrows the cardinality of the target path.
type CardRule struct {
	Base
	Min int
	Max string
}

// Target names one type in an OnlyRule.
type Target struct {
	Type        string
	IsReference bool
	IsCanonical bool
}

// OnlyRule restricts the target's types to the given set.
type OnlyRule struct {
	Base
	Targets []Target
}

// FlagRule sets element flags on the target.
type FlagRule struct {
	Base
	Flags Flags
}

// AssignmentRule assigns a fixed (Exact) or pattern value to the target.
type AssignmentRule struct {
	Base
	Value element.Value
	Exact bool
}

// ContainsItem is one slice declared by a ContainsRule.
type ContainsItem struct {
	Name string
	Type string // optional: profile/extension URL or choice type to pin
	Min  int
	Max  string
}

// ContainsRule declares named slices on the target element.
type ContainsRule struct {
	Base
	Items []ContainsItem
}

// SlicingRule defines or narrows the slicing on the target element.
type SlicingRule struct {
	Base
	DiscriminatorType string
	DiscriminatorPath string
	Ordered           bool
	Rules             string
}

// ObeysRule attaches invariants to the target element.
type ObeysRule struct {
	Base
	Constraints []element.Constraint
}

// BindingRule binds the target element to a value set.
type BindingRule struct {
	Base
	ValueSet string
	Strength string
}

// CaretValueRule sets definition metadata reached via a caret path, either
// on an element (Path set) or on the artifact itself (Path empty).
type CaretValueRule struct {
	Base
	CaretPath string
	Value     element.Value
}

// InsertRule splices a named rule set into the rule sequence at this point.
type InsertRule struct {
	Base
	RuleSet string
}
