// Package element implements the element-tree constraint engine at the heart
// of the compiler: element nodes with cardinality/type/value mutation
// primitives, the ordered element tree (StructureDefinition), on-demand
// unfolding of implicit children, and snapshot/differential diffing.
package element

import (
	"math"
	"strconv"
	"strings"
)

// Standards status values. At most one may be set per element.
const (
	StatusDraft     = "draft"
	StatusTrialUse  = "trial-use"
	StatusNormative = "normative"
)

// Binding strengths, weakest to strongest.
const (
	BindingExample    = "example"
	BindingPreferred  = "preferred"
	BindingExtensible = "extensible"
	BindingRequired   = "required"
)

// Binding is a terminology binding on an element.
type Binding struct {
	Strength    string
	ValueSet    string
	Description string
}

// Constraint is an invariant attached to an element. Expressions are carried
// verbatim; the compiler never evaluates them.
type Constraint struct {
	Key        string
	Severity   string
	Human      string
	Expression string
	XPath      string
	Source     string
}

// Mapping relates an element to a concept in another specification.
type Mapping struct {
	Identity string
	Map      string
	Comment  string
}

// Element is one node in a definition's element tree. It is exclusively
// owned by one StructureDefinition and holds a non-owning back-reference to
// it for navigation and diff bookkeeping.
type Element struct {
	ID        string
	Path      string
	SliceName string

	Short      string
	Definition string
	Comment    string

	Min *int
	Max string // "*" or a non-negative integer as string; "" means unset

	Types   []Type
	Fixed   *Value
	Pattern *Value

	Slicing *Slicing

	MustSupport     bool
	IsModifier      bool
	IsSummary       bool
	StandardsStatus string

	Binding     *Binding
	Constraints []Constraint
	Mappings    []Mapping

	// ContentReference points at another element definition in the same
	// tree (e.g. "#Observation.component") whose children this element
	// shares.
	ContentReference string

	structDef *StructureDefinition
	original  *Element
}

// NewElement creates a detached element with the given id. Path is derived
// from the id by dropping slice names.
func NewElement(id string) *Element {
	return &Element{ID: id, Path: pathFromID(id)}
}

// pathFromID strips :sliceName markers from an element id.
func pathFromID(id string) string {
	segments := strings.Split(id, ".")
	for i, seg := range segments {
		if colon := strings.IndexByte(seg, ':'); colon != -1 {
			segments[i] = seg[:colon]
		}
	}
	return strings.Join(segments, ".")
}

// StructureDefinition returns the owning tree, or nil for a detached element.
func (e *Element) StructureDefinition() *StructureDefinition {
	return e.structDef
}

// IsChoice reports whether the element is a choice element ([x] path).
func (e *Element) IsChoice() bool {
	return strings.HasSuffix(e.Path, "[x]")
}

// MinValue returns the element's min, treating unset as 0.
func (e *Element) MinValue() int {
	if e.Min == nil {
		return 0
	}
	return *e.Min
}

// MaxValue returns the element's max as a float, with "*" mapped to +Inf
// and unset mapped to +Inf (no constraint yet).
func (e *Element) MaxValue() float64 {
	return maxAsFloat(e.Max)
}

func maxAsFloat(max string) float64 {
	if max == "" || max == "*" {
		return math.Inf(1)
	}
	n, err := strconv.Atoi(max)
	if err != nil {
		return math.Inf(1)
	}
	return float64(n)
}

// validMax reports whether max is "*" or a non-negative integer string.
func validMax(max string) bool {
	if max == "*" {
		return true
	}
	n, err := strconv.Atoi(max)
	return err == nil && n >= 0
}

// ConstrainCardinality narrows the element's cardinality to min..max.
//
// The new range must be well formed and a subset of the current range. On a
// sliced element with existing slices, the new max must additionally remain
// compatible with the already-declared slices: it may not fall below the sum
// of slice minimums, nor below any slice's own max. When the element is
// itself a slice, its new min may not push the sum of sibling slice minimums
// over the sliced root's max.
func (e *Element) ConstrainCardinality(min int, max string) error {
	if min < 0 || !validMax(max) || float64(min) > maxAsFloat(max) {
		return &InvalidCardinalityError{Min: min, Max: max}
	}

	if min < e.MinValue() || maxAsFloat(max) > e.MaxValue() {
		return &WideningCardinalityError{
			Path:       e.ID,
			CurrentMin: e.MinValue(),
			CurrentMax: e.Max,
			NewMin:     min,
			NewMax:     max,
		}
	}

	if slices := e.Slices(); len(slices) > 0 && max != "*" {
		newMax := maxAsFloat(max)
		sum := 0
		for _, s := range slices {
			sum += s.MinValue()
		}
		if float64(sum) > newMax {
			return &InvalidSumOfSliceMinsError{Path: e.ID, SliceMins: sum, ElementMax: max}
		}
		for _, s := range slices {
			if s.Max != "" && s.MaxValue() > newMax {
				return &NarrowingRootCardinalityError{
					Path:     e.ID,
					Slice:    s.SliceName,
					NewMax:   max,
					SliceMax: s.Max,
				}
			}
		}
	}

	if e.SliceName != "" && e.structDef != nil {
		if root := e.SlicedRoot(); root != nil && root.Max != "" && root.Max != "*" {
			sum := min
			for _, sibling := range root.Slices() {
				if sibling != e {
					sum += sibling.MinValue()
				}
			}
			if float64(sum) > root.MaxValue() {
				return &InvalidSumOfSliceMinsError{Path: root.ID, SliceMins: sum, ElementMax: root.Max}
			}
		}
	}

	m := min
	e.Min = &m
	e.Max = max
	return nil
}

// SlicedRoot returns the unsliced base element this slice constrains, or nil
// if the element is not a slice or is detached.
func (e *Element) SlicedRoot() *Element {
	if e.SliceName == "" || e.structDef == nil {
		return nil
	}
	baseID := strings.TrimSuffix(e.ID, ":"+e.SliceName)
	return e.structDef.FindElement(baseID)
}

// Slices returns the element's direct slices, in declaration order.
// Re-slices of slices are not included.
func (e *Element) Slices() []*Element {
	if e.structDef == nil {
		return nil
	}
	prefix := e.ID + ":"
	var out []*Element
	for _, candidate := range e.structDef.Elements {
		if !strings.HasPrefix(candidate.ID, prefix) {
			continue
		}
		rest := candidate.ID[len(prefix):]
		if strings.ContainsAny(rest, ".:/") {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// ApplyFlags sets the element's flag fields. Flags are only ever turned on
// or promoted, never cleared by a rule. Setting a second standards status is
// an error.
func (e *Element) ApplyFlags(mustSupport, isModifier, isSummary bool, standardsStatus string) error {
	if standardsStatus != "" {
		if e.StandardsStatus != "" && e.StandardsStatus != standardsStatus {
			return &ConflictingStandardsStatusError{
				Path:     e.ID,
				Current:  e.StandardsStatus,
				Proposed: standardsStatus,
			}
		}
		e.StandardsStatus = standardsStatus
	}
	if mustSupport {
		e.MustSupport = true
	}
	if isModifier {
		e.IsModifier = true
	}
	if isSummary {
		e.IsSummary = true
	}
	return nil
}

// bindingRank orders binding strengths from weakest to strongest.
func bindingRank(strength string) int {
	switch strength {
	case BindingExample:
		return 0
	case BindingPreferred:
		return 1
	case BindingExtensible:
		return 2
	case BindingRequired:
		return 3
	default:
		return -1
	}
}

// BindToValueSet binds the element to a value set. An existing binding may
// only be replaced by one of equal or greater strength.
func (e *Element) BindToValueSet(valueSet, strength string) error {
	if bindingRank(strength) < 0 {
		return &BindingStrengthError{Path: e.ID, From: strength, To: strength}
	}
	if e.Binding != nil && bindingRank(strength) < bindingRank(e.Binding.Strength) {
		return &BindingStrengthError{Path: e.ID, From: e.Binding.Strength, To: strength}
	}
	e.Binding = &Binding{Strength: strength, ValueSet: valueSet}
	return nil
}

// AddConstraint attaches an invariant to the element. Attaching a constraint
// with a key that is already present is a no-op.
func (e *Element) AddConstraint(c Constraint) {
	for _, existing := range e.Constraints {
		if existing.Key == c.Key {
			return
		}
	}
	e.Constraints = append(e.Constraints, c)
}

// AddMapping attaches a mapping to the element.
func (e *Element) AddMapping(m Mapping) {
	e.Mappings = append(e.Mappings, m)
}
