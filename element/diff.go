package element

import (
	"strings"
)

// Clone returns an independent deep copy of the element. The owning-tree
// reference is preserved unless detach is true. The captured original is
// cleared by default so the clone's own future mutations are diff-tracked
// afresh; pass keepOriginal to preserve it.
func (e *Element) Clone(detach, keepOriginal bool) *Element {
	clone := *e
	clone.Min = clonePtr(e.Min)
	clone.Types = cloneTypes(e.Types)
	clone.Fixed = cloneValue(e.Fixed)
	clone.Pattern = cloneValue(e.Pattern)
	clone.Slicing = cloneSlicing(e.Slicing)
	clone.Binding = cloneBinding(e.Binding)
	clone.Constraints = append([]Constraint(nil), e.Constraints...)
	clone.Mappings = append([]Mapping(nil), e.Mappings...)
	if detach {
		clone.structDef = nil
	}
	if keepOriginal && e.original != nil {
		clone.original = e.original.Clone(true, false)
	} else {
		clone.original = nil
	}
	return &clone
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTypes(types []Type) []Type {
	if types == nil {
		return nil
	}
	out := make([]Type, len(types))
	for i, t := range types {
		out[i] = Type{
			Code:           t.Code,
			Profiles:       append([]string(nil), t.Profiles...),
			TargetProfiles: append([]string(nil), t.TargetProfiles...),
		}
	}
	return out
}

func cloneValue(v *Value) *Value {
	if v == nil {
		return nil
	}
	out := Value{
		Boolean: clonePtr(v.Boolean),
		Integer: clonePtr(v.Integer),
		Decimal: clonePtr(v.Decimal),
		String:  clonePtr(v.String),
		Code:    clonePtr(v.Code),
	}
	if v.Quantity != nil {
		q := *v.Quantity
		q.Value = clonePtr(v.Quantity.Value)
		out.Quantity = &q
	}
	if v.Ratio != nil {
		r := Ratio{}
		if v.Ratio.Numerator != nil {
			n := *v.Ratio.Numerator
			n.Value = clonePtr(v.Ratio.Numerator.Value)
			r.Numerator = &n
		}
		if v.Ratio.Denominator != nil {
			d := *v.Ratio.Denominator
			d.Value = clonePtr(v.Ratio.Denominator.Value)
			r.Denominator = &d
		}
		out.Ratio = &r
	}
	if v.Reference != nil {
		ref := *v.Reference
		out.Reference = &ref
	}
	if v.CodeableConcept != nil {
		cc := CodeableConcept{
			Codings: append([]Code(nil), v.CodeableConcept.Codings...),
			Text:    v.CodeableConcept.Text,
		}
		out.CodeableConcept = &cc
	}
	return &out
}

func cloneSlicing(s *Slicing) *Slicing {
	if s == nil {
		return nil
	}
	out := *s
	out.Discriminator = append([]Discriminator(nil), s.Discriminator...)
	return &out
}

func cloneBinding(b *Binding) *Binding {
	if b == nil {
		return nil
	}
	out := *b
	return &out
}

// CaptureOriginal snapshots the element's current state as the baseline for
// diff calculation. Fields changed after this point appear in CalculateDiff.
func (e *Element) CaptureOriginal() {
	e.original = e.Clone(true, false)
}

// ClearOriginal discards the captured baseline; the element then diffs as a
// new element again.
func (e *Element) ClearOriginal() {
	e.original = nil
}

// Original returns the captured baseline, or nil.
func (e *Element) Original() *Element {
	return e.original
}

// HasDiff reports whether the element differs from its captured baseline.
// An element with no baseline always has a diff (it is new). A change on a
// descendant element propagates to this element, except that changes inside
// a named slice's subtree never propagate to the unsliced base element
// (slice subtrees are identified by a ':' immediately after this id).
func (e *Element) HasDiff() bool {
	if e.hasOwnDiff() {
		return true
	}
	if e.structDef == nil {
		return false
	}
	prefix := e.ID + "."
	for _, child := range e.structDef.Elements {
		if strings.HasPrefix(child.ID, prefix) && child.hasOwnDiff() {
			return true
		}
	}
	return false
}

// hasOwnDiff compares the element's own fields against the baseline.
func (e *Element) hasOwnDiff() bool {
	if e.original == nil {
		return true
	}
	d := diffFields(e.original, e)
	return d.any()
}

// fieldDiff records which fields differ between baseline and current.
type fieldDiff struct {
	short, definition, comment    bool
	min, max                      bool
	types                         bool
	fixed, pattern                bool
	slicing                       bool
	mustSupport, isModifier       bool
	isSummary, standardsStatus    bool
	binding, constraints, mappings bool
	contentReference              bool
}

func (d fieldDiff) any() bool {
	return d != fieldDiff{}
}

// diffFields computes the per-field diff between a baseline and the current
// element. It is a pure function: neither argument is mutated.
func diffFields(baseline, current *Element) fieldDiff {
	var d fieldDiff
	d.short = baseline.Short != current.Short
	d.definition = baseline.Definition != current.Definition
	d.comment = baseline.Comment != current.Comment
	d.min = baseline.MinValue() != current.MinValue() || (baseline.Min == nil) != (current.Min == nil)
	d.max = baseline.Max != current.Max
	d.types = !typesEqual(baseline.Types, current.Types)
	d.fixed = !valuePtrEqual(baseline.Fixed, current.Fixed)
	d.pattern = !valuePtrEqual(baseline.Pattern, current.Pattern)
	d.slicing = !slicingEqual(baseline.Slicing, current.Slicing)
	d.mustSupport = baseline.MustSupport != current.MustSupport
	d.isModifier = baseline.IsModifier != current.IsModifier
	d.isSummary = baseline.IsSummary != current.IsSummary
	d.standardsStatus = baseline.StandardsStatus != current.StandardsStatus
	d.binding = !bindingEqual(baseline.Binding, current.Binding)
	d.constraints = !constraintsEqual(baseline.Constraints, current.Constraints)
	d.mappings = !mappingsEqual(baseline.Mappings, current.Mappings)
	d.contentReference = baseline.ContentReference != current.ContentReference
	return d
}

// CalculateDiff returns a new detached element carrying only id, path, slice
// name, and the fields that differ from the captured baseline. With no
// baseline the whole element is returned (a new element). The result, applied
// on top of the baseline, reproduces the current element exactly.
func (e *Element) CalculateDiff() *Element {
	if e.original == nil {
		return e.Clone(true, false)
	}

	d := diffFields(e.original, e)
	out := &Element{ID: e.ID, Path: e.Path, SliceName: e.SliceName}

	if d.short {
		out.Short = e.Short
	}
	if d.definition {
		out.Definition = e.Definition
	}
	if d.comment {
		out.Comment = e.Comment
	}
	if d.min {
		out.Min = clonePtr(e.Min)
	}
	if d.max {
		out.Max = e.Max
	}
	if d.types {
		out.Types = cloneTypes(e.Types)
	}
	if d.fixed {
		out.Fixed = cloneValue(e.Fixed)
	}
	if d.pattern {
		out.Pattern = cloneValue(e.Pattern)
	}
	if d.slicing {
		out.Slicing = cloneSlicing(e.Slicing)
	}
	if d.mustSupport {
		out.MustSupport = e.MustSupport
	}
	if d.isModifier {
		out.IsModifier = e.IsModifier
	}
	if d.isSummary {
		out.IsSummary = e.IsSummary
	}
	if d.standardsStatus {
		out.StandardsStatus = e.StandardsStatus
	}
	if d.binding {
		out.Binding = cloneBinding(e.Binding)
	}
	if d.constraints {
		out.Constraints = append([]Constraint(nil), e.Constraints...)
	}
	if d.mappings {
		out.Mappings = append([]Mapping(nil), e.Mappings...)
	}
	if d.contentReference {
		out.ContentReference = e.ContentReference
	}
	return out
}

// Equality helpers for diffing.

func typesEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Code != b[i].Code ||
			!stringsEqual(a[i].Profiles, b[i].Profiles) ||
			!stringsEqual(a[i].TargetProfiles, b[i].TargetProfiles) {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func valuePtrEqual(a, b *Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func slicingEqual(a, b *Slicing) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Rules != b.Rules || a.Ordered != b.Ordered || a.Description != b.Description ||
		len(a.Discriminator) != len(b.Discriminator) {
		return false
	}
	for i := range a.Discriminator {
		if a.Discriminator[i] != b.Discriminator[i] {
			return false
		}
	}
	return true
}

func bindingEqual(a, b *Binding) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func constraintsEqual(a, b []Constraint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mappingsEqual(a, b []Mapping) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
