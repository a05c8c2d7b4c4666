package element

import (
	"fmt"
	"strings"
)

// InvalidCardinalityError is returned when a cardinality range is malformed,
// i.e. min is negative, max is not "*" or a non-negative integer, or min > max.
type InvalidCardinalityError struct {
	Min int
	Max string
}

func (e *InvalidCardinalityError) Error() string {
	return fmt.Sprintf("invalid cardinality %d..%s: min must be a non-negative integer no greater than max", e.Min, e.Max)
}

// WideningCardinalityError is returned when a cardinality constraint would
// widen the current range. Cardinality may only be narrowed.
type WideningCardinalityError struct {
	Path       string
	CurrentMin int
	CurrentMax string
	NewMin     int
	NewMax     string
}

func (e *WideningCardinalityError) Error() string {
	return fmt.Sprintf("cannot constrain cardinality of %s to %d..%s: it is wider than the current range %d..%s",
		e.Path, e.NewMin, e.NewMax, e.CurrentMin, e.CurrentMax)
}

// NarrowingRootCardinalityError is returned when narrowing a sliced element's
// max would fall below the max already declared on one of its slices.
type NarrowingRootCardinalityError struct {
	Path     string
	Slice    string
	NewMax   string
	SliceMax string
}

func (e *NarrowingRootCardinalityError) Error() string {
	return fmt.Sprintf("cannot narrow max of %s to %s: slice %s already allows up to %s occurrences",
		e.Path, e.NewMax, e.Slice, e.SliceMax)
}

// InvalidSumOfSliceMinsError is returned when the sum of slice minimums on a
// sliced element would exceed the sliced element's max.
type InvalidSumOfSliceMinsError struct {
	Path       string
	SliceMins  int
	ElementMax string
}

func (e *InvalidSumOfSliceMinsError) Error() string {
	return fmt.Sprintf("sum of slice minimums on %s is %d, which exceeds the element's max of %s",
		e.Path, e.SliceMins, e.ElementMax)
}

// TypeNotFoundError is returned when a named type cannot be resolved.
type TypeNotFoundError struct {
	Name string
}

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("type %q could not be resolved", e.Name)
}

// InvalidTypeError is returned when a type restriction names a type that is
// not a specialization of any currently allowed type.
type InvalidTypeError struct {
	Path    string
	Name    string
	Allowed []string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("type %q is not a specialization of any allowed type on %s (allowed: %s)",
		e.Name, e.Path, strings.Join(e.Allowed, ", "))
}

// NonAbstractParentError is returned when attempting to specialize to a type
// whose claimed parent is not abstract.
type NonAbstractParentError struct {
	Type   string
	Parent string
}

func (e *NonAbstractParentError) Error() string {
	return fmt.Sprintf("cannot specialize to %q: its parent %q is not abstract", e.Type, e.Parent)
}

// SliceTypeRemovalError is returned when a type restriction would eliminate
// every allowed type on a named slice.
type SliceTypeRemovalError struct {
	Path  string
	Slice string
}

func (e *SliceTypeRemovalError) Error() string {
	return fmt.Sprintf("restricting types of %s would remove every allowed type on slice %s", e.Path, e.Slice)
}

// MismatchedTypeError is returned when an assigned value's shape does not
// correspond to any of the element's allowed types.
type MismatchedTypeError struct {
	Path      string
	ValueKind string
	Allowed   []string
}

func (e *MismatchedTypeError) Error() string {
	return fmt.Sprintf("cannot assign %s value to %s: no allowed type matches (allowed: %s)",
		e.ValueKind, e.Path, strings.Join(e.Allowed, ", "))
}

// ValueAlreadyFixedError is returned when a different value was already fixed
// on the element. Reassigning the identical value succeeds.
type ValueAlreadyFixedError struct {
	Path      string
	Found     string
	Requested string
}

func (e *ValueAlreadyFixedError) Error() string {
	return fmt.Sprintf("cannot fix %s to %s: it is already fixed to %s", e.Path, e.Requested, e.Found)
}

// ValueAlreadyAssignedError is returned when a different value was already
// assigned (as a pattern) on the element, or when a pattern merge conflicts
// on a composite field.
type ValueAlreadyAssignedError struct {
	Path      string
	Found     string
	Requested string
}

func (e *ValueAlreadyAssignedError) Error() string {
	return fmt.Sprintf("cannot assign %s to %s: it is already assigned %s", e.Path, e.Requested, e.Found)
}

// FixedToPatternError is returned when a pattern assignment is requested on
// an element that already carries a fixed value. Patterns are weaker than
// fixed values, so this would loosen the constraint.
type FixedToPatternError struct {
	Path string
}

func (e *FixedToPatternError) Error() string {
	return fmt.Sprintf("cannot assign a pattern to %s: it already carries a fixed value", e.Path)
}

// InvalidElementForSlicingError is returned when slicing is requested on an
// element that is neither a choice element nor repeating.
type InvalidElementForSlicingError struct {
	Path string
}

func (e *InvalidElementForSlicingError) Error() string {
	return fmt.Sprintf("cannot slice %s: only choice elements and elements with max > 1 can be sliced", e.Path)
}

// SlicingRedefinitionError is returned when re-slicing an already-sliced
// element with incompatible discriminator, rules, or ordering.
type SlicingRedefinitionError struct {
	Path   string
	Detail string
}

func (e *SlicingRedefinitionError) Error() string {
	return fmt.Sprintf("cannot redefine slicing on %s: %s", e.Path, e.Detail)
}

// DuplicateSliceError is returned when a slice of the given name already
// exists on the element.
type DuplicateSliceError struct {
	Path string
	Name string
}

func (e *DuplicateSliceError) Error() string {
	return fmt.Sprintf("slice %q already exists on %s", e.Name, e.Path)
}

// MissingSlicingError is returned when a slice is added to an element that
// has no slicing definition.
type MissingSlicingError struct {
	Path string
}

func (e *MissingSlicingError) Error() string {
	return fmt.Sprintf("no slicing is defined on %s", e.Path)
}

// PathNotFoundError is returned when a rule path cannot be resolved to an
// element, even after unfolding intermediate elements.
type PathNotFoundError struct {
	Root string
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("no element matching path %q could be found or synthesized in %s", e.Path, e.Root)
}

// MissingParentError is returned when an element's parent path does not
// exist in the tree.
type MissingParentError struct {
	ID string
}

func (e *MissingParentError) Error() string {
	return fmt.Sprintf("element %s has no parent element in the tree", e.ID)
}

// DuplicateElementIDError is returned when two elements in a tree share an id.
type DuplicateElementIDError struct {
	ID string
}

func (e *DuplicateElementIDError) Error() string {
	return fmt.Sprintf("duplicate element id %s", e.ID)
}

// CircularDependencyError is returned when resolving a base-definition chain
// revisits a definition. Chain carries the full list of names for diagnosability.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular base-definition chain: %s", strings.Join(e.Chain, " -> "))
}

// BindingStrengthError is returned when a binding would weaken the current
// binding strength. Strength may only stay the same or strengthen.
type BindingStrengthError struct {
	Path string
	From string
	To   string
}

func (e *BindingStrengthError) Error() string {
	return fmt.Sprintf("cannot weaken binding strength of %s from %s to %s", e.Path, e.From, e.To)
}

// ConflictingStandardsStatusError is returned when more than one standards
// status flag would be set on an element.
type ConflictingStandardsStatusError struct {
	Path     string
	Current  string
	Proposed string
}

func (e *ConflictingStandardsStatusError) Error() string {
	return fmt.Sprintf("element %s already has standards status %q; cannot also set %q", e.Path, e.Current, e.Proposed)
}
