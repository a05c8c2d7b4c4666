package element

import (
	"strings"
)

// Slicing rules values, most open to most closed.
const (
	SlicingOpen      = "open"
	SlicingOpenAtEnd = "openAtEnd"
	SlicingClosed    = "closed"
)

// Discriminator defines how instances are told apart across slices.
type Discriminator struct {
	Type string
	Path string
}

// Slicing is the slicing definition carried by a sliceable element.
type Slicing struct {
	Discriminator []Discriminator
	Description   string
	Ordered       bool
	Rules         string
}

// slicingRank orders slicing rules from most open to most closed.
func slicingRank(rules string) int {
	switch rules {
	case SlicingOpen:
		return 0
	case SlicingOpenAtEnd:
		return 1
	case SlicingClosed:
		return 2
	default:
		return -1
	}
}

// SliceIt defines (or compatibly narrows) slicing on the element.
//
// Only choice elements and repeating elements can be sliced. Re-slicing an
// already-sliced element must narrow: rules may move towards closed but not
// back, ordered may be turned on but not off, and new discriminators are
// appended rather than replacing existing ones.
func (e *Element) SliceIt(discriminatorType, discriminatorPath string, ordered bool, rules string) error {
	if !e.IsChoice() && e.MaxValue() <= 1 {
		return &InvalidElementForSlicingError{Path: e.ID}
	}
	if slicingRank(rules) < 0 {
		return &SlicingRedefinitionError{Path: e.ID, Detail: "unknown slicing rules value " + rules}
	}

	if e.Slicing == nil {
		e.Slicing = &Slicing{
			Discriminator: []Discriminator{{Type: discriminatorType, Path: discriminatorPath}},
			Ordered:       ordered,
			Rules:         rules,
		}
		return nil
	}

	if slicingRank(rules) < slicingRank(e.Slicing.Rules) {
		return &SlicingRedefinitionError{
			Path:   e.ID,
			Detail: "rules may not loosen from " + e.Slicing.Rules + " to " + rules,
		}
	}
	if e.Slicing.Ordered && !ordered {
		return &SlicingRedefinitionError{Path: e.ID, Detail: "an ordered slicing may not become unordered"}
	}

	e.Slicing.Rules = rules
	e.Slicing.Ordered = ordered
	d := Discriminator{Type: discriminatorType, Path: discriminatorPath}
	for _, existing := range e.Slicing.Discriminator {
		if existing == d {
			return nil
		}
	}
	e.Slicing.Discriminator = append(e.Slicing.Discriminator, d)
	return nil
}

// AddSlice creates a named slice of this element and inserts it into the
// owning tree immediately after the element and any previously declared
// slices (slices keep declaration order).
//
// The element must already carry a slicing definition. For choice elements a
// concrete type may be supplied to pin the slice to one of the choices.
func (e *Element) AddSlice(name string, t *Type) (*Element, error) {
	if e.Slicing == nil {
		return nil, &MissingSlicingError{Path: e.ID}
	}
	if e.structDef == nil {
		return nil, &MissingParentError{ID: e.ID}
	}
	for _, existing := range e.Slices() {
		if existing.SliceName == name {
			return nil, &DuplicateSliceError{Path: e.ID, Name: name}
		}
	}

	slice := &Element{
		ID:        e.ID + ":" + name,
		Path:      e.Path,
		SliceName: name,
		Max:       e.Max,
		structDef: e.structDef,
	}
	zero := 0
	slice.Min = &zero

	switch {
	case t != nil:
		slice.Types = []Type{*t}
	case len(e.Types) > 0:
		slice.Types = append([]Type(nil), e.Types...)
	}

	idx := e.structDef.indexOf(e)
	if idx < 0 {
		return nil, &MissingParentError{ID: e.ID}
	}
	insertAt := idx + 1
	for insertAt < len(e.structDef.Elements) {
		candidate := e.structDef.Elements[insertAt]
		if !strings.HasPrefix(candidate.ID, e.ID+".") && !strings.HasPrefix(candidate.ID, e.ID+":") {
			break
		}
		insertAt++
	}
	e.structDef.insertAt(insertAt, slice)
	return slice, nil
}
