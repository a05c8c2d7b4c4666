package element

import (
	"fmt"
	"strings"
)

// StructureDefinition owns an ordered sequence of elements forming a tree
// via path/id naming conventions. Order is semantically significant: it is
// the canonical snapshot order and determines child/slice insertion points.
type StructureDefinition struct {
	URL            string
	ID             string
	Name           string
	Title          string
	Description    string
	Version        string
	Status         string
	Experimental   bool
	Type           string
	Kind           string
	Abstract       bool
	BaseDefinition string
	Derivation     string
	FHIRVersion    string
	Context        []string

	Elements []*Element
}

// NewStructureDefinition creates an empty tree for the given type with a
// root element whose path equals the type name.
func NewStructureDefinition(typeName string) *StructureDefinition {
	sd := &StructureDefinition{Type: typeName}
	root := NewElement(typeName)
	sd.AddElement(root)
	return sd
}

// Root returns the tree's root element, or nil for an empty tree.
func (sd *StructureDefinition) Root() *Element {
	if len(sd.Elements) == 0 {
		return nil
	}
	return sd.Elements[0]
}

// FindElement returns the element with the given id, or nil.
func (sd *StructureDefinition) FindElement(id string) *Element {
	for _, e := range sd.Elements {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (sd *StructureDefinition) indexOf(e *Element) int {
	for i, candidate := range sd.Elements {
		if candidate == e {
			return i
		}
	}
	return -1
}

// insertAt inserts elements at the given index and claims ownership.
func (sd *StructureDefinition) insertAt(idx int, elems ...*Element) {
	for _, e := range elems {
		e.structDef = sd
	}
	sd.Elements = append(sd.Elements[:idx], append(elems, sd.Elements[idx:]...)...)
}

// AddElement inserts the element at its tree position: after the last
// element of its parent's existing subtree. Elements with no parent in the
// tree are appended at the end.
func (sd *StructureDefinition) AddElement(e *Element) {
	parentID := parentIDOf(e.ID)
	if parentID == "" || sd.FindElement(parentID) == nil {
		sd.insertAt(len(sd.Elements), e)
		return
	}

	insertAt := sd.indexOf(sd.FindElement(parentID)) + 1
	for insertAt < len(sd.Elements) {
		candidate := sd.Elements[insertAt]
		if !strings.HasPrefix(candidate.ID, parentID+".") && !strings.HasPrefix(candidate.ID, parentID+":") {
			break
		}
		insertAt++
	}
	sd.insertAt(insertAt, e)
}

// parentIDOf drops the last path segment of an id; a trailing slice marker
// belongs to the same segment. Returns "" for a root id.
func parentIDOf(id string) string {
	lastDot := strings.LastIndexByte(id, '.')
	lastColon := strings.LastIndexByte(id, ':')
	if lastColon > lastDot {
		// A slice: its parent is the unsliced element.
		return id[:lastColon]
	}
	if lastDot == -1 {
		return ""
	}
	return id[:lastDot]
}

// Parent returns the element one path segment up, or nil for the root.
func (sd *StructureDefinition) Parent(e *Element) *Element {
	parentID := parentIDOf(e.ID)
	if parentID == "" {
		return nil
	}
	return sd.FindElement(parentID)
}

// Children returns the currently materialized elements exactly one segment
// below the element's path. Slices of e are not children; children of slices
// are returned for the slice element itself.
func (sd *StructureDefinition) Children(e *Element) []*Element {
	prefix := e.ID + "."
	var out []*Element
	for _, candidate := range sd.Elements {
		if !strings.HasPrefix(candidate.ID, prefix) {
			continue
		}
		rest := candidate.ID[len(prefix):]
		if strings.ContainsAny(rest, ".:") {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// Clone produces an independent deep copy of the tree. When clearOriginals
// is true the copies start diff-tracking afresh.
func (sd *StructureDefinition) Clone(clearOriginals bool) *StructureDefinition {
	clone := *sd
	clone.Context = append([]string(nil), sd.Context...)
	clone.Elements = make([]*Element, len(sd.Elements))
	for i, e := range sd.Elements {
		c := e.Clone(true, !clearOriginals)
		c.structDef = &clone
		clone.Elements[i] = c
	}
	return &clone
}

// CaptureOriginals snapshots every element as its own diff baseline.
func (sd *StructureDefinition) CaptureOriginals() {
	for _, e := range sd.Elements {
		e.CaptureOriginal()
	}
}

// Snapshot returns the fully resolved element sequence in canonical order.
func (sd *StructureDefinition) Snapshot() []*Element {
	out := make([]*Element, len(sd.Elements))
	copy(out, sd.Elements)
	return out
}

// Differential returns the minimal per-element diff sequence: every element
// whose own fields differ from its captured baseline (new elements in full),
// in snapshot order. Applying the differential over the same base definition
// reproduces the snapshot.
func (sd *StructureDefinition) Differential() []*Element {
	var out []*Element
	for _, e := range sd.Elements {
		if e.hasOwnDiff() {
			out = append(out, e.CalculateDiff())
		}
	}
	return out
}

// Validate checks the tree invariants: the root path equals the tree type,
// ids are unique, and every non-root element's parent exists.
func (sd *StructureDefinition) Validate() error {
	root := sd.Root()
	if root == nil {
		return fmt.Errorf("definition %s has no elements", sd.Name)
	}
	if root.Path != sd.Type {
		return fmt.Errorf("root path %q does not match definition type %q", root.Path, sd.Type)
	}
	seen := make(map[string]bool, len(sd.Elements))
	for _, e := range sd.Elements {
		if seen[e.ID] {
			return &DuplicateElementIDError{ID: e.ID}
		}
		seen[e.ID] = true
	}
	for _, e := range sd.Elements[1:] {
		if parentID := parentIDOf(e.ID); parentID != "" && !seen[parentID] {
			return &MissingParentError{ID: e.ID}
		}
	}
	return nil
}

// FromBase fetches the named base definition through the fisher and returns
// an independent working copy whose elements are diff-baselined, so that
// only local constraints show up in the differential. Definitions that carry
// no elements of their own are resolved through their base-definition chain;
// a revisited definition fails with the full chain of names.
func FromBase(name string, f Fisher) (*StructureDefinition, error) {
	return fromBase(name, f, nil)
}

func fromBase(name string, f Fisher, chain []string) (*StructureDefinition, error) {
	for _, visited := range chain {
		if visited == name {
			return nil, &CircularDependencyError{Chain: append(chain, name)}
		}
	}
	chain = append(chain, name)

	base, err := f.FishForStructureDefinition(name,
		KindResource, KindType, KindProfile, KindExtension, KindLogicalModel)
	if err != nil {
		return nil, fmt.Errorf("resolving base definition %q: %w", name, err)
	}

	if len(base.Elements) == 0 {
		if base.BaseDefinition == "" {
			return nil, fmt.Errorf("base definition %q has neither elements nor a base definition", name)
		}
		parent, err := fromBase(base.BaseDefinition, f, chain)
		if err != nil {
			return nil, err
		}
		clone := parent.Clone(true)
		clone.URL = base.URL
		clone.ID = base.ID
		clone.Name = base.Name
		clone.Type = base.Type
		clone.Kind = base.Kind
		clone.BaseDefinition = base.BaseDefinition
		clone.CaptureOriginals()
		return clone, nil
	}

	clone := base.Clone(true)
	clone.CaptureOriginals()
	return clone, nil
}
