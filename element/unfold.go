package element

import (
	"strings"

	"github.com/FHIR/sushi-sub009/pool"
)

// Unfold materializes the element's implicit children by resolving its
// single type through the fisher and rebasing that type's non-root elements
// under this element's id and path. The new elements are inserted into the
// owning tree immediately after this element, preserving the type's original
// relative order, and are diff-baselined so they only surface in the
// differential once mutated.
//
// Elements with zero or more than one allowed type are ambiguous and unfold
// to nothing. Children that already exist in the tree (for example manually
// declared slices) are left untouched. The returned slice holds the newly
// inserted elements.
func (e *Element) Unfold(f Fisher) ([]*Element, error) {
	if e.structDef == nil {
		return nil, &MissingParentError{ID: e.ID}
	}

	source, sourceRoot, err := e.unfoldSource(f)
	if err != nil || source == nil {
		return nil, err
	}

	idx := e.structDef.indexOf(e)
	if idx < 0 {
		return nil, &MissingParentError{ID: e.ID}
	}

	var added []*Element
	for _, child := range source {
		rebased := child.Clone(true, false)
		rebased.ID = rebaseID(e.ID, sourceRoot, child.ID)
		rebased.Path = pathFromID(rebased.ID)
		if e.structDef.FindElement(rebased.ID) != nil {
			continue
		}
		rebased.structDef = e.structDef
		rebased.CaptureOriginal()
		added = append(added, rebased)
	}

	e.structDef.insertAt(idx+1, added...)
	return added, nil
}

// unfoldSource picks the element sequence to rebase: the children of a
// content-referenced element in the same tree, or the non-root elements of
// the element's single resolvable type.
func (e *Element) unfoldSource(f Fisher) ([]*Element, string, error) {
	if e.ContentReference != "" {
		refID := strings.TrimPrefix(e.ContentReference, "#")
		target := e.structDef.FindElement(refID)
		if target == nil {
			return nil, "", &PathNotFoundError{Root: e.structDef.Name, Path: refID}
		}
		return subtreeOf(e.structDef, target), target.ID, nil
	}

	if len(e.Types) != 1 {
		return nil, "", nil
	}

	typeDef, err := f.FishForStructureDefinition(e.Types[0].Code,
		KindResource, KindType, KindLogicalModel)
	if err != nil {
		return nil, "", &TypeNotFoundError{Name: e.Types[0].Code}
	}
	root := typeDef.Root()
	if root == nil {
		return nil, "", nil
	}
	return typeDef.Elements[1:], root.ID, nil
}

// subtreeOf returns every element strictly below the given element.
func subtreeOf(sd *StructureDefinition, e *Element) []*Element {
	var out []*Element
	for _, candidate := range sd.Elements {
		if strings.HasPrefix(candidate.ID, e.ID+".") {
			out = append(out, candidate)
		}
	}
	return out
}

// rebaseID rewrites an id from under sourceRootID to under newParentID.
func rebaseID(newParentID, sourceRootID, id string) string {
	pb := pool.AcquirePathBuilder()
	defer pb.Release()
	pb.WriteString(newParentID)
	pb.WriteString(strings.TrimPrefix(id, sourceRootID))
	return pb.String()
}
