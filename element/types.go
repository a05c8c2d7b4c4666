package element

import (
	"strings"
)

// Type is one entry in an element's ordered type list.
type Type struct {
	Code           string
	Profiles       []string
	TargetProfiles []string
}

// TypeTarget names one target of a type restriction.
type TypeTarget struct {
	Name        string
	IsReference bool
	IsCanonical bool
}

// lineage walks the base-definition chain of name through the fisher and
// returns every name and URL encountered, starting with the target itself.
// The walk is cycle-guarded.
func lineage(name string, f Fisher) ([]*Metadata, error) {
	var chain []*Metadata
	seen := map[string]bool{}
	current := name
	for current != "" && !seen[current] {
		seen[current] = true
		md, err := f.FishForMetadata(current, KindResource, KindType, KindProfile, KindExtension, KindLogicalModel)
		if err != nil {
			if len(chain) == 0 {
				return nil, &TypeNotFoundError{Name: name}
			}
			return chain, nil
		}
		chain = append(chain, md)
		current = md.Parent
	}
	return chain, nil
}

// matchesLineage reports whether any entry in the lineage is identified by
// the given name or URL.
func matchesLineage(chain []*Metadata, identifier string) bool {
	for _, md := range chain {
		if md.Name == identifier || md.URL == identifier || md.ID == identifier ||
			md.ResourceType == identifier {
			return true
		}
	}
	return false
}

// ConstrainType restricts the element's type list to the given targets.
//
// Every target must be a specialization of at least one currently allowed
// type (or, for Reference/canonical targets, of one of the existing target
// profiles). The element's type list is replaced by the narrowed set, in
// target order; profile and target-profile lists are merged per the
// compatibility rule. A restriction that would eliminate every allowed type
// on an existing named slice fails.
//
// A logical-model target whose declared parent is not abstract is rejected
// with NonAbstractParentError. The check is limited to logical models:
// standard FHIR types routinely specialize concrete parents (code
// specializes string, for one) and remain valid targets.
func (e *Element) ConstrainType(targets []TypeTarget, f Fisher) error {
	if len(targets) == 0 {
		return nil
	}

	var newTypes []Type
	for _, target := range targets {
		if target.IsReference || target.IsCanonical {
			t, err := e.constrainReferenceTarget(target, f)
			if err != nil {
				return err
			}
			newTypes = mergeType(newTypes, t)
			continue
		}

		chain, err := lineage(target.Name, f)
		if err != nil {
			return err
		}
		resolved := chain[0]

		if resolved.Kind == KindLogicalModel && resolved.Parent != "" {
			parent, perr := f.FishForMetadata(resolved.Parent, KindResource, KindType, KindLogicalModel)
			if perr == nil && !parent.Abstract {
				return &NonAbstractParentError{Type: resolved.Name, Parent: parent.Name}
			}
		}

		matched := e.matchAgainstTypes(chain)
		if matched == nil {
			return &InvalidTypeError{Path: e.ID, Name: target.Name, Allowed: e.typeCodes()}
		}

		t := Type{Code: matched.Code}
		if resolved.Kind == KindProfile || resolved.Kind == KindExtension {
			t.Profiles = append(t.Profiles, resolved.URL)
		} else {
			t.Code = resolved.baseTypeName()
		}
		newTypes = mergeType(newTypes, t)
	}

	for _, slice := range e.Slices() {
		if !sliceRetainsType(slice, newTypes) {
			return &SliceTypeRemovalError{Path: e.ID, Slice: slice.SliceName}
		}
	}

	e.Types = newTypes
	return nil
}

// constrainReferenceTarget narrows a Reference (or canonical) type's target
// profiles to the given target.
func (e *Element) constrainReferenceTarget(target TypeTarget, f Fisher) (Type, error) {
	code := "Reference"
	if target.IsCanonical {
		code = "canonical"
	}

	var existing *Type
	for i := range e.Types {
		if e.Types[i].Code == code {
			existing = &e.Types[i]
			break
		}
	}
	if existing == nil {
		return Type{}, &InvalidTypeError{Path: e.ID, Name: target.Name, Allowed: e.typeCodes()}
	}

	chain, err := lineage(target.Name, f)
	if err != nil {
		return Type{}, err
	}

	if len(existing.TargetProfiles) > 0 {
		ok := false
		for _, tp := range existing.TargetProfiles {
			if matchesLineage(chain, tp) || matchesLineage(chain, nameFromCanonical(tp)) {
				ok = true
				break
			}
		}
		if !ok {
			return Type{}, &InvalidTypeError{Path: e.ID, Name: target.Name, Allowed: existing.TargetProfiles}
		}
	}

	return Type{Code: code, TargetProfiles: []string{chain[0].URL}}, nil
}

// matchAgainstTypes finds the existing type the resolved lineage specializes,
// checking type codes first and then declared profiles.
func (e *Element) matchAgainstTypes(chain []*Metadata) *Type {
	for i := range e.Types {
		if matchesLineage(chain, e.Types[i].Code) {
			return &e.Types[i]
		}
	}
	for i := range e.Types {
		for _, p := range e.Types[i].Profiles {
			if matchesLineage(chain, p) || matchesLineage(chain, nameFromCanonical(p)) {
				return &e.Types[i]
			}
		}
	}
	return nil
}

// baseTypeName returns the FHIR type name this metadata constrains: the
// resource type for profiles, otherwise the artifact's own name.
func (md *Metadata) baseTypeName() string {
	if md.ResourceType != "" {
		return md.ResourceType
	}
	return md.Name
}

// mergeType appends t to types, merging profile lists when the code already
// occurs. Reference and canonical entries accumulate target profiles rather
// than repeating the code.
func mergeType(types []Type, t Type) []Type {
	for i := range types {
		if types[i].Code != t.Code {
			continue
		}
		types[i].Profiles = appendUnique(types[i].Profiles, t.Profiles...)
		types[i].TargetProfiles = appendUnique(types[i].TargetProfiles, t.TargetProfiles...)
		return types
	}
	return append(types, t)
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range dst {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}

// sliceRetainsType reports whether the slice keeps at least one viable type
// after the base element's types are replaced with newTypes. Slices without
// their own type constraint inherit the base types and always remain viable.
func sliceRetainsType(slice *Element, newTypes []Type) bool {
	if len(slice.Types) == 0 {
		return true
	}
	for _, st := range slice.Types {
		for _, nt := range newTypes {
			if st.Code == nt.Code {
				return true
			}
		}
	}
	return false
}

// typeCodes returns the element's current type codes.
func (e *Element) typeCodes() []string {
	codes := make([]string, 0, len(e.Types))
	for _, t := range e.Types {
		codes = append(codes, t.Code)
	}
	return codes
}

// nameFromCanonical extracts the trailing name of a canonical URL, e.g.
// "http://hl7.org/fhir/StructureDefinition/Quantity" -> "Quantity".
func nameFromCanonical(url string) string {
	if idx := strings.LastIndexByte(url, '/'); idx != -1 {
		return url[idx+1:]
	}
	return url
}
