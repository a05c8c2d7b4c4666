package element

import (
	"strconv"
	"strings"
)

// pathPart is one dotted segment of a rule path: a base name plus any
// bracketed qualifiers (slice names). The [x] choice marker stays part of
// the base name; numeric indices are parsed but carry no meaning for
// definition trees and are dropped during resolution.
type pathPart struct {
	base     string
	brackets []string
}

// parsePath splits a dotted rule path into parts, honoring brackets.
// "component[SystolicBP].value[x]" yields
// {base: "component", brackets: ["SystolicBP"]}, {base: "value[x]"}.
func parsePath(path string) []pathPart {
	var parts []pathPart
	var current pathPart
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			parts = append(parts, current)
			current = pathPart{}
			i++
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end == -1 {
				current.base += path[i:]
				i = len(path)
				break
			}
			content := path[i+1 : i+end]
			if content == "x" && len(current.brackets) == 0 {
				current.base += "[x]"
			} else {
				current.brackets = append(current.brackets, content)
			}
			i += end + 1
		default:
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			current.base += path[i:j]
			i = j
		}
	}
	if current.base != "" || len(current.brackets) > 0 {
		parts = append(parts, current)
	}
	return parts
}

// isNumeric reports whether s is a decimal integer.
func isNumeric(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// FindElementByPath resolves a rule path (relative to the root, with
// optional bracketed slice names and [x] choice suffixes) to a single
// element, unfolding intermediate elements on demand so trees stay small
// until rules require deeper access.
//
// A choice segment may name a specific choice ("valueQuantity"); it resolves
// to the matching [x] element when the named type is among its choices.
// Returns a PathNotFoundError when no element can be found or synthesized.
func (sd *StructureDefinition) FindElementByPath(path string, f Fisher) (*Element, error) {
	root := sd.Root()
	if root == nil {
		return nil, &PathNotFoundError{Root: sd.Name, Path: path}
	}
	if path == "" || path == "." {
		return root, nil
	}

	current := root
	for _, part := range parsePath(path) {
		next := sd.resolveChild(current, part.base)
		if next == nil && f != nil {
			// Lazily materialize implicit children, then retry.
			if _, err := current.Unfold(f); err == nil {
				next = sd.resolveChild(current, part.base)
			}
		}
		if next == nil {
			return nil, &PathNotFoundError{Root: sd.Name, Path: path}
		}

		for _, bracket := range part.brackets {
			if isNumeric(bracket) {
				continue
			}
			slice := sd.FindElement(next.ID + ":" + bracket)
			if slice == nil {
				return nil, &PathNotFoundError{Root: sd.Name, Path: path}
			}
			next = slice
		}
		current = next
	}
	return current, nil
}

// resolveChild finds the direct child of parent with the given segment name,
// trying an exact id match first and then choice-type disambiguation
// ("valueString" matches a "value[x]" child with string among its types).
func (sd *StructureDefinition) resolveChild(parent *Element, name string) *Element {
	if e := sd.FindElement(parent.ID + "." + name); e != nil {
		return e
	}

	for _, child := range sd.Children(parent) {
		base, ok := strings.CutSuffix(lastSegment(child.ID), "[x]")
		if !ok || !strings.HasPrefix(name, base) || len(name) <= len(base) {
			continue
		}
		suffix := name[len(base):]
		for _, t := range child.Types {
			if strings.EqualFold(suffix, t.Code) || suffix == upperFirst(t.Code) {
				return child
			}
		}
	}
	return nil
}

func lastSegment(id string) string {
	if idx := strings.LastIndexByte(id, '.'); idx != -1 {
		return id[idx+1:]
	}
	return id
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
