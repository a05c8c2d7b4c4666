// Package fisher implements the resolver ("fish") capability the constraint
// engine consumes: lookup of definitions by name, id, or canonical URL,
// filtered by artifact kind, across chained sources with fixed precedence.
package fisher

import (
	"errors"
	"strings"

	"github.com/FHIR/sushi-sub009/element"
)

// ErrNotFound is returned when no source can resolve an item.
var ErrNotFound = errors.New("definition not found")

// splitVersion splits an item identifier into its base and an optional
// |version suffix.
func splitVersion(item string) (base, version string) {
	if idx := strings.LastIndexByte(item, '|'); idx != -1 {
		return item[:idx], item[idx+1:]
	}
	return item, ""
}

// kindMatches reports whether kind passes the filter. An empty filter
// matches every kind.
func kindMatches(kind element.ArtifactKind, filter []element.ArtifactKind) bool {
	if len(filter) == 0 {
		return true
	}
	for _, k := range filter {
		if k == kind {
			return true
		}
	}
	return false
}
