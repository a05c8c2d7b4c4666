package fisher

import (
	"errors"

	"github.com/FHIR/sushi-sub009/element"
)

// Chain implements element.Fisher by trying multiple sources in order.
// The first match wins, so locally-defined artifacts shadow external ones
// of the same name when their source comes first in the chain.
type Chain struct {
	sources []element.Fisher
}

// NewChain creates a chain over the given sources, highest precedence first.
func NewChain(sources ...element.Fisher) *Chain {
	return &Chain{sources: sources}
}

// Add appends a source at the lowest precedence.
func (c *Chain) Add(source element.Fisher) {
	c.sources = append(c.sources, source)
}

// FishForStructureDefinition tries each source until one resolves the item.
func (c *Chain) FishForStructureDefinition(item string, kinds ...element.ArtifactKind) (*element.StructureDefinition, error) {
	for _, source := range c.sources {
		def, err := source.FishForStructureDefinition(item, kinds...)
		if err == nil && def != nil {
			return def, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// FishForMetadata tries each source until one resolves the item.
func (c *Chain) FishForMetadata(item string, kinds ...element.ArtifactKind) (*element.Metadata, error) {
	for _, source := range c.sources {
		md, err := source.FishForMetadata(item, kinds...)
		if err == nil && md != nil {
			return md, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

var _ element.Fisher = (*Chain)(nil)
