package fisher

import (
	"strings"

	"github.com/FHIR/sushi-sub009/cache"
	"github.com/FHIR/sushi-sub009/element"
)

// Cached wraps a Fisher with an LRU cache keyed by item plus kind filter.
// Definitions are shared read-only lookup tables during compilation, so a
// cache hit can safely return the same tree to every caller; callers that
// mutate must clone first (element.FromBase does).
type Cached struct {
	inner element.Fisher
	defs  *cache.Cache[string, *element.StructureDefinition]
	metas *cache.Cache[string, *element.Metadata]
}

// NewCached creates a caching wrapper with the given capacity per cache.
func NewCached(inner element.Fisher, capacity int) *Cached {
	return &Cached{
		inner: inner,
		defs:  cache.New[string, *element.StructureDefinition](capacity),
		metas: cache.New[string, *element.Metadata](capacity),
	}
}

func cacheKey(item string, kinds []element.ArtifactKind) string {
	if len(kinds) == 0 {
		return item
	}
	var sb strings.Builder
	sb.WriteString(item)
	for _, k := range kinds {
		sb.WriteByte('|')
		sb.WriteString(k.String())
	}
	return sb.String()
}

// FishForStructureDefinition checks the cache first, then the wrapped fisher.
func (c *Cached) FishForStructureDefinition(item string, kinds ...element.ArtifactKind) (*element.StructureDefinition, error) {
	key := cacheKey(item, kinds)
	if def, ok := c.defs.Get(key); ok {
		return def, nil
	}
	def, err := c.inner.FishForStructureDefinition(item, kinds...)
	if err != nil {
		return nil, err
	}
	c.defs.Set(key, def)
	return def, nil
}

// FishForMetadata checks the cache first, then the wrapped fisher.
func (c *Cached) FishForMetadata(item string, kinds ...element.ArtifactKind) (*element.Metadata, error) {
	key := cacheKey(item, kinds)
	if md, ok := c.metas.Get(key); ok {
		return md, nil
	}
	md, err := c.inner.FishForMetadata(item, kinds...)
	if err != nil {
		return nil, err
	}
	c.metas.Set(key, md)
	return md, nil
}

// Stats returns the definition cache's metrics.
func (c *Cached) Stats() cache.Stats {
	return c.defs.Stats()
}

var _ element.Fisher = (*Cached)(nil)
