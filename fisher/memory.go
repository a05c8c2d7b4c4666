package fisher

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/FHIR/sushi-sub009/element"
)

// MemoryStore is an in-memory fishing source: a working set of definitions
// indexed by name, id, and canonical URL.
//
// Versioned lookups ("name|version") resolve best-effort: a versioned miss
// retries unversioned and logs a warning when the resolved version differs
// from the requested one.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]*record
	byID   map[string]*record
	byURL  map[string]*record
	logger zerolog.Logger
}

type record struct {
	def  *element.StructureDefinition
	kind element.ArtifactKind
}

// NewMemoryStore creates an empty store. The logger is used only for
// version-fallback warnings; pass zerolog.Nop() to silence them.
func NewMemoryStore(logger zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		byName: make(map[string]*record),
		byID:   make(map[string]*record),
		byURL:  make(map[string]*record),
		logger: logger,
	}
}

// Put registers a definition under its name, id, and URL. Later Puts shadow
// earlier ones under the same key.
func (s *MemoryStore) Put(def *element.StructureDefinition, kind element.ArtifactKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &record{def: def, kind: kind}
	if def.Name != "" {
		s.byName[def.Name] = rec
	}
	if def.ID != "" {
		s.byID[def.ID] = rec
	}
	if def.URL != "" {
		s.byURL[def.URL] = rec
	}
}

// Count returns the number of distinct definitions registered by URL.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byURL)
}

// lookup finds a record by name, id, or URL, honoring the kind filter.
func (s *MemoryStore) lookup(item string, kinds []element.ArtifactKind) *record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, table := range []map[string]*record{s.byName, s.byID, s.byURL} {
		if rec, ok := table[item]; ok && kindMatches(rec.kind, kinds) {
			return rec
		}
	}
	return nil
}

// fish resolves an item with version-fallback semantics.
func (s *MemoryStore) fish(item string, kinds []element.ArtifactKind) *record {
	base, version := splitVersion(item)

	if rec := s.lookup(item, kinds); rec != nil {
		return rec
	}
	if version == "" {
		return nil
	}

	rec := s.lookup(base, kinds)
	if rec == nil {
		return nil
	}
	if rec.def.Version != version {
		s.logger.Warn().
			Str("item", base).
			Str("requested", version).
			Str("resolved", rec.def.Version).
			Msg("versioned lookup missed; using a different version")
	}
	return rec
}

// FishForStructureDefinition implements element.Fisher.
func (s *MemoryStore) FishForStructureDefinition(item string, kinds ...element.ArtifactKind) (*element.StructureDefinition, error) {
	rec := s.fish(item, kinds)
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec.def, nil
}

// FishForMetadata implements element.Fisher.
func (s *MemoryStore) FishForMetadata(item string, kinds ...element.ArtifactKind) (*element.Metadata, error) {
	rec := s.fish(item, kinds)
	if rec == nil {
		return nil, ErrNotFound
	}
	def := rec.def
	md := &element.Metadata{
		ID:       def.ID,
		Name:     def.Name,
		URL:      def.URL,
		Version:  def.Version,
		Kind:     rec.kind,
		Abstract: def.Abstract,
		Parent:   def.BaseDefinition,
	}
	if rec.kind == element.KindProfile || rec.kind == element.KindExtension {
		md.ResourceType = def.Type
	}
	return md, nil
}

var _ element.Fisher = (*MemoryStore)(nil)
