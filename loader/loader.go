// Package loader reads FHIR StructureDefinition JSON (single resources or
// Bundles) into the internal element model and registers the results in an
// in-memory fishing store.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/gofhir/fhir/r4"
	"github.com/rs/zerolog"

	"github.com/FHIR/sushi-sub009/element"
	"github.com/FHIR/sushi-sub009/fisher"
)

// Loader parses StructureDefinition JSON and feeds a MemoryStore.
type Loader struct {
	store     *fisher.MemoryStore
	converter *Converter
	logger    zerolog.Logger
}

// New creates a loader feeding the given store.
func New(store *fisher.MemoryStore, logger zerolog.Logger) *Loader {
	return &Loader{
		store:     store,
		converter: NewConverter(),
		logger:    logger,
	}
}

// Store returns the store the loader feeds.
func (l *Loader) Store() *fisher.MemoryStore {
	return l.store
}

// LoadFromFile loads StructureDefinitions from a JSON file. Both single
// StructureDefinition and Bundle formats are supported.
func (l *Loader) LoadFromFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return l.LoadFromJSON(data)
}

// LoadFromJSON loads StructureDefinitions from JSON data, auto-detecting
// Bundle vs single StructureDefinition format.
func (l *Loader) LoadFromJSON(data []byte) (int, error) {
	resourceType, err := jsonparser.GetString(data, "resourceType")
	if err != nil {
		return 0, fmt.Errorf("invalid JSON: missing resourceType: %w", err)
	}

	switch resourceType {
	case "Bundle":
		return l.loadFromBundle(data)
	case "StructureDefinition":
		if err := l.loadOne(data); err != nil {
			return 0, err
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported resourceType: %s", resourceType)
	}
}

// loadFromBundle iterates bundle entries, loading every StructureDefinition
// and skipping everything else.
func (l *Loader) loadFromBundle(data []byte) (int, error) {
	count := 0
	_, err := jsonparser.ArrayEach(data, func(entry []byte, _ jsonparser.ValueType, _ int, _ error) {
		resource, _, _, err := jsonparser.Get(entry, "resource")
		if err != nil {
			return
		}
		resourceType, err := jsonparser.GetString(resource, "resourceType")
		if err != nil || resourceType != "StructureDefinition" {
			return
		}
		if err := l.loadOne(resource); err != nil {
			l.logger.Warn().Err(err).Msg("skipping bundle entry")
			return
		}
		count++
	}, "entry")
	if err != nil {
		return count, fmt.Errorf("failed to parse Bundle: %w", err)
	}
	return count, nil
}

// loadOne parses a single StructureDefinition and registers it.
func (l *Loader) loadOne(data []byte) error {
	var sd r4.StructureDefinition
	if err := json.Unmarshal(data, &sd); err != nil {
		return fmt.Errorf("failed to parse StructureDefinition: %w", err)
	}

	converted := l.converter.ConvertStructureDefinition(&sd)
	if converted == nil {
		return fmt.Errorf("structure definition is nil")
	}

	kind := classifyKind(converted)
	l.store.Put(converted, kind)

	l.logger.Debug().
		Str("url", converted.URL).
		Str("type", converted.Type).
		Str("kind", kind.String()).
		Int("elements", len(converted.Elements)).
		Msg("loaded definition")
	return nil
}

// LoadFromDirectory loads every .json file in a directory, non-recursively.
// Files that fail to load are skipped with a warning.
func (l *Loader) LoadFromDirectory(dirPath string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dirPath, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to glob directory: %w", err)
	}

	total := 0
	for _, file := range files {
		count, err := l.LoadFromFile(file)
		if err != nil {
			l.logger.Warn().Err(err).Str("file", file).Msg("skipping file")
			continue
		}
		total += count
	}

	l.logger.Info().Int("definitions", total).Str("dir", dirPath).Msg("loaded directory")
	return total, nil
}

// LoadAllFromDirectory loads all .json files from a directory recursively.
func (l *Loader) LoadAllFromDirectory(dirPath string) (int, error) {
	total := 0
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		count, err := l.LoadFromFile(path)
		if err != nil {
			return nil
		}
		total += count
		return nil
	})
	return total, err
}

// classifyKind maps a definition's kind and derivation to an artifact kind.
// Constrained definitions are profiles (or extensions, when they constrain
// Extension); everything else classifies by its declared kind.
func classifyKind(sd *element.StructureDefinition) element.ArtifactKind {
	if sd.Derivation == "constraint" {
		if sd.Type == "Extension" {
			return element.KindExtension
		}
		return element.KindProfile
	}
	switch sd.Kind {
	case "resource":
		return element.KindResource
	case "logical":
		return element.KindLogicalModel
	default:
		return element.KindType
	}
}
