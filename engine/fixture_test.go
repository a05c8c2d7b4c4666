package engine

import (
	"testing"

	"github.com/rs/zerolog"

	fsh "github.com/FHIR/sushi-sub009"
	"github.com/FHIR/sushi-sub009/element"
	"github.com/FHIR/sushi-sub009/fisher"
)

func el(id string, min int, max string, typeCodes ...string) *element.Element {
	e := element.NewElement(id)
	m := min
	e.Min = &m
	e.Max = max
	for _, code := range typeCodes {
		e.Types = append(e.Types, element.Type{Code: code})
	}
	return e
}

func def(name, kind string, elems ...*element.Element) *element.StructureDefinition {
	sd := &element.StructureDefinition{
		URL:  "http://hl7.org/fhir/StructureDefinition/" + name,
		ID:   name,
		Name: name,
		Type: name,
		Kind: kind,
	}
	for _, e := range elems {
		sd.AddElement(e)
	}
	return sd
}

// newStore builds a fishing source with a minimal Observation resource, the
// types its elements reach for, and one named extension artifact.
func newStore(t *testing.T) *fisher.MemoryStore {
	t.Helper()
	store := fisher.NewMemoryStore(zerolog.Nop())

	store.Put(def("Observation", "resource",
		el("Observation", 0, "*"),
		el("Observation.id", 0, "1", "string"),
		el("Observation.extension", 0, "*", "Extension"),
		el("Observation.status", 1, "1", "code"),
		el("Observation.code", 1, "1", "CodeableConcept"),
		el("Observation.value[x]", 0, "1", "Quantity", "string", "CodeableConcept"),
		el("Observation.component", 0, "*", "BackboneElement"),
		el("Observation.component.code", 1, "1", "CodeableConcept"),
		el("Observation.component.value[x]", 0, "1", "Quantity", "string"),
	), element.KindResource)

	store.Put(def("Quantity", "complex-type",
		el("Quantity", 0, "*"),
		el("Quantity.value", 0, "1", "decimal"),
		el("Quantity.unit", 0, "1", "string"),
		el("Quantity.code", 0, "1", "code"),
	), element.KindType)

	store.Put(def("CodeableConcept", "complex-type",
		el("CodeableConcept", 0, "*"),
		el("CodeableConcept.coding", 0, "*", "Coding"),
		el("CodeableConcept.text", 0, "1", "string"),
	), element.KindType)

	store.Put(def("string", "primitive-type",
		el("string", 0, "*"),
		el("string.value", 0, "1"),
	), element.KindType)

	store.Put(def("Extension", "complex-type",
		el("Extension", 0, "*"),
		el("Extension.url", 1, "1", "uri"),
		el("Extension.value[x]", 0, "1", "string", "code", "Quantity"),
	), element.KindType)

	importance := def("ImportanceExt", "complex-type",
		el("Extension", 0, "1"),
	)
	importance.URL = "http://example.org/StructureDefinition/importance"
	importance.Type = "Extension"
	store.Put(importance, element.KindExtension)

	return store
}

func newEngine(t *testing.T, opts *fsh.Options) *Engine {
	t.Helper()
	e := New(newStore(t), opts, zerolog.Nop())
	e.SetCanonical("http://example.org/fhir/")
	return e
}
