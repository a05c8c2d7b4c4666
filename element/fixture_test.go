package element

import (
	"testing"
)

// fakeFisher resolves definitions from an in-test map, by name or URL.
type fakeFisher struct {
	defs  map[string]*StructureDefinition
	kinds map[string]ArtifactKind
}

func newFakeFisher() *fakeFisher {
	return &fakeFisher{
		defs:  make(map[string]*StructureDefinition),
		kinds: make(map[string]ArtifactKind),
	}
}

func (f *fakeFisher) add(def *StructureDefinition, kind ArtifactKind) {
	f.defs[def.Name] = def
	f.kinds[def.Name] = kind
	if def.URL != "" {
		f.defs[def.URL] = def
		f.kinds[def.URL] = kind
	}
}

func (f *fakeFisher) FishForStructureDefinition(item string, kinds ...ArtifactKind) (*StructureDefinition, error) {
	def, ok := f.defs[item]
	if !ok || !f.kindMatches(item, kinds) {
		return nil, &TypeNotFoundError{Name: item}
	}
	return def, nil
}

func (f *fakeFisher) FishForMetadata(item string, kinds ...ArtifactKind) (*Metadata, error) {
	def, err := f.FishForStructureDefinition(item, kinds...)
	if err != nil {
		return nil, err
	}
	kind := f.kinds[item]
	md := &Metadata{
		ID:       def.ID,
		Name:     def.Name,
		URL:      def.URL,
		Version:  def.Version,
		Kind:     kind,
		Abstract: def.Abstract,
		Parent:   def.BaseDefinition,
	}
	if kind == KindProfile || kind == KindExtension {
		md.ResourceType = def.Type
	}
	return md, nil
}

func (f *fakeFisher) kindMatches(item string, kinds []ArtifactKind) bool {
	if len(kinds) == 0 {
		return true
	}
	have := f.kinds[item]
	for _, k := range kinds {
		if k == have {
			return true
		}
	}
	return false
}

func canonical(name string) string {
	return "http://hl7.org/fhir/StructureDefinition/" + name
}

// el builds one element for fixtures.
func el(id string, min int, max string, typeCodes ...string) *Element {
	e := NewElement(id)
	e.Min = &min
	e.Max = max
	for _, code := range typeCodes {
		e.Types = append(e.Types, Type{Code: code})
	}
	return e
}

// testFisher builds the shared fixture: a minimal Observation resource plus
// the types its elements reference.
func testFisher(t *testing.T) *fakeFisher {
	t.Helper()
	f := newFakeFisher()

	obs := &StructureDefinition{
		URL:  canonical("Observation"),
		ID:   "Observation",
		Name: "Observation",
		Type: "Observation",
		Kind: "resource",
	}
	for _, e := range []*Element{
		el("Observation", 0, "*"),
		el("Observation.id", 0, "1", "string"),
		el("Observation.extension", 0, "*", "Extension"),
		el("Observation.status", 1, "1", "code"),
		el("Observation.code", 1, "1", "CodeableConcept"),
		el("Observation.value[x]", 0, "1", "Quantity", "string", "CodeableConcept"),
		el("Observation.component", 0, "*", "BackboneElement"),
		el("Observation.component.code", 1, "1", "CodeableConcept"),
		el("Observation.component.value[x]", 0, "1", "Quantity", "string"),
	} {
		obs.AddElement(e)
	}
	f.add(obs, KindResource)

	quantity := &StructureDefinition{
		URL:  canonical("Quantity"),
		ID:   "Quantity",
		Name: "Quantity",
		Type: "Quantity",
		Kind: "complex-type",
	}
	for _, e := range []*Element{
		el("Quantity", 0, "*"),
		el("Quantity.value", 0, "1", "decimal"),
		el("Quantity.unit", 0, "1", "string"),
		el("Quantity.system", 0, "1", "uri"),
		el("Quantity.code", 0, "1", "code"),
	} {
		quantity.AddElement(e)
	}
	f.add(quantity, KindType)

	concept := &StructureDefinition{
		URL:  canonical("CodeableConcept"),
		ID:   "CodeableConcept",
		Name: "CodeableConcept",
		Type: "CodeableConcept",
		Kind: "complex-type",
	}
	for _, e := range []*Element{
		el("CodeableConcept", 0, "*"),
		el("CodeableConcept.coding", 0, "*", "Coding"),
		el("CodeableConcept.text", 0, "1", "string"),
	} {
		concept.AddElement(e)
	}
	f.add(concept, KindType)

	str := &StructureDefinition{
		URL:  canonical("string"),
		ID:   "string",
		Name: "string",
		Type: "string",
		Kind: "primitive-type",
	}
	str.AddElement(el("string", 0, "*"))
	f.add(str, KindType)

	ext := &StructureDefinition{
		URL:  canonical("Extension"),
		ID:   "Extension",
		Name: "Extension",
		Type: "Extension",
		Kind: "complex-type",
	}
	for _, e := range []*Element{
		el("Extension", 0, "*"),
		el("Extension.url", 1, "1", "uri"),
		el("Extension.value[x]", 0, "1", "Quantity", "string"),
	} {
		ext.AddElement(e)
	}
	f.add(ext, KindType)

	sq := &StructureDefinition{
		URL:            canonical("SimpleQuantity"),
		ID:             "SimpleQuantity",
		Name:           "SimpleQuantity",
		Type:           "Quantity",
		Kind:           "complex-type",
		Derivation:     "constraint",
		BaseDefinition: canonical("Quantity"),
	}
	f.add(sq, KindProfile)

	return f
}

// observationTree returns a fresh working copy of the Observation fixture.
func observationTree(t *testing.T, f *fakeFisher) *StructureDefinition {
	t.Helper()
	sd, err := FromBase("Observation", f)
	if err != nil {
		t.Fatalf("FromBase(Observation) failed: %v", err)
	}
	return sd
}
