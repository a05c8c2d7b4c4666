package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/FHIR/sushi-sub009/element"
	"github.com/FHIR/sushi-sub009/fisher"
)

const observationJSON = `{
	"resourceType": "StructureDefinition",
	"id": "Observation",
	"url": "http://hl7.org/fhir/StructureDefinition/Observation",
	"name": "Observation",
	"status": "active",
	"kind": "resource",
	"abstract": false,
	"type": "Observation",
	"baseDefinition": "http://hl7.org/fhir/StructureDefinition/DomainResource",
	"derivation": "specialization",
	"snapshot": {
		"element": [
			{"id": "Observation", "path": "Observation", "min": 0, "max": "*"},
			{"id": "Observation.status", "path": "Observation.status", "min": 1, "max": "1",
			 "type": [{"code": "code"}]}
		]
	}
}`

const patientProfileJSON = `{
	"resourceType": "StructureDefinition",
	"id": "us-patient",
	"url": "http://example.org/StructureDefinition/us-patient",
	"name": "USPatient",
	"status": "draft",
	"kind": "resource",
	"type": "Patient",
	"baseDefinition": "http://hl7.org/fhir/StructureDefinition/Patient",
	"derivation": "constraint",
	"differential": {
		"element": [
			{"id": "Patient.name", "path": "Patient.name", "min": 1}
		]
	}
}`

func newLoader(t *testing.T) *Loader {
	t.Helper()
	return New(fisher.NewMemoryStore(zerolog.Nop()), zerolog.Nop())
}

func TestLoadFromJSONSingle(t *testing.T) {
	l := newLoader(t)

	count, err := l.LoadFromJSON([]byte(observationJSON))
	if err != nil {
		t.Fatalf("LoadFromJSON failed: %v", err)
	}
	if count != 1 || l.Store().Count() != 1 {
		t.Errorf("count = %d, stored = %d; want 1, 1", count, l.Store().Count())
	}

	sd, err := l.Store().FishForStructureDefinition("Observation")
	if err != nil {
		t.Fatalf("stored definition not fishable: %v", err)
	}
	if sd.Type != "Observation" || len(sd.Elements) != 2 {
		t.Errorf("sd = type %q, %d elements; want Observation, 2", sd.Type, len(sd.Elements))
	}
}

func TestLoadFromJSONBundle(t *testing.T) {
	l := newLoader(t)
	bundle := `{
		"resourceType": "Bundle",
		"type": "collection",
		"entry": [
			{"resource": ` + observationJSON + `},
			{"resource": {"resourceType": "ValueSet", "id": "skipped"}},
			{"resource": ` + patientProfileJSON + `}
		]
	}`

	count, err := l.LoadFromJSON([]byte(bundle))
	if err != nil {
		t.Fatalf("LoadFromJSON failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d; want 2 (non-StructureDefinition entries skipped)", count)
	}

	md, err := l.Store().FishForMetadata("USPatient")
	if err != nil {
		t.Fatalf("profile not fishable: %v", err)
	}
	if md.Kind != element.KindProfile || md.ResourceType != "Patient" {
		t.Errorf("metadata = kind %v, resourceType %q; want profile/Patient", md.Kind, md.ResourceType)
	}
}

func TestLoadFromJSONErrors(t *testing.T) {
	l := newLoader(t)

	if _, err := l.LoadFromJSON([]byte(`{"resourceType": "Patient"}`)); err == nil ||
		!strings.Contains(err.Error(), "unsupported resourceType") {
		t.Errorf("err = %v; want unsupported resourceType", err)
	}
	if _, err := l.LoadFromJSON([]byte(`{"id": "no-type"}`)); err == nil {
		t.Error("missing resourceType was accepted")
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("observation.json", observationJSON)
	write("us-patient.json", patientProfileJSON)
	write("notes.txt", "not json")
	write("broken.json", "{")

	l := newLoader(t)
	count, err := l.LoadFromDirectory(dir)
	if err != nil {
		t.Fatalf("LoadFromDirectory failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d; want 2 (broken and non-json files skipped)", count)
	}

	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "obs2.json"),
		[]byte(strings.ReplaceAll(observationJSON, "Observation", "Observation2")), 0o644); err != nil {
		t.Fatal(err)
	}

	l2 := newLoader(t)
	count, err = l2.LoadAllFromDirectory(dir)
	if err != nil {
		t.Fatalf("LoadAllFromDirectory failed: %v", err)
	}
	if count != 3 {
		t.Errorf("recursive count = %d; want 3", count)
	}
}

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name string
		sd   element.StructureDefinition
		want element.ArtifactKind
	}{
		{"constraint on a resource", element.StructureDefinition{Derivation: "constraint", Type: "Patient"}, element.KindProfile},
		{"constraint on Extension", element.StructureDefinition{Derivation: "constraint", Type: "Extension"}, element.KindExtension},
		{"resource", element.StructureDefinition{Kind: "resource"}, element.KindResource},
		{"logical", element.StructureDefinition{Kind: "logical"}, element.KindLogicalModel},
		{"complex type", element.StructureDefinition{Kind: "complex-type"}, element.KindType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyKind(&tc.sd); got != tc.want {
				t.Errorf("classifyKind = %v; want %v", got, tc.want)
			}
		})
	}
}
