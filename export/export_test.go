package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofhir/fhir/r4"
	"github.com/shopspring/decimal"

	"github.com/FHIR/sushi-sub009/element"
)

func newTree(t *testing.T) *element.StructureDefinition {
	t.Helper()
	sd := &element.StructureDefinition{
		URL:            "http://example.org/fhir/StructureDefinition/blood-pressure",
		ID:             "blood-pressure",
		Name:           "BloodPressureProfile",
		Type:           "Observation",
		Kind:           "resource",
		Status:         "active",
		BaseDefinition: "http://hl7.org/fhir/StructureDefinition/Observation",
		Derivation:     "constraint",
	}
	for _, e := range []struct {
		id        string
		min       int
		max       string
		typeCodes []string
	}{
		{"Observation", 0, "*", nil},
		{"Observation.status", 1, "1", []string{"code"}},
		{"Observation.component", 0, "*", []string{"BackboneElement"}},
	} {
		el := element.NewElement(e.id)
		m := e.min
		el.Min = &m
		el.Max = e.max
		for _, code := range e.typeCodes {
			el.Types = append(el.Types, element.Type{Code: code})
		}
		sd.AddElement(el)
	}
	sd.CaptureOriginals()
	return sd
}

func TestExportNil(t *testing.T) {
	if got := New().Export(nil); got != nil {
		t.Errorf("Export(nil) = %v; want nil", got)
	}
}

func TestExportSnapshotAndDifferential(t *testing.T) {
	sd := newTree(t)

	status := sd.FindElement("Observation.status")
	if err := status.ApplyFlags(true, false, false, ""); err != nil {
		t.Fatal(err)
	}
	if err := status.AssignValue(element.CodeValue(element.Code{Code: "final"}), true); err != nil {
		t.Fatal(err)
	}

	out := New().Export(sd)
	if got := *out.Url; got != sd.URL {
		t.Errorf("Url = %q; want %q", got, sd.URL)
	}
	if out.Status == nil || *out.Status != r4.PublicationStatus("active") {
		t.Errorf("Status = %v; want active", out.Status)
	}
	if out.Derivation == nil || *out.Derivation != r4.TypeDerivationRule("constraint") {
		t.Errorf("Derivation = %v; want constraint", out.Derivation)
	}

	if out.Snapshot == nil || len(out.Snapshot.Element) != 3 {
		t.Fatalf("Snapshot = %v; want all 3 elements", out.Snapshot)
	}
	if out.Differential == nil || len(out.Differential.Element) != 1 {
		t.Fatalf("Differential = %v; want only the constrained element", out.Differential)
	}

	diff := out.Differential.Element[0]
	if *diff.Id != "Observation.status" {
		t.Errorf("diff Id = %q", *diff.Id)
	}
	if diff.MustSupport == nil || !*diff.MustSupport {
		t.Error("diff lost the must-support flag")
	}
	if diff.FixedCode == nil || *diff.FixedCode != "final" {
		t.Errorf("diff FixedCode = %v; want final", diff.FixedCode)
	}
	// Unchanged fields stay off the differential.
	if diff.Min != nil || diff.Max != nil {
		t.Errorf("diff carries unchanged cardinality: min %v max %v", diff.Min, diff.Max)
	}
}

func TestExportValueSlots(t *testing.T) {
	x := New()

	t.Run("coded value with a system becomes a Coding", func(t *testing.T) {
		sd := newTree(t)
		status := sd.FindElement("Observation.status")
		v := element.CodeValue(element.Code{System: "http://example.org/cs", Code: "final"})
		if err := status.AssignValue(v, false); err != nil {
			t.Fatal(err)
		}

		diff := x.Export(sd).Differential.Element[0]
		if diff.PatternCode != nil {
			t.Error("system-qualified code exported as a bare code")
		}
		if diff.PatternCoding == nil || *diff.PatternCoding.System != "http://example.org/cs" ||
			*diff.PatternCoding.Code != "final" {
			t.Errorf("PatternCoding = %+v; want the full coding", diff.PatternCoding)
		}
	})

	t.Run("reference and ratio fill their slots", func(t *testing.T) {
		sd := newTree(t)

		status := sd.FindElement("Observation.status")
		ref := element.ReferenceValue(element.Reference{
			Reference: "Patient/example",
			Display:   "Example Patient",
		})
		status.Fixed = &ref

		component := sd.FindElement("Observation.component")
		num := decimal.NewFromInt(250)
		den := decimal.NewFromInt(5)
		ratio := element.RatioValue(element.Ratio{
			Numerator:   &element.Quantity{Value: &num, Unit: "mg"},
			Denominator: &element.Quantity{Value: &den, Unit: "mL"},
		})
		component.Pattern = &ratio

		diff := x.Export(sd).Differential.Element
		if len(diff) != 2 {
			t.Fatalf("len(diff) = %d; want 2", len(diff))
		}
		if diff[0].FixedReference == nil ||
			*diff[0].FixedReference.Reference != "Patient/example" ||
			*diff[0].FixedReference.Display != "Example Patient" {
			t.Errorf("FixedReference = %+v", diff[0].FixedReference)
		}
		pr := diff[1].PatternRatio
		if pr == nil || pr.Numerator == nil || pr.Denominator == nil {
			t.Fatalf("PatternRatio = %+v; want both parts", pr)
		}
		if *pr.Numerator.Value != 250 || *pr.Numerator.Unit != "mg" {
			t.Errorf("Numerator = %+v; want 250 mg", pr.Numerator)
		}
		if *pr.Denominator.Value != 5 || *pr.Denominator.Unit != "mL" {
			t.Errorf("Denominator = %+v; want 5 mL", pr.Denominator)
		}
	})

	t.Run("slicing round-trips", func(t *testing.T) {
		sd := newTree(t)
		component := sd.FindElement("Observation.component")
		if err := component.SliceIt("pattern", "code", true, element.SlicingOpen); err != nil {
			t.Fatal(err)
		}

		diff := x.Export(sd).Differential.Element[0]
		if diff.Slicing == nil || diff.Slicing.Ordered == nil || !*diff.Slicing.Ordered {
			t.Fatalf("Slicing = %+v; want ordered", diff.Slicing)
		}
		if *diff.Slicing.Rules != r4.SlicingRules("open") {
			t.Errorf("Rules = %v; want open", *diff.Slicing.Rules)
		}
		d := diff.Slicing.Discriminator[0]
		if *d.Type != r4.DiscriminatorType("pattern") || *d.Path != "code" {
			t.Errorf("Discriminator = %v %v; want pattern/code", *d.Type, *d.Path)
		}
	})
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sd := New().Export(newTree(t))

	path, err := New().WriteFile(dir, sd)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if filepath.Base(path) != "StructureDefinition-blood-pressure.json" {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"blood-pressure"`, `"Observation.status"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("output missing %q", want)
		}
	}

	if _, err := New().WriteFile(dir, &r4.StructureDefinition{}); err == nil {
		t.Error("WriteFile accepted a definition without an id")
	}
}
