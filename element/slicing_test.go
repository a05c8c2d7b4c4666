package element

import (
	"errors"
	"testing"
)

func TestSliceIt(t *testing.T) {
	t.Run("requires a repeating or choice element", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)

		status := sd.FindElement("Observation.status")
		err := status.SliceIt("value", "code", false, SlicingOpen)
		var invalid *InvalidElementForSlicingError
		if !errors.As(err, &invalid) {
			t.Fatalf("SliceIt on 1..1 element = %v; want InvalidElementForSlicingError", err)
		}

		// Choice elements are sliceable regardless of cardinality.
		value := sd.FindElement("Observation.value[x]")
		if err := value.SliceIt("type", "$this", false, SlicingOpen); err != nil {
			t.Errorf("SliceIt on choice element failed: %v", err)
		}
	})

	t.Run("re-slicing may only narrow", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)
		component := sd.FindElement("Observation.component")

		if err := component.SliceIt("value", "code", true, SlicingOpenAtEnd); err != nil {
			t.Fatalf("SliceIt failed: %v", err)
		}

		var redef *SlicingRedefinitionError
		if err := component.SliceIt("value", "code", true, SlicingOpen); !errors.As(err, &redef) {
			t.Errorf("loosening rules = %v; want SlicingRedefinitionError", err)
		}
		if err := component.SliceIt("value", "code", false, SlicingClosed); !errors.As(err, &redef) {
			t.Errorf("clearing ordered = %v; want SlicingRedefinitionError", err)
		}

		if err := component.SliceIt("pattern", "value[x]", true, SlicingClosed); err != nil {
			t.Fatalf("narrowing re-slice failed: %v", err)
		}
		if component.Slicing.Rules != SlicingClosed || !component.Slicing.Ordered {
			t.Errorf("slicing = %+v; want closed, ordered", component.Slicing)
		}
		if len(component.Slicing.Discriminator) != 2 {
			t.Errorf("len(Discriminator) = %d; want 2 (new discriminator appended)", len(component.Slicing.Discriminator))
		}
	})
}

func TestAddSlice(t *testing.T) {
	t.Run("inserts slices in declaration order after the subtree", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)
		component := sd.FindElement("Observation.component")

		if err := component.SliceIt("value", "code", false, SlicingOpen); err != nil {
			t.Fatalf("SliceIt failed: %v", err)
		}
		systolic, err := component.AddSlice("SystolicBP", nil)
		if err != nil {
			t.Fatalf("AddSlice(SystolicBP) failed: %v", err)
		}
		diastolic, err := component.AddSlice("DiastolicBP", nil)
		if err != nil {
			t.Fatalf("AddSlice(DiastolicBP) failed: %v", err)
		}

		if systolic.ID != "Observation.component:SystolicBP" || systolic.Path != "Observation.component" {
			t.Errorf("slice id/path = %q/%q; want sliced id with base path", systolic.ID, systolic.Path)
		}
		if systolic.MinValue() != 0 || systolic.Max != component.Max {
			t.Errorf("slice cardinality = %d..%s; want 0..%s", systolic.MinValue(), systolic.Max, component.Max)
		}

		// Both slices come after component's children, in declaration order.
		idxChild := sd.indexOf(sd.FindElement("Observation.component.value[x]"))
		idxSys := sd.indexOf(systolic)
		idxDia := sd.indexOf(diastolic)
		if !(idxChild < idxSys && idxSys < idxDia) {
			t.Errorf("element order = child:%d systolic:%d diastolic:%d; want child < systolic < diastolic",
				idxChild, idxSys, idxDia)
		}
	})

	t.Run("rejects duplicates and unsliced targets", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)
		component := sd.FindElement("Observation.component")

		_, err := component.AddSlice("SystolicBP", nil)
		var missing *MissingSlicingError
		if !errors.As(err, &missing) {
			t.Fatalf("AddSlice without slicing = %v; want MissingSlicingError", err)
		}

		if err := component.SliceIt("value", "code", false, SlicingOpen); err != nil {
			t.Fatalf("SliceIt failed: %v", err)
		}
		if _, err := component.AddSlice("SystolicBP", nil); err != nil {
			t.Fatalf("AddSlice failed: %v", err)
		}
		_, err = component.AddSlice("SystolicBP", nil)
		var dup *DuplicateSliceError
		if !errors.As(err, &dup) {
			t.Fatalf("duplicate AddSlice = %v; want DuplicateSliceError", err)
		}
		if dup.Name != "SystolicBP" {
			t.Errorf("Name = %q; want %q", dup.Name, "SystolicBP")
		}
	})

	t.Run("pins a choice slice to one type", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)
		value := sd.FindElement("Observation.value[x]")

		if err := value.SliceIt("type", "$this", false, SlicingOpen); err != nil {
			t.Fatalf("SliceIt failed: %v", err)
		}
		slice, err := value.AddSlice("valueQuantity", &Type{Code: "Quantity"})
		if err != nil {
			t.Fatalf("AddSlice failed: %v", err)
		}
		if len(slice.Types) != 1 || slice.Types[0].Code != "Quantity" {
			t.Errorf("slice types = %v; want [Quantity]", slice.Types)
		}
	})
}

func TestSlices(t *testing.T) {
	f := testFisher(t)
	sd := observationTree(t, f)
	component := sd.FindElement("Observation.component")

	if err := component.SliceIt("value", "code", false, SlicingOpen); err != nil {
		t.Fatalf("SliceIt failed: %v", err)
	}
	if _, err := component.AddSlice("A", nil); err != nil {
		t.Fatalf("AddSlice failed: %v", err)
	}
	if _, err := component.AddSlice("B", nil); err != nil {
		t.Fatalf("AddSlice failed: %v", err)
	}

	slices := component.Slices()
	if len(slices) != 2 || slices[0].SliceName != "A" || slices[1].SliceName != "B" {
		t.Fatalf("Slices() = %v; want [A B] in declaration order", sliceNames(slices))
	}
	if root := slices[0].SlicedRoot(); root != component {
		t.Errorf("SlicedRoot() = %v; want the component element", root)
	}
}

func sliceNames(slices []*Element) []string {
	names := make([]string, 0, len(slices))
	for _, s := range slices {
		names = append(names, s.SliceName)
	}
	return names
}
