package element

import (
	"testing"
)

func TestUnfold(t *testing.T) {
	t.Run("materializes single-type children in order", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)
		code := sd.FindElement("Observation.code")

		added, err := code.Unfold(f)
		if err != nil {
			t.Fatalf("Unfold failed: %v", err)
		}
		if len(added) != 2 {
			t.Fatalf("len(added) = %d; want 2", len(added))
		}

		want := []string{"Observation.code.coding", "Observation.code.text"}
		for i, id := range want {
			if added[i].ID != id {
				t.Errorf("added[%d].ID = %q; want %q", i, added[i].ID, id)
			}
			if sd.FindElement(id) == nil {
				t.Errorf("element %q not inserted into the tree", id)
			}
		}

		// Rebasing keeps paths in sync with ids.
		if added[0].Path != "Observation.code.coding" {
			t.Errorf("added[0].Path = %q; want Observation.code.coding", added[0].Path)
		}

		// Unfolded elements are baselined: nothing enters the differential
		// until one of them is constrained.
		if len(sd.Differential()) != 0 {
			t.Errorf("Differential() = %v; want empty", diffIDs(sd.Differential()))
		}
		idx := sd.indexOf(code)
		if sd.Elements[idx+1] != added[0] || sd.Elements[idx+2] != added[1] {
			t.Error("unfolded children are not directly after their parent")
		}
	})

	t.Run("multi-type elements unfold to nothing", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)
		value := sd.FindElement("Observation.value[x]")

		added, err := value.Unfold(f)
		if err != nil {
			t.Fatalf("Unfold failed: %v", err)
		}
		if len(added) != 0 {
			t.Errorf("len(added) = %d; want 0 for a multi-type element", len(added))
		}
	})

	t.Run("existing children are not duplicated", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)
		code := sd.FindElement("Observation.code")

		if _, err := code.Unfold(f); err != nil {
			t.Fatalf("Unfold failed: %v", err)
		}
		added, err := code.Unfold(f)
		if err != nil {
			t.Fatalf("second Unfold failed: %v", err)
		}
		if len(added) != 0 {
			t.Errorf("second Unfold added %d elements; want 0", len(added))
		}
	})

	t.Run("unknown type fails", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)
		sd.AddElement(el("Observation.mystery", 0, "1", "Mystery"))

		_, err := sd.FindElement("Observation.mystery").Unfold(f)
		if _, ok := err.(*TypeNotFoundError); !ok {
			t.Fatalf("Unfold = %v; want TypeNotFoundError", err)
		}
	})

	t.Run("content reference reuses a subtree in the same tree", func(t *testing.T) {
		f := testFisher(t)
		sd := observationTree(t, f)

		ref := el("Observation.related", 0, "*")
		ref.ContentReference = "#Observation.component"
		sd.AddElement(ref)

		added, err := ref.Unfold(f)
		if err != nil {
			t.Fatalf("Unfold failed: %v", err)
		}
		want := []string{"Observation.related.code", "Observation.related.value[x]"}
		if len(added) != len(want) {
			t.Fatalf("added = %v; want %v", diffIDs(added), want)
		}
		for i, id := range want {
			if added[i].ID != id {
				t.Errorf("added[%d].ID = %q; want %q", i, added[i].ID, id)
			}
		}
	})
}
