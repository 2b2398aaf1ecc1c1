package utils_test

import (
	"testing"

	"minic.dev/compiler/pkg/utils"
)

func TestOrderedMap(t *testing.T) {
	t.Run("preserves insertion order", func(t *testing.T) {
		om := utils.OrderedMap[string, int]{}
		om.Set("b", 2)
		om.Set("a", 1)
		om.Set("c", 3)

		got := om.Entries()
		want := []int{2, 1, 3}
		if len(got) != len(want) {
			t.Fatalf("expected %d entries, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("entry %d: expected %d, got %d", i, want[i], got[i])
			}
		}
	})

	t.Run("overwrite keeps position", func(t *testing.T) {
		om := utils.OrderedMap[string, int]{}
		om.Set("a", 1)
		om.Set("b", 2)
		om.Set("a", 100)

		if got := om.Entries(); got[0] != 100 || got[1] != 2 {
			t.Errorf("expected overwrite in place, got %+v", got)
		}
		if om.Size() != 2 {
			t.Errorf("expected size 2, got %d", om.Size())
		}
	})

	t.Run("missing key", func(t *testing.T) {
		om := utils.OrderedMap[string, int]{}
		if _, found := om.Get("missing"); found {
			t.Errorf("expected 'missing' to be absent")
		}
	})

	t.Run("from list", func(t *testing.T) {
		om := utils.NewOrderedMapFromList([]utils.MapEntry[string, int]{
			{Key: "x", Value: 10},
			{Key: "y", Value: 20},
		})
		if v, found := om.Get("x"); !found || v != 10 {
			t.Errorf("expected x=10, got %d (found=%v)", v, found)
		}
	})
}
