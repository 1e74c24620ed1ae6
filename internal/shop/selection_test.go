package shop

import "testing"

func TestSelectionAddManyNormalizesAndDedupes(t *testing.T) {
	sel := NewSelectionStore()

	added := sel.AddMany(1, []string{" Sword ", "shield", "SWORD", ""})
	if len(added) != 2 {
		t.Fatalf("added = %v, want 2 keys", added)
	}
	if added[0] != "sword" || added[1] != "shield" {
		t.Fatalf("added = %v", added)
	}

	// re-adding is a no-op
	if again := sel.AddMany(1, []string{"sword"}); len(again) != 0 {
		t.Fatalf("re-add returned %v, want none", again)
	}
	if got := sel.Count(1); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
}

func TestSelectionOrderAndIsolation(t *testing.T) {
	sel := NewSelectionStore()
	sel.AddMany(1, []string{"c", "a", "b"})
	sel.AddMany(2, []string{"x"})

	got := sel.Get(1)
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Get = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Get = %v, want insertion order %v", got, want)
		}
	}

	if sel.Contains(2, "a") {
		t.Fatal("user 2 sees user 1's selection")
	}
	if !sel.Contains(2, "X") {
		t.Fatal("Contains should normalize the key")
	}
}

func TestSelectionClear(t *testing.T) {
	sel := NewSelectionStore()
	sel.AddMany(1, []string{"a", "b"})
	sel.Clear(1)

	if sel.Count(1) != 0 {
		t.Fatalf("Count after Clear = %d, want 0", sel.Count(1))
	}
	if got := sel.Get(1); got != nil {
		t.Fatalf("Get after Clear = %v, want nil", got)
	}
}
