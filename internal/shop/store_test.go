package shop

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "shop.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpenCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "{}\n" {
		t.Fatalf("new file = %q, want %q", data, "{}\n")
	}
}

func TestAddGetRemove(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	if err := s.Add(ctx, "  Iron Sword ", 100, 40); err != nil {
		t.Fatalf("Add: %v", err)
	}

	item, ok := s.Get("IRON SWORD")
	if !ok {
		t.Fatal("Get after Add: not found")
	}
	if item.Key != "iron sword" || item.Buy != 100 || item.Sell != 40 {
		t.Fatalf("Get = %+v", item)
	}

	if err := s.Add(ctx, "iron sword", 1, 1); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Add err = %v, want ErrAlreadyExists", err)
	}
	if err := s.Add(ctx, "cursed ring", -5, 0); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("negative price Add err = %v, want ErrInvalidPrice", err)
	}

	if err := s.Remove(ctx, "Iron Sword"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, "iron sword"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Remove err = %v, want ErrNotFound", err)
	}
	if _, ok := s.Get("iron sword"); ok {
		t.Fatal("Get after Remove: still present")
	}
}

func TestOpenRepairsLegacyEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.json")
	legacy := `{"Sword": 100, "shield": {"buy": 5}, "potion": {"buy": 3, "sell": 1}}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cases := []struct {
		key       string
		buy, sell float64
	}{
		{"sword", 100, 0},
		{"shield", 5, 0},
		{"potion", 3, 1},
	}
	for _, tc := range cases {
		item, ok := s.Get(tc.key)
		if !ok {
			t.Fatalf("Get(%q): not found", tc.key)
		}
		if item.Buy != tc.buy || item.Sell != tc.sell {
			t.Errorf("Get(%q) = buy %v sell %v, want buy %v sell %v",
				tc.key, item.Buy, item.Sell, tc.buy, tc.sell)
		}
	}

	// repaired form is persisted; a second load must not rewrite the file
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if _, err := Open(path); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("file changed on clean reload:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestOpenResetsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "{}\n" {
		t.Fatalf("reset file = %q, want %q", data, "{}\n")
	}
}

func TestItemsSorted(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	for _, key := range []string{"zeta", "alpha", "mid"} {
		if err := s.Add(ctx, key, 1, 1); err != nil {
			t.Fatalf("Add(%q): %v", key, err)
		}
	}
	items := s.Items()
	want := []string{"alpha", "mid", "zeta"}
	if len(items) != len(want) {
		t.Fatalf("Items len = %d, want %d", len(items), len(want))
	}
	for i, key := range want {
		if items[i].Key != key {
			t.Errorf("Items[%d] = %q, want %q", i, items[i].Key, key)
		}
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	for _, key := range []string{"iron sword", "iron shield", "wooden bow"} {
		if err := s.Add(ctx, key, 1, 1); err != nil {
			t.Fatalf("Add(%q): %v", key, err)
		}
	}

	if _, err := s.Search("   "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("blank Search err = %v, want ErrEmptyQuery", err)
	}

	matches, err := s.Search("IRON")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Search matches = %d, want 2", len(matches))
	}
	if matches[0].Key != "iron shield" || matches[1].Key != "iron sword" {
		t.Fatalf("Search order = %q, %q", matches[0].Key, matches[1].Key)
	}

	none, err := s.Search("axe")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Search(axe) = %d matches, want 0", len(none))
	}
}
