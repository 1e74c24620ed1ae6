package shop

import (
	"strings"
	"testing"
)

func mapLookup(items map[string]Item) Lookup {
	return func(key string) (Item, bool) {
		it, ok := items[key]
		return it, ok
	}
}

func TestSummarize(t *testing.T) {
	lookup := mapLookup(map[string]Item{
		"apple": {Key: "apple", Buy: 2, Sell: 1},
		"pear":  {Key: "pear", Buy: 3, Sell: 2},
	})

	sum := Summarize([]Pair{
		{Key: "apple", Quantity: 3},
		{Key: "pear", Quantity: 0},
	}, lookup)

	if sum.TotalBuy != 6 || sum.TotalSell != 3 {
		t.Fatalf("totals = buy %v sell %v, want buy 6 sell 3", sum.TotalBuy, sum.TotalSell)
	}
	if len(sum.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(sum.Lines))
	}
	want := "• Apple × 3 → Buy: $6.00 | Sell: $3.00"
	if sum.Lines[0] != want {
		t.Fatalf("line = %q, want %q", sum.Lines[0], want)
	}
	if len(sum.NotFound) != 0 {
		t.Fatalf("NotFound = %v, want none", sum.NotFound)
	}
}

func TestSummarizeSkipsMissingKeys(t *testing.T) {
	lookup := mapLookup(map[string]Item{
		"apple": {Key: "apple", Buy: 2, Sell: 1},
	})

	sum := Summarize([]Pair{
		{Key: "apple", Quantity: 1},
		{Key: "ghost", Quantity: 5},
	}, lookup)

	if sum.TotalBuy != 2 || sum.TotalSell != 1 {
		t.Fatalf("totals = buy %v sell %v; missing key must contribute nothing", sum.TotalBuy, sum.TotalSell)
	}
	if len(sum.NotFound) != 1 || sum.NotFound[0] != "ghost" {
		t.Fatalf("NotFound = %v, want [ghost]", sum.NotFound)
	}
}

func TestTruncateLines(t *testing.T) {
	lines := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}

	full := truncateLines(lines, 1000)
	if strings.Contains(full, truncationMarker) {
		t.Fatal("short breakdown must not be truncated")
	}

	cut := truncateLines(lines, 90)
	if !strings.HasSuffix(cut, truncationMarker) {
		t.Fatalf("truncated text must end with marker, got %q", cut)
	}
	if len(cut) > 90 {
		t.Fatalf("truncated len = %d, want <= 90", len(cut))
	}
	// cut happens on a line boundary
	if strings.Contains(cut, "b") {
		t.Fatalf("partial line leaked into %q", cut)
	}
}
