package bot

import (
	"fmt"
	"strings"
	"testing"

	"github.com/m3rciful/shopbot/internal/shop"
)

func makeItems(n int) []shop.Item {
	items := make([]shop.Item, n)
	for i := range items {
		items[i] = shop.Item{Key: fmt.Sprintf("item %02d", i), Buy: float64(i + 1), Sell: float64(i)}
	}
	return items
}

func TestPageCount(t *testing.T) {
	cases := []struct {
		total, pageSize, want int
	}{
		{0, 25, 1},
		{1, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{50, 25, 2},
		{51, 25, 3},
	}
	for _, tc := range cases {
		if got := pageCount(tc.total, tc.pageSize); got != tc.want {
			t.Errorf("pageCount(%d, %d) = %d, want %d", tc.total, tc.pageSize, got, tc.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, pages, want int
	}{
		{-1, 3, 0},
		{0, 3, 0},
		{2, 3, 2},
		{3, 3, 2},
		{99, 3, 2},
	}
	for _, tc := range cases {
		if got := clampPage(tc.page, tc.pages); got != tc.want {
			t.Errorf("clampPage(%d, %d) = %d, want %d", tc.page, tc.pages, got, tc.want)
		}
	}
}

func TestPageSlice(t *testing.T) {
	items := makeItems(30)

	first := pageSlice(items, 0, 25)
	if len(first) != 25 || first[0].Key != "item 00" {
		t.Fatalf("first page len %d start %q", len(first), first[0].Key)
	}
	second := pageSlice(items, 1, 25)
	if len(second) != 5 || second[0].Key != "item 25" {
		t.Fatalf("second page len %d start %q", len(second), second[0].Key)
	}
	if got := pageSlice(items, 2, 25); got != nil {
		t.Fatalf("out of range page = %v, want nil", got)
	}
}

func TestRenderShopPageNav(t *testing.T) {
	items := makeItems(30)

	text, rows := renderShopPage(items, 0, 25)
	if !strings.Contains(text, "Page 1/2") {
		t.Fatalf("first page header missing: %q", text)
	}
	if len(rows) != 1 || len(rows[0]) != 1 || rows[0][0].Text != "➡️ Next Page" {
		t.Fatalf("first page nav = %+v, want only Next", rows)
	}
	if rows[0][0].Data != "1" {
		t.Fatalf("next payload = %q, want 1", rows[0][0].Data)
	}

	text, rows = renderShopPage(items, 1, 25)
	if !strings.Contains(text, "Page 2/2") {
		t.Fatalf("second page header missing: %q", text)
	}
	if len(rows) != 1 || len(rows[0]) != 1 || rows[0][0].Text != "⬅️ Prev Page" {
		t.Fatalf("last page nav = %+v, want only Prev", rows)
	}

	// requesting past the edge resolves to the edge instead of erroring
	text, _ = renderShopPage(items, 9, 25)
	if !strings.Contains(text, "Page 2/2") {
		t.Fatalf("overflow page rendered %q, want clamped last page", text)
	}
}

func TestRenderShopPageSinglePage(t *testing.T) {
	_, rows := renderShopPage(makeItems(3), 0, 25)
	if len(rows) != 0 {
		t.Fatalf("single page should carry no nav, got %+v", rows)
	}
}

func TestRenderTotalPage(t *testing.T) {
	items := makeItems(30)
	selected := map[string]bool{"item 00": true}

	text, rows := renderTotalPage(items, selected, 1, 0, 25)
	if !strings.Contains(text, "Selected: 1 item(s)") {
		t.Fatalf("selection count missing: %q", text)
	}

	// 25 picks chunked in pairs, then nav, then two action rows
	if len(rows) != 13+1+2 {
		t.Fatalf("rows = %d, want 16", len(rows))
	}
	first := rows[0][0]
	if !strings.HasPrefix(first.Text, "✅ ") {
		t.Fatalf("selected item not marked: %q", first.Text)
	}
	if want := pickToken(0, 0, "item 00"); first.Data != want {
		t.Fatalf("pick payload = %q, want %q", first.Data, want)
	}
	if second := rows[0][1]; strings.HasPrefix(second.Text, "✅ ") {
		t.Fatalf("unselected item marked: %q", second.Text)
	}

	actions := rows[len(rows)-2]
	if actions[0].Unique != cbTotalCalc || actions[1].Unique != cbTotalClear {
		t.Fatalf("action row = %+v", actions)
	}
	if rows[len(rows)-1][0].Unique != cbTotalCancel {
		t.Fatalf("close row = %+v", rows[len(rows)-1])
	}
}

func TestResolvePick(t *testing.T) {
	items := makeItems(30)

	item, page, ok := resolvePick(items, 25, pickToken(1, 2, "item 27"))
	if !ok || page != 1 || item.Key != "item 27" {
		t.Fatalf("resolvePick = %+v, page %d, ok %v", item, page, ok)
	}

	for _, payload := range []string{"", "1", "1:2", "x:2:abc", "1:y:abc"} {
		if _, _, ok := resolvePick(items, 25, payload); ok {
			t.Errorf("resolvePick accepted malformed payload %q", payload)
		}
	}

	if _, _, ok := resolvePick(items, 25, pickToken(1, 99, "item 27")); ok {
		t.Error("resolvePick accepted out-of-range index")
	}
}

func TestResolvePickDetectsShiftedCatalogue(t *testing.T) {
	items := makeItems(5)
	payload := pickToken(0, 1, items[1].Key)

	// removing an earlier item shifts every index left
	remaining := append([]shop.Item(nil), items[:1]...)
	remaining = append(remaining, items[2:]...)

	if _, _, ok := resolvePick(remaining, 25, payload); ok {
		t.Fatal("resolvePick staged a different item after the catalogue shifted")
	}

	// the unchanged catalogue still resolves
	if item, _, ok := resolvePick(items, 25, payload); !ok || item.Key != items[1].Key {
		t.Fatalf("resolvePick on unchanged catalogue = %+v, ok %v", item, ok)
	}
}
