package bot

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/internal/shop"
)

// pageCount returns how many browser pages the catalogue spans.
func pageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// clampPage bounds a requested page to [0, pages-1]; out-of-range requests
// (prev on the first page, next on the last) resolve to the nearest edge.
func clampPage(page, pages int) int {
	if page < 0 {
		return 0
	}
	if page >= pages {
		return pages - 1
	}
	return page
}

// pageSlice cuts one page out of the sorted catalogue.
func pageSlice(items []shop.Item, page, pageSize int) []shop.Item {
	start := page * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func renderItemLine(it shop.Item) string {
	return fmt.Sprintf("• *%s* — Buy: %s | Sell: %s",
		format.EscapeMarkdown(format.Title(it.Key)),
		format.Money(it.Buy),
		format.Money(it.Sell),
	)
}

// renderShopPage builds the read-only /shop listing for one page.
func renderShopPage(items []shop.Item, page, pageSize int) (string, [][]keyboard.InlineBtn) {
	pages := pageCount(len(items), pageSize)
	page = clampPage(page, pages)
	slice := pageSlice(items, page, pageSize)

	var b strings.Builder
	fmt.Fprintf(&b, "🛍️ *Shop Items* (Page %d/%d)\n\n", page+1, pages)
	for _, it := range slice {
		b.WriteString(renderItemLine(it))
		b.WriteByte('\n')
	}

	var rows [][]keyboard.InlineBtn
	if nav := navRow(cbShopPage, page, pages); len(nav) > 0 {
		rows = append(rows, nav)
	}
	return b.String(), rows
}

// renderTotalPage builds one page of the selection browser: the listing plus
// a pick button per item, navigation, and the calculate/clear/cancel actions.
func renderTotalPage(items []shop.Item, selected map[string]bool, selectedCount, page, pageSize int) (string, [][]keyboard.InlineBtn) {
	pages := pageCount(len(items), pageSize)
	page = clampPage(page, pages)
	slice := pageSlice(items, page, pageSize)

	var b strings.Builder
	fmt.Fprintf(&b, "🛍️ *Available Shop Items* (Page %d/%d)\n", page+1, pages)
	b.WriteString("Pick items below to include in your total.\n\n")
	for _, it := range slice {
		b.WriteString(renderItemLine(it))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n🧾 Selected: %d item(s)", selectedCount)

	picks := make([]keyboard.InlineBtn, 0, len(slice))
	for idx, it := range slice {
		label := format.Title(it.Key)
		if selected[it.Key] {
			label = "✅ " + label
		}
		picks = append(picks, keyboard.InlineBtn{
			Text:   label,
			Unique: cbTotalPick,
			Data:   pickToken(page, idx, it.Key),
		})
	}

	rows := keyboard.ChunkButtons(picks, 2)
	if nav := navRow(cbTotalPage, page, pages); len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []keyboard.InlineBtn{
		{Text: "✅ Calculate Total", Unique: cbTotalCalc, Data: "go"},
		{Text: "🗑 Clear", Unique: cbTotalClear, Data: "clear"},
	})
	rows = append(rows, []keyboard.InlineBtn{
		{Text: "❌ Close", Unique: cbTotalCancel, Data: "close"},
	})
	return b.String(), rows
}

// pickToken encodes a selection pick as "<page>:<index>:<key hash>". The
// hash binds the button to the key it was rendered for, so a catalogue edit
// that shifts indices cannot make a stale button stage a different item.
// Keys themselves can exceed Telegram's 64-byte callback data limit, which
// is why the payload carries a digest instead of the key.
func pickToken(page, idx int, key string) string {
	return fmt.Sprintf("%d:%d:%s", page, idx, keyHash(key))
}

func keyHash(key string) string {
	h := fnv.New32a()
	h.Write([]byte(key))
	return fmt.Sprintf("%08x", h.Sum32())
}

// resolvePick maps a pick payload back to the item the button was rendered
// for. ok is false when the payload is malformed or the catalogue changed
// underneath the button; the returned page is still usable for a refresh.
func resolvePick(items []shop.Item, pageSize int, payload string) (shop.Item, int, bool) {
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 {
		return shop.Item{}, 0, false
	}
	page, errPage := strconv.Atoi(parts[0])
	idx, errIdx := strconv.Atoi(parts[1])
	if errPage != nil || errIdx != nil {
		return shop.Item{}, 0, false
	}
	page = clampPage(page, pageCount(len(items), pageSize))
	slice := pageSlice(items, page, pageSize)
	if idx < 0 || idx >= len(slice) {
		return shop.Item{}, page, false
	}
	if keyHash(slice[idx].Key) != parts[2] {
		return shop.Item{}, page, false
	}
	return slice[idx], page, true
}

// navRow emits prev/next buttons, omitting the ones that would be no-ops at
// the edges of the page range.
func navRow(unique string, page, pages int) []keyboard.InlineBtn {
	var row []keyboard.InlineBtn
	if page > 0 {
		row = append(row, keyboard.InlineBtn{
			Text:   "⬅️ Prev Page",
			Unique: unique,
			Data:   strconv.Itoa(page - 1),
		})
	}
	if page < pages-1 {
		row = append(row, keyboard.InlineBtn{
			Text:   "➡️ Next Page",
			Unique: unique,
			Data:   strconv.Itoa(page + 1),
		})
	}
	return row
}
