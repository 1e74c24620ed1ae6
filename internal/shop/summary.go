package shop

import (
	"fmt"
	"strings"

	"github.com/m3rciful/shopbot/core/telegram/format"
)

// Pair couples an item key with a collected quantity.
type Pair struct {
	Key      string
	Quantity float64
}

// Summary is the final result of a total calculation.
type Summary struct {
	TotalBuy  float64
	TotalSell float64
	Lines     []string
	// NotFound lists keys that were selected but no longer exist in the
	// catalogue; they contribute nothing to the totals.
	NotFound []string
}

// BreakdownLimit bounds the rendered breakdown text. Telegram messages cap
// at 4096 characters and the summary carries totals below the breakdown.
const BreakdownLimit = 3500

const truncationMarker = "… (breakdown truncated)"

// Lookup resolves an item key against the current catalogue.
type Lookup func(key string) (Item, bool)

// Summarize computes total buy/sell value for the collected pairs using
// prices looked up now, not at selection time. Keys missing from the
// catalogue are skipped and reported via NotFound instead of failing.
func Summarize(pairs []Pair, lookup Lookup) Summary {
	var sum Summary
	for _, p := range pairs {
		item, ok := lookup(p.Key)
		if !ok {
			sum.NotFound = append(sum.NotFound, p.Key)
			continue
		}
		buyVal := item.Buy * p.Quantity
		sellVal := item.Sell * p.Quantity
		sum.TotalBuy += buyVal
		sum.TotalSell += sellVal
		sum.Lines = append(sum.Lines, fmt.Sprintf("• %s × %s → Buy: %s | Sell: %s",
			format.Title(item.Key),
			format.Quantity(p.Quantity),
			format.Money(buyVal),
			format.Money(sellVal),
		))
	}
	return sum
}

// Breakdown joins the per-item lines, truncating at BreakdownLimit with an
// explicit marker rather than dropping text silently.
func (s Summary) Breakdown() string {
	return truncateLines(s.Lines, BreakdownLimit)
}

func truncateLines(lines []string, limit int) string {
	text := strings.Join(lines, "\n")
	if len(text) <= limit {
		return text
	}
	cut := limit - len(truncationMarker) - 1
	if cut < 0 {
		cut = 0
	}
	// cut on a line boundary where possible
	if idx := strings.LastIndexByte(text[:cut], '\n'); idx > 0 {
		cut = idx
	}
	return text[:cut] + "\n" + truncationMarker
}
