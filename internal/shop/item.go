package shop

import "strings"

// Item is a single catalogue entry. Keys are normalized to lowercase;
// one entry exists per normalized key.
type Item struct {
	Key  string
	Buy  float64
	Sell float64
}

// NormalizeKey lowercases and trims an item key so lookups are
// case-insensitive everywhere.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
