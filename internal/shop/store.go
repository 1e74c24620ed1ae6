package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/shopbot/core/logger"
	"log/slog"
)

// prices is the persisted shape of a catalogue entry.
type prices struct {
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}

// Store owns the item -> {buy, sell} mapping backed by a single JSON file.
// The file is the only shared mutable resource in the process; writes assume
// a single writer (one process) and are last-writer-wins, which is accepted
// for this bot rather than guarded with transactions.
type Store struct {
	mu    sync.RWMutex
	path  string
	items map[string]prices
}

// Open loads the catalogue from path. A missing or corrupt file is replaced
// with an empty catalogue which is persisted immediately. Malformed entries
// (a bare number, or an object missing a field) are repaired on load, and the
// repaired form is written back so the file never stays malformed.
func Open(path string) (*Store, error) {
	s := &Store{path: path, items: make(map[string]prices)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.SVCShop.Warn("unreadable shop file, starting empty",
				slog.String("event", "load.reset"),
				slog.String("path", path),
				slog.String("err", err.Error()),
			)
		}
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("shop: init %s: %w", path, err)
		}
		return s, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.SVCShop.Warn("corrupt shop file, starting empty",
			slog.String("event", "load.reset"),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("shop: reinit %s: %w", path, err)
		}
		return s, nil
	}

	repaired := false
	for key, entry := range raw {
		p, fixed := repairEntry(entry)
		if fixed {
			repaired = true
		}
		norm := NormalizeKey(key)
		if norm == "" {
			repaired = true
			continue
		}
		if norm != key {
			repaired = true
		}
		s.items[norm] = p
	}

	if repaired {
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("shop: persist repaired %s: %w", path, err)
		}
		logger.SVCShop.Info("repaired shop file",
			slog.String("event", "load.repair"),
			slog.String("path", path),
			slog.Int("items", len(s.items)),
		)
	}
	return s, nil
}

// repairEntry normalizes a stored entry to the {buy, sell} shape.
// Legacy files may hold a bare number (treated as the buy price) or an
// object missing one of the fields (missing field -> 0).
func repairEntry(raw json.RawMessage) (prices, bool) {
	var p prices
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return prices{Buy: asNumber}, true
	}

	var asMap map[string]float64
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return prices{}, true
	}
	buy, hasBuy := asMap["buy"]
	sell, hasSell := asMap["sell"]
	p.Buy = buy
	p.Sell = sell
	return p, !hasBuy || !hasSell || len(asMap) != 2
}

// save serializes the whole catalogue and replaces the file atomically
// (temp file + rename). Callers must hold at least a read lock; mutating
// callers hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".shop-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Add inserts a new item. It fails with ErrInvalidPrice when either price is
// negative and ErrAlreadyExists when the normalized key is taken.
func (s *Store) Add(ctx context.Context, key string, buy, sell float64) error {
	if buy < 0 || sell < 0 {
		return ErrInvalidPrice
	}
	norm := NormalizeKey(key)
	if norm == "" {
		return fmt.Errorf("shop: %w: empty key", ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[norm]; exists {
		return ErrAlreadyExists
	}
	s.items[norm] = prices{Buy: buy, Sell: sell}
	if err := s.save(); err != nil {
		delete(s.items, norm)
		return fmt.Errorf("shop: save after add: %w", err)
	}
	logger.Info(ctx, "service.shop", "item.added",
		slog.String("key", norm),
		slog.Float64("buy", buy),
		slog.Float64("sell", sell),
	)
	return nil
}

// Remove deletes an item, failing with ErrNotFound when absent.
func (s *Store) Remove(ctx context.Context, key string) error {
	norm := NormalizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	old, exists := s.items[norm]
	if !exists {
		return ErrNotFound
	}
	delete(s.items, norm)
	if err := s.save(); err != nil {
		s.items[norm] = old
		return fmt.Errorf("shop: save after remove: %w", err)
	}
	logger.Info(ctx, "service.shop", "item.removed", slog.String("key", norm))
	return nil
}

// Get returns the item for a key, reporting whether it exists.
func (s *Store) Get(key string) (Item, bool) {
	norm := NormalizeKey(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[norm]
	if !ok {
		return Item{}, false
	}
	return Item{Key: norm, Buy: p.Buy, Sell: p.Sell}, true
}

// Items returns the catalogue in stable alphabetical order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(s.items))
	for k, p := range s.items {
		out = append(out, Item{Key: k, Buy: p.Buy, Sell: p.Sell})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len reports the number of catalogue entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Search returns items whose normalized key contains the normalized query,
// in stable alphabetical order. A blank query fails with ErrEmptyQuery.
func (s *Store) Search(query string) ([]Item, error) {
	q := NormalizeKey(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	var out []Item
	for _, it := range s.Items() {
		if strings.Contains(it.Key, q) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Path returns the backing file location (used by the backup scheduler).
func (s *Store) Path() string {
	return s.path
}
