package shop

import "sync"

// SelectionStore keeps each user's staged item keys in insertion order.
// Entries live for the process lifetime until cleared by a completed total
// calculation (or an explicit clear); there is no TTL. Partitioning by user
// ID is the concurrency control: tasks of different users never contend on
// the same entry.
type SelectionStore struct {
	mu  sync.RWMutex
	sel map[int64]*selection
}

type selection struct {
	order  []string
	member map[string]struct{}
}

// NewSelectionStore creates an empty per-user selection store.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{sel: make(map[int64]*selection)}
}

// AddMany unions keys into the user's selection. Keys are normalized and
// re-adding an already selected key is a no-op. It returns the keys that
// were actually new.
func (s *SelectionStore) AddMany(userID int64, keys []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sel[userID]
	if !ok {
		cur = &selection{member: make(map[string]struct{})}
		s.sel[userID] = cur
	}

	var added []string
	for _, key := range keys {
		norm := NormalizeKey(key)
		if norm == "" {
			continue
		}
		if _, exists := cur.member[norm]; exists {
			continue
		}
		cur.member[norm] = struct{}{}
		cur.order = append(cur.order, norm)
		added = append(added, norm)
	}
	return added
}

// Get returns a copy of the user's selection in insertion order, which is
// the order quantity collection walks through.
func (s *SelectionStore) Get(userID int64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.sel[userID]
	if !ok {
		return nil
	}
	out := make([]string, len(cur.order))
	copy(out, cur.order)
	return out
}

// Contains reports whether the key is staged for the user.
func (s *SelectionStore) Contains(userID int64, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.sel[userID]
	if !ok {
		return false
	}
	_, exists := cur.member[NormalizeKey(key)]
	return exists
}

// Count reports the number of staged keys for the user.
func (s *SelectionStore) Count(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.sel[userID]
	if !ok {
		return 0
	}
	return len(cur.order)
}

// Clear empties the user's selection.
func (s *SelectionStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sel, userID)
}
