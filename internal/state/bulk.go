package state

import (
	"context"
	"sync"
)

// Selection is the set of ids picked in one list view
type Selection struct {
	mu  sync.Mutex
	ids map[int64]bool
}

func NewSelection() *Selection {
	return &Selection{ids: map[int64]bool{}}
}

// Toggle flips id and reports whether it is now selected
func (s *Selection) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = true
	return true
}

func (s *Selection) Select(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = true
	}
}

func (s *Selection) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selection in ascending order
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.ids)
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = map[int64]bool{}
}

// BulkEditSharing makes groupIDs the exact share set of every selected
// item, one item at a time, and returns each item's new shared count. It
// stops at the first failure; items handled before it keep their new set
// and the selection is left as it was. On success the selection is cleared.
func (l *Library) BulkEditSharing(ctx context.Context, sel *Selection, groupIDs []int64) (map[int64]int, error) {
	want := uniqueIDs(groupIDs)
	ids := sel.IDs()
	for _, id := range ids {
		if err := l.store.ReplaceShares(ctx, id, want); err != nil {
			return nil, err
		}
	}

	counts := make(map[int64]int, len(ids))
	for _, id := range ids {
		counts[id] = len(want)
	}
	sel.Clear()
	return counts, nil
}

// BulkDelete deletes the selected items one by one. Local lists change only
// when every delete succeeded; the first failure aborts the loop and is
// returned without saying which deletes went through before it.
func (l *Library) BulkDelete(ctx context.Context, sel *Selection) error {
	ids := sel.IDs()
	for _, id := range ids {
		if err := l.store.DeleteItem(ctx, id); err != nil {
			return err
		}
	}
	l.forget(ids...)
	sel.Clear()
	return nil
}

// SharedCounts returns the number of groups each item is shared with. It is
// a best-effort read: any failure yields an empty map.
func SharedCounts(ctx context.Context, store ShareStore, itemIDs []int64) map[int64]int {
	counts := map[int64]int{}
	ids := uniqueIDs(itemIDs)
	if len(ids) == 0 {
		return counts
	}
	rows, err := store.ListShares(ctx, ShareQuery{ThingIDs: ids})
	if err != nil {
		return counts
	}
	for _, sh := range rows {
		counts[sh.ThingID]++
	}
	return counts
}
