package state

import (
	"context"
	"sort"
	"sync"
)

// ShareSet is the join state around one anchor: the groups an item is
// shared with, or the items shared with a group. Writes are optimistic and
// rolled back when the remote call fails. Writes made while a fetch is in
// flight are replayed over its result.
type ShareSet struct {
	scope  *Scope
	store  ShareStore
	byItem bool
	anchor int64

	mu      sync.Mutex
	ids     map[int64]bool
	loading bool
	err     string
	token   uint64
	pending bool
	journal []func(map[int64]bool) map[int64]bool
}

// ItemShares tracks the group ids an item is shared with
func ItemShares(scope *Scope, store ShareStore, thingID int64) *ShareSet {
	return &ShareSet{scope: scope, store: store, byItem: true, anchor: thingID, ids: map[int64]bool{}}
}

// GroupShares tracks the item ids shared with a group
func GroupShares(scope *Scope, store ShareStore, groupID int64) *ShareSet {
	return &ShareSet{scope: scope, store: store, anchor: groupID, ids: map[int64]bool{}}
}

func (s *ShareSet) share(id int64) Share {
	if s.byItem {
		return Share{ThingID: s.anchor, GroupID: id}
	}
	return Share{ThingID: id, GroupID: s.anchor}
}

func (s *ShareSet) query() ShareQuery {
	if s.byItem {
		return ShareQuery{ThingIDs: []int64{s.anchor}}
	}
	return ShareQuery{GroupIDs: []int64{s.anchor}}
}

func (s *ShareSet) other(sh Share) int64 {
	if s.byItem {
		return sh.GroupID
	}
	return sh.ThingID
}

// Refetch reloads the set in the background
func (s *ShareSet) Refetch() {
	s.refetch(false)
}

func (s *ShareSet) refetch(silent bool) {
	var token uint64
	if !s.scope.guard(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.token++
		token = s.token
		s.pending = true
		s.journal = nil
		if !silent {
			s.loading = true
			s.err = ""
		}
	}) {
		return
	}

	s.scope.Go(func(ctx context.Context) {
		rows, err := s.store.ListShares(ctx, s.query())
		s.scope.guard(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if token != s.token {
				return
			}
			s.pending = false
			s.loading = false
			journal := s.journal
			s.journal = nil
			if err != nil {
				if !silent {
					s.err = Message(err)
				}
				return
			}
			ids := make(map[int64]bool, len(rows))
			for _, sh := range rows {
				ids[s.other(sh)] = true
			}
			for _, m := range journal {
				ids = m(ids)
			}
			s.ids = ids
		})
	})
}

// IDs returns the current set in ascending order
func (s *ShareSet) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.ids)
}

// Has reports whether id is in the set
func (s *ShareSet) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

// Loading reports whether a visible fetch is in flight
func (s *ShareSet) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err is the message of the last failure
func (s *ShareSet) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Toggle flips one id locally, then inserts or deletes the share row. On
// failure the flip is undone.
func (s *ShareSet) Toggle(ctx context.Context, id int64) error {
	var had bool
	if !s.write(func() {
		had = s.ids[id]
		s.mutate(setID(id, !had))
		s.err = ""
	}) {
		return ErrScopeClosed
	}

	var err error
	if had {
		err = s.store.RemoveShare(ctx, s.share(id))
	} else {
		err = s.store.AddShares(ctx, []Share{s.share(id)})
	}
	if err != nil {
		s.write(func() {
			s.mutate(setID(id, had))
			s.err = Message(err)
		})
		return err
	}
	return nil
}

// AddAll shares every candidate not already in the set, as one batch. It
// returns the ids it added. Calling it again with the same candidates is a
// no-op. After a successful batch the set is refetched silently.
func (s *ShareSet) AddAll(ctx context.Context, candidates []int64) ([]int64, error) {
	var missing []int64
	if !s.write(func() {
		for _, id := range uniqueIDs(candidates) {
			if !s.ids[id] {
				missing = append(missing, id)
			}
		}
		s.mutate(setIDs(missing, true))
		s.err = ""
	}) {
		return nil, ErrScopeClosed
	}
	if len(missing) == 0 {
		return nil, nil
	}

	batch := make([]Share, len(missing))
	for i, id := range missing {
		batch[i] = s.share(id)
	}
	if err := s.store.AddShares(ctx, batch); err != nil {
		s.write(func() {
			s.mutate(setIDs(missing, false))
			s.err = Message(err)
		})
		return nil, err
	}

	s.refetch(true)
	return missing, nil
}

// SetDesired makes want the exact set, issuing only the difference. On
// failure the previous set is restored and a silent refetch resolves any
// partial write.
func (s *ShareSet) SetDesired(ctx context.Context, want []int64) error {
	want = uniqueIDs(want)
	var prev, add, remove []int64
	if !s.write(func() {
		prev = sortedKeys(s.ids)
		add, remove = diffIDs(prev, want)
		s.mutate(exactIDs(want))
		s.err = ""
	}) {
		return ErrScopeClosed
	}
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}

	if err := s.applyDiff(ctx, want, add, remove); err != nil {
		s.write(func() {
			s.mutate(exactIDs(prev))
			s.err = Message(err)
		})
		s.refetch(true)
		return err
	}
	return nil
}

// applyDiff writes the change remotely. An item's set is replaced in one
// call; a group's set is changed row by row.
func (s *ShareSet) applyDiff(ctx context.Context, want, add, remove []int64) error {
	if s.byItem {
		return s.store.ReplaceShares(ctx, s.anchor, want)
	}

	for _, id := range remove {
		if err := s.store.RemoveShare(ctx, s.share(id)); err != nil {
			return err
		}
	}
	if len(add) > 0 {
		batch := make([]Share, len(add))
		for i, id := range add {
			batch[i] = s.share(id)
		}
		return s.store.AddShares(ctx, batch)
	}
	return nil
}

func (s *ShareSet) write(fn func()) bool {
	return s.scope.guard(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		fn()
	})
}

// mutate applies m to the set and journals it while a fetch is pending.
// Callers hold s.mu.
func (s *ShareSet) mutate(m func(map[int64]bool) map[int64]bool) {
	s.ids = m(s.ids)
	if s.pending {
		s.journal = append(s.journal, m)
	}
}

func setID(id int64, on bool) func(map[int64]bool) map[int64]bool {
	return setIDs([]int64{id}, on)
}

func setIDs(ids []int64, on bool) func(map[int64]bool) map[int64]bool {
	return func(m map[int64]bool) map[int64]bool {
		for _, id := range ids {
			if on {
				m[id] = true
			} else {
				delete(m, id)
			}
		}
		return m
	}
}

func exactIDs(ids []int64) func(map[int64]bool) map[int64]bool {
	return func(map[int64]bool) map[int64]bool {
		m := make(map[int64]bool, len(ids))
		for _, id := range ids {
			m[id] = true
		}
		return m
	}
}

// diffIDs returns the ids to add and remove to turn have into want
func diffIDs(have, want []int64) (add, remove []int64) {
	haveSet := make(map[int64]bool, len(have))
	for _, id := range have {
		haveSet[id] = true
	}
	wantSet := make(map[int64]bool, len(want))
	for _, id := range want {
		wantSet[id] = true
	}
	for _, id := range uniqueIDs(want) {
		if !haveSet[id] {
			add = append(add, id)
		}
	}
	for _, id := range uniqueIDs(have) {
		if !wantSet[id] {
			remove = append(remove, id)
		}
	}
	return add, remove
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys(m map[int64]bool) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
