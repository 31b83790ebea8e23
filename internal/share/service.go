package share

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/fkhayef/thinglibrary/internal/group"
	"github.com/fkhayef/thinglibrary/internal/metrics"
)

// Common errors
var (
	ErrShareNotFound = errors.New("share not found")
	ErrAlreadyShared = errors.New("item is already shared with this group")
	ErrItemNotFound  = errors.New("item not found")
	ErrNotOwner      = errors.New("only the owner can change an item's sharing")
	ErrNotMember     = errors.New("items can only be shared with groups you belong to")
	ErrEmptyBatch    = errors.New("no shares given")
)

// Store is the persistence the share service needs
type Store interface {
	List(ctx context.Context, viewerID string, f Filter) ([]Share, error)
	Insert(ctx context.Context, shares []Share) error
	Delete(ctx context.Context, thingID, groupID int64) error
	DeleteForThing(ctx context.Context, thingID int64) (int64, error)
	Apply(ctx context.Context, thingID int64, add, remove []int64) error
}

// ItemOwners resolves item owners
type ItemOwners interface {
	Owners(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Memberships resolves group memberships
type Memberships interface {
	Memberships(ctx context.Context, viewerID string, f group.MembershipFilter) ([]*group.GroupMember, error)
}

// Service handles item to group sharing
type Service struct {
	store   Store
	items   ItemOwners
	groups  Memberships
	metrics *metrics.Metrics
}

// NewService creates a new share service
func NewService(store Store, items ItemOwners, groups Memberships, m *metrics.Metrics) *Service {
	return &Service{store: store, items: items, groups: groups, metrics: m}
}

// List returns share rows visible to viewerID
func (s *Service) List(ctx context.Context, viewerID string, f Filter) ([]Share, error) {
	return s.store.List(ctx, viewerID, f)
}

// ListAll returns share rows without restriction
func (s *Service) ListAll(ctx context.Context, f Filter) ([]Share, error) {
	return s.store.List(ctx, "", f)
}

// Add inserts a batch of shares. Every item must belong to userID and every
// group must have userID as a member. The batch is all or nothing.
func (s *Service) Add(ctx context.Context, userID string, shares []Share) ([]Share, error) {
	shares = dedupe(shares)
	if len(shares) == 0 {
		return nil, ErrEmptyBatch
	}

	thingIDs := make([]int64, 0, len(shares))
	groupIDs := make([]int64, 0, len(shares))
	for _, sh := range shares {
		thingIDs = append(thingIDs, sh.ThingID)
		groupIDs = append(groupIDs, sh.GroupID)
	}

	if err := s.requireOwner(ctx, userID, thingIDs...); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, groupIDs...); err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, shares); err != nil {
		return nil, err
	}

	s.metrics.SharesAdded.Add(float64(len(shares)))
	slog.Info("Shares added", "user_id", userID, "count", len(shares))
	return shares, nil
}

// Remove deletes one share of an item owned by userID
func (s *Service) Remove(ctx context.Context, userID string, thingID, groupID int64) error {
	if err := s.requireOwner(ctx, userID, thingID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, thingID, groupID); err != nil {
		return err
	}
	s.metrics.SharesRemoved.Inc()
	return nil
}

// RemoveAll deletes every share of an item owned by userID
func (s *Service) RemoveAll(ctx context.Context, userID string, thingID int64) error {
	if err := s.requireOwner(ctx, userID, thingID); err != nil {
		return err
	}
	n, err := s.store.DeleteForThing(ctx, thingID)
	if err != nil {
		return err
	}
	s.metrics.SharesRemoved.Add(float64(n))
	return nil
}

// Replace makes groupIDs the exact share set of an item, applying only the
// difference to the current set. Groups being added must include userID as
// a member; shares to groups userID has since left can still be removed.
func (s *Service) Replace(ctx context.Context, userID string, thingID int64, groupIDs []int64) ([]Share, error) {
	if err := s.requireOwner(ctx, userID, thingID); err != nil {
		return nil, err
	}

	current, err := s.store.List(ctx, "", Filter{ThingIDs: []int64{thingID}})
	if err != nil {
		return nil, err
	}
	have := make([]int64, len(current))
	for i, sh := range current {
		have[i] = sh.GroupID
	}

	add, remove := Diff(have, groupIDs)
	if len(add) > 0 {
		if err := s.requireMember(ctx, userID, add...); err != nil {
			return nil, err
		}
	}
	if len(add) > 0 || len(remove) > 0 {
		if err := s.store.Apply(ctx, thingID, add, remove); err != nil {
			return nil, err
		}
		s.metrics.SharesAdded.Add(float64(len(add)))
		s.metrics.SharesRemoved.Add(float64(len(remove)))
		slog.Info("Shares replaced", "item_id", thingID, "added", len(add), "removed", len(remove))
	}

	want := uniqueSorted(groupIDs)
	result := make([]Share, len(want))
	for i, groupID := range want {
		result[i] = Share{ThingID: thingID, GroupID: groupID}
	}
	return result, nil
}

// Diff returns the ids to add and remove to turn have into want
func Diff(have, want []int64) (add, remove []int64) {
	haveSet := make(map[int64]bool, len(have))
	for _, id := range have {
		haveSet[id] = true
	}
	wantSet := make(map[int64]bool, len(want))
	for _, id := range want {
		wantSet[id] = true
	}

	for _, id := range uniqueSorted(want) {
		if !haveSet[id] {
			add = append(add, id)
		}
	}
	for _, id := range uniqueSorted(have) {
		if !wantSet[id] {
			remove = append(remove, id)
		}
	}
	return add, remove
}

func (s *Service) requireOwner(ctx context.Context, userID string, thingIDs ...int64) error {
	owners, err := s.items.Owners(ctx, uniqueSorted(thingIDs))
	if err != nil {
		return err
	}
	for _, id := range thingIDs {
		owner, ok := owners[id]
		if !ok {
			return ErrItemNotFound
		}
		if owner != userID {
			return ErrNotOwner
		}
	}
	return nil
}

func (s *Service) requireMember(ctx context.Context, userID string, groupIDs ...int64) error {
	rows, err := s.groups.Memberships(ctx, userID, group.MembershipFilter{
		GroupIDs: uniqueSorted(groupIDs),
		UserIDs:  []string{userID},
	})
	if err != nil {
		return err
	}
	member := make(map[int64]bool, len(rows))
	for _, m := range rows {
		member[m.GroupID] = true
	}
	for _, id := range groupIDs {
		if !member[id] {
			return ErrNotMember
		}
	}
	return nil
}

func dedupe(shares []Share) []Share {
	seen := make(map[Share]bool, len(shares))
	out := make([]Share, 0, len(shares))
	for _, sh := range shares {
		if !seen[sh] {
			seen[sh] = true
			out = append(out, sh)
		}
	}
	return out
}

func uniqueSorted(ids []int64) []int64 {
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
