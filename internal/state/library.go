package state

import (
	"context"
	"fmt"
)

func itemKey(it Item) int64 { return it.ID }

func groupKey(g Group) int64 { return g.ID }

// Library holds the item and group collections of the signed-in user and is
// the one place that mutates them, so every list an item belongs to is
// updated together.
type Library struct {
	scope *Scope
	store Store

	Things     *Collection[Item, int64]
	Requests   *Collection[Item, int64]
	MyThings   *Collection[Item, int64]
	MyRequests *Collection[Item, int64]
	Groups     *Collection[Group, int64]
}

// NewLibrary creates empty collections bound to scope
func NewLibrary(scope *Scope, store Store) *Library {
	return &Library{
		scope:      scope,
		store:      store,
		Things:     NewCollection(scope, itemKey),
		Requests:   NewCollection(scope, itemKey),
		MyThings:   NewCollection(scope, itemKey),
		MyRequests: NewCollection(scope, itemKey),
		Groups:     NewCollection(scope, groupKey),
	}
}

// Load fetches every collection for userID. Collections already loaded for
// the same user are left alone; an empty userID clears them.
func (l *Library) Load(userID string) {
	l.Things.Load(userID, l.list(ItemQuery{Type: TypeThing}))
	l.Requests.Load(userID, l.list(ItemQuery{Type: TypeRequest}))
	l.MyThings.Load(userID, l.list(ItemQuery{Type: TypeThing, UserIDs: []string{userID}}))
	l.MyRequests.Load(userID, l.list(ItemQuery{Type: TypeRequest, UserIDs: []string{userID}}))
	l.Groups.Load(userID, l.store.ListMyGroups)
}

func (l *Library) list(q ItemQuery) Fetcher[Item] {
	return func(ctx context.Context) ([]Item, error) {
		return l.store.ListItems(ctx, q)
	}
}

func (l *Library) lists(t ItemType) (all, mine *Collection[Item, int64]) {
	if t == TypeRequest {
		return l.Requests, l.MyRequests
	}
	return l.Things, l.MyThings
}

// Create stores a new item and puts it at the head of its lists. A non-empty
// groupIDs shares the new item with those groups; when that step fails the
// item is still returned together with the error.
func (l *Library) Create(ctx context.Context, in ItemInput, groupIDs []int64) (Item, error) {
	it, err := l.store.CreateItem(ctx, in)
	if err != nil {
		return Item{}, err
	}

	all, mine := l.lists(it.Type)
	all.Prepend(it)
	mine.Prepend(it)

	if len(groupIDs) > 0 {
		if err := l.store.ReplaceShares(ctx, it.ID, groupIDs); err != nil {
			return it, fmt.Errorf("item created but sharing failed: %w", err)
		}
	}
	return it, nil
}

// Update saves changes to an item and replaces it in every list holding it
func (l *Library) Update(ctx context.Context, id int64, in ItemUpdate) (Item, error) {
	it, err := l.store.UpdateItem(ctx, id, in)
	if err != nil {
		return Item{}, err
	}

	all, mine := l.lists(it.Type)
	all.Replace(it)
	mine.Replace(it)
	return it, nil
}

// Delete removes an item remotely and then from every list
func (l *Library) Delete(ctx context.Context, id int64) error {
	if err := l.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	l.forget(id)
	return nil
}

func (l *Library) forget(ids ...int64) {
	l.Things.Remove(ids...)
	l.Requests.Remove(ids...)
	l.MyThings.Remove(ids...)
	l.MyRequests.Remove(ids...)
}

// CreateGroup stores a new group and puts it at the head of my groups
func (l *Library) CreateGroup(ctx context.Context, in GroupInput) (Group, error) {
	g, err := l.store.CreateGroup(ctx, in)
	if err != nil {
		return Group{}, err
	}
	l.Groups.Prepend(g)
	return g, nil
}

// UpdateGroup saves changes to a group and replaces it in my groups
func (l *Library) UpdateGroup(ctx context.Context, id int64, in GroupUpdate) (Group, error) {
	g, err := l.store.UpdateGroup(ctx, id, in)
	if err != nil {
		return Group{}, err
	}
	l.Groups.Replace(g)
	return g, nil
}

// DeleteGroup removes a group remotely and from my groups
func (l *Library) DeleteGroup(ctx context.Context, id int64) error {
	if err := l.store.DeleteGroup(ctx, id); err != nil {
		return err
	}
	l.Groups.Remove(id)
	return nil
}

// LeaveGroup drops the caller's membership and the group from my groups
func (l *Library) LeaveGroup(ctx context.Context, id int64) error {
	if err := l.store.LeaveGroup(ctx, id); err != nil {
		return err
	}
	l.Groups.Remove(id)
	return nil
}

// JoinPublicGroup joins a public group and adds it to my groups
func (l *Library) JoinPublicGroup(ctx context.Context, id int64) (Group, error) {
	g, err := l.store.JoinPublicGroup(ctx, id)
	if err != nil {
		return Group{}, err
	}
	l.Groups.Prepend(g)
	return g, nil
}

// JoinByToken redeems an invite token. The joined group is fetched and
// added to my groups; a failure of that read does not undo the join.
func (l *Library) JoinByToken(ctx context.Context, token string) (int64, error) {
	id, err := l.store.JoinGroupByToken(ctx, token)
	if err != nil {
		return 0, err
	}
	if g, err := l.store.GetGroup(ctx, id); err == nil {
		l.Groups.Prepend(g)
	}
	return id, nil
}
