package state

import "context"

// GroupStat is an admin row for a group
type GroupStat struct {
	Group   Group
	Members int
	Things  int
}

// UserStat is an admin row for a user
type UserStat struct {
	Profile     Profile
	Groups      int
	AdminGroups int
	Items       int
}

// ItemStat is an admin row for an item
type ItemStat struct {
	Item   Item
	Groups int
}

// Admin holds the admin lists. Each list is one unfiltered read plus count
// queries keyed by the ids it returned, folded into per-row counts. Group
// and user counts are best effort and stay zero when their query fails; a
// failed share count fails the things or requests list.
type Admin struct {
	store AdminStore

	Groups   *Collection[GroupStat, int64]
	Users    *Collection[UserStat, string]
	Things   *Collection[ItemStat, int64]
	Requests *Collection[ItemStat, int64]
}

func NewAdmin(scope *Scope, store AdminStore) *Admin {
	itemStatKey := func(s ItemStat) int64 { return s.Item.ID }
	return &Admin{
		store:    store,
		Groups:   NewCollection(scope, func(s GroupStat) int64 { return s.Group.ID }),
		Users:    NewCollection(scope, func(s UserStat) string { return s.Profile.ID }),
		Things:   NewCollection(scope, itemStatKey),
		Requests: NewCollection(scope, itemStatKey),
	}
}

// Load fetches the list behind tab for viewerID
func (a *Admin) Load(viewerID string, tab AdminTab) {
	switch tab {
	case TabUsers:
		a.Users.Load(viewerID, a.users)
	case TabThings:
		a.Things.Load(viewerID, a.items(TypeThing))
	case TabRequests:
		a.Requests.Load(viewerID, a.items(TypeRequest))
	default:
		a.Groups.Load(viewerID, a.groups)
	}
}

// DeleteGroup removes any group and drops it from the groups list
func (a *Admin) DeleteGroup(ctx context.Context, id int64) error {
	if err := a.store.AdminDeleteGroup(ctx, id); err != nil {
		return err
	}
	a.Groups.Remove(id)
	return nil
}

func (a *Admin) groups(ctx context.Context) ([]GroupStat, error) {
	groups, err := a.store.AdminListGroups(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	members := map[int64]int{}
	things := map[int64]int{}
	if len(ids) > 0 {
		if rows, err := a.store.AdminListMemberships(ctx, MembershipQuery{GroupIDs: ids}); err == nil {
			for _, m := range rows {
				members[m.GroupID]++
			}
		}
		if rows, err := a.store.AdminListShares(ctx, ShareQuery{GroupIDs: ids}); err == nil {
			for _, sh := range rows {
				things[sh.GroupID]++
			}
		}
	}

	stats := make([]GroupStat, len(groups))
	for i, g := range groups {
		stats[i] = GroupStat{Group: g, Members: members[g.ID], Things: things[g.ID]}
	}
	return stats, nil
}

func (a *Admin) users(ctx context.Context) ([]UserStat, error) {
	profiles, err := a.store.AdminListUsers(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	stats := make(map[string]*UserStat, len(profiles))
	for i := range profiles {
		stats[profiles[i].ID] = &UserStat{Profile: profiles[i]}
	}
	if len(ids) > 0 {
		if rows, err := a.store.AdminListMemberships(ctx, MembershipQuery{UserIDs: ids}); err == nil {
			for _, m := range rows {
				if s, ok := stats[m.UserID]; ok {
					s.Groups++
					if m.Role == RoleAdmin {
						s.AdminGroups++
					}
				}
			}
		}
		if rows, err := a.store.AdminListItems(ctx, ItemQuery{UserIDs: ids}); err == nil {
			for _, it := range rows {
				if s, ok := stats[it.UserID]; ok {
					s.Items++
				}
			}
		}
	}

	out := make([]UserStat, len(profiles))
	for i, p := range profiles {
		out[i] = *stats[p.ID]
	}
	return out, nil
}

func (a *Admin) items(t ItemType) Fetcher[ItemStat] {
	return func(ctx context.Context) ([]ItemStat, error) {
		items, err := a.store.AdminListItems(ctx, ItemQuery{Type: t, Order: "name"})
		if err != nil {
			return nil, err
		}

		ids := make([]int64, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		groups := map[int64]int{}
		if len(ids) > 0 {
			rows, err := a.store.AdminListShares(ctx, ShareQuery{ThingIDs: ids})
			if err != nil {
				return nil, err
			}
			for _, sh := range rows {
				groups[sh.ThingID]++
			}
		}

		stats := make([]ItemStat, len(items))
		for i, it := range items {
			stats[i] = ItemStat{Item: it, Groups: groups[it.ID]}
		}
		return stats, nil
	}
}
