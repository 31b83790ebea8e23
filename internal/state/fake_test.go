package state

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"
)

var errBoom = errors.New("remote call failed")

// memoryDB is the shared remote state; fakeStore is one user's client of it.
type memoryDB struct {
	mu       sync.Mutex
	nextID   int64
	items    map[int64]Item
	groups   map[int64]Group
	members  map[int64]map[string]Role
	shares   map[Share]bool
	profiles map[string]Profile

	// fail makes the named operation return errBoom
	fail map[string]bool
	// hold blocks ListItems until the channel is closed
	hold chan struct{}
	// shareHold blocks ListShares after it has read its rows; sharesRead
	// is signalled at that point
	shareHold  chan struct{}
	sharesRead chan struct{}
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		items:    map[int64]Item{},
		groups:   map[int64]Group{},
		members:  map[int64]map[string]Role{},
		shares:   map[Share]bool{},
		profiles: map[string]Profile{},
		fail:     map[string]bool{},
	}
}

func (db *memoryDB) failing(op string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.fail[op] {
		return errBoom
	}
	return nil
}

func (db *memoryDB) setFail(op string, on bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fail[op] = on
}

func (db *memoryDB) shareRows() []Share {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []Share
	for s := range db.shares {
		out = append(out, s)
	}
	return out
}

type fakeStore struct {
	db   *memoryDB
	user string
}

func (db *memoryDB) as(user string) *fakeStore {
	return &fakeStore{db: db, user: user}
}

func (f *fakeStore) visible(it Item) bool {
	if it.UserID == f.user || it.IsPublic {
		return true
	}
	for s := range f.db.shares {
		if s.ThingID == it.ID && f.db.members[s.GroupID][f.user] != "" {
			return true
		}
	}
	return false
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func hasInt(list []int64, id int64) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func (f *fakeStore) listItems(q ItemQuery, all bool) []Item {
	var out []Item
	for _, it := range f.db.items {
		if !all && !f.visible(it) {
			continue
		}
		if q.Type != "" && it.Type != q.Type {
			continue
		}
		if q.UserIDs != nil && !hasString(q.UserIDs, it.UserID) {
			continue
		}
		if q.IDs != nil && !hasInt(q.IDs, it.ID) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeStore) ListItems(ctx context.Context, q ItemQuery) ([]Item, error) {
	f.db.mu.Lock()
	hold := f.db.hold
	f.db.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.db.failing("ListItems"); err != nil {
		return nil, err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.listItems(q, false), nil
}

func (f *fakeStore) GetItem(_ context.Context, id int64) (Item, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	it, ok := f.db.items[id]
	if !ok || !f.visible(it) {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (f *fakeStore) CreateItem(_ context.Context, in ItemInput) (Item, error) {
	if err := f.db.failing("CreateItem"); err != nil {
		return Item{}, err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.nextID++
	it := Item{
		ID:          f.db.nextID,
		Name:        in.Name,
		Description: in.Description,
		UserID:      f.user,
		Type:        in.Type,
		IsPublic:    in.IsPublic == nil || *in.IsPublic,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		CreatedAt:   time.Unix(f.db.nextID, 0),
	}
	if it.Type == "" {
		it.Type = TypeThing
	}
	f.db.items[it.ID] = it
	return it, nil
}

func (f *fakeStore) UpdateItem(_ context.Context, id int64, in ItemUpdate) (Item, error) {
	if err := f.db.failing("UpdateItem"); err != nil {
		return Item{}, err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	it, ok := f.db.items[id]
	if !ok || it.UserID != f.user {
		return Item{}, ErrNotFound
	}
	if in.Name != nil {
		it.Name = *in.Name
	}
	if in.IsPublic != nil {
		it.IsPublic = *in.IsPublic
	}
	f.db.items[id] = it
	return it, nil
}

func (f *fakeStore) DeleteItem(_ context.Context, id int64) error {
	if err := f.db.failing("DeleteItem"); err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.fail["DeleteItem:"+itoa(id)] {
		return errBoom
	}
	if _, ok := f.db.items[id]; !ok {
		return ErrNotFound
	}
	delete(f.db.items, id)
	for s := range f.db.shares {
		if s.ThingID == id {
			delete(f.db.shares, s)
		}
	}
	return nil
}

func (f *fakeStore) ListMyGroups(context.Context) ([]Group, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []Group
	for id, g := range f.db.groups {
		if role := f.db.members[id][f.user]; role != "" {
			g.MyRole = role
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListPublicGroups(context.Context) ([]Group, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []Group
	for id, g := range f.db.groups {
		if g.IsPublic && f.db.members[id][f.user] == "" {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) GetGroup(_ context.Context, id int64) (Group, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	g, ok := f.db.groups[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	g.MyRole = f.db.members[id][f.user]
	return g, nil
}

func (f *fakeStore) CreateGroup(_ context.Context, in GroupInput) (Group, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.nextID++
	g := Group{ID: f.db.nextID, Name: in.Name, IsPublic: in.IsPublic, InviteToken: "tok" + itoa(f.db.nextID), MyRole: RoleAdmin}
	f.db.groups[g.ID] = g
	f.db.members[g.ID] = map[string]Role{f.user: RoleAdmin}
	return g, nil
}

func (f *fakeStore) UpdateGroup(_ context.Context, id int64, in GroupUpdate) (Group, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	g, ok := f.db.groups[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	if in.Name != nil {
		g.Name = *in.Name
	}
	f.db.groups[id] = g
	g.MyRole = f.db.members[id][f.user]
	return g, nil
}

func (f *fakeStore) DeleteGroup(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.groups, id)
	delete(f.db.members, id)
	return nil
}

func (f *fakeStore) ListMembers(_ context.Context, groupID int64) ([]Membership, error) {
	return f.ListMemberships(context.Background(), MembershipQuery{GroupIDs: []int64{groupID}})
}

func (f *fakeStore) ListMemberships(_ context.Context, q MembershipQuery) ([]Membership, error) {
	if err := f.db.failing("ListMemberships"); err != nil {
		return nil, err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []Membership
	for groupID, users := range f.db.members {
		if q.GroupIDs != nil && !hasInt(q.GroupIDs, groupID) {
			continue
		}
		for userID, role := range users {
			if q.UserIDs != nil && !hasString(q.UserIDs, userID) {
				continue
			}
			out = append(out, Membership{GroupID: groupID, UserID: userID, Role: role})
		}
	}
	return out, nil
}

func (f *fakeStore) JoinPublicGroup(ctx context.Context, id int64) (Group, error) {
	f.db.mu.Lock()
	f.db.members[id][f.user] = RoleMember
	f.db.mu.Unlock()
	return f.GetGroup(ctx, id)
}

func (f *fakeStore) LeaveGroup(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.members[id], f.user)
	return nil
}

func (f *fakeStore) JoinGroupByToken(_ context.Context, token string) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for id, g := range f.db.groups {
		if g.InviteToken == token {
			if f.db.members[id][f.user] == "" {
				f.db.members[id][f.user] = RoleMember
			}
			return id, nil
		}
	}
	return 0, ErrNotFound
}

func (f *fakeStore) GetGroupByInviteToken(_ context.Context, token string) (InvitePreview, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for id, g := range f.db.groups {
		if g.InviteToken == token {
			return InvitePreview{ID: id, Name: g.Name, AlreadyMember: f.db.members[id][f.user] != ""}, nil
		}
	}
	return InvitePreview{}, ErrNotFound
}

func (f *fakeStore) ListShares(ctx context.Context, q ShareQuery) ([]Share, error) {
	if err := f.db.failing("ListShares"); err != nil {
		return nil, err
	}
	f.db.mu.Lock()
	out := f.listShares(q)
	hold, read := f.db.shareHold, f.db.sharesRead
	f.db.mu.Unlock()
	if hold != nil {
		select {
		case read <- struct{}{}:
		default:
		}
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}

func (f *fakeStore) listShares(q ShareQuery) []Share {
	var out []Share
	for s := range f.db.shares {
		if q.ThingIDs != nil && !hasInt(q.ThingIDs, s.ThingID) {
			continue
		}
		if q.GroupIDs != nil && !hasInt(q.GroupIDs, s.GroupID) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (f *fakeStore) AddShares(_ context.Context, shares []Share) error {
	if err := f.db.failing("AddShares"); err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range shares {
		if f.db.shares[s] {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	for _, s := range shares {
		f.db.shares[s] = true
	}
	return nil
}

func (f *fakeStore) RemoveShare(_ context.Context, s Share) error {
	if err := f.db.failing("RemoveShare"); err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if !f.db.shares[s] {
		return ErrNotFound
	}
	delete(f.db.shares, s)
	return nil
}

func (f *fakeStore) ReplaceShares(_ context.Context, thingID int64, groupIDs []int64) error {
	if err := f.db.failing("ReplaceShares"); err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for s := range f.db.shares {
		if s.ThingID == thingID {
			delete(f.db.shares, s)
		}
	}
	for _, g := range groupIDs {
		f.db.shares[Share{ThingID: thingID, GroupID: g}] = true
	}
	return nil
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (Profile, error) {
	if err := f.db.failing("GetProfile"); err != nil {
		return Profile{}, err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListProfiles(_ context.Context, ids []string) ([]Profile, error) {
	if err := f.db.failing("ListProfiles"); err != nil {
		return nil, err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []Profile
	for id, p := range f.db.profiles {
		if ids == nil || hasString(ids, id) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) SaveProfile(_ context.Context, in ProfileInput) (Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p := f.db.profiles[f.user]
	p.ID = f.user
	p.FullName = in.FullName
	p.ContactInfo = in.ContactInfo
	f.db.profiles[f.user] = p
	return p, nil
}

func (f *fakeStore) AdminListGroups(context.Context) ([]Group, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []Group
	for _, g := range f.db.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) AdminListUsers(ctx context.Context) ([]Profile, error) {
	return f.ListProfiles(ctx, nil)
}

func (f *fakeStore) AdminListItems(_ context.Context, q ItemQuery) ([]Item, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.listItems(q, true), nil
}

func (f *fakeStore) AdminListMemberships(ctx context.Context, q MembershipQuery) ([]Membership, error) {
	return f.ListMemberships(ctx, q)
}

func (f *fakeStore) AdminListShares(ctx context.Context, q ShareQuery) ([]Share, error) {
	return f.ListShares(ctx, q)
}

func (f *fakeStore) AdminDeleteGroup(ctx context.Context, id int64) error {
	return f.DeleteGroup(ctx, id)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func itemIDs(items []Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }
