package item

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fkhayef/thinglibrary/internal/geo"
	"github.com/fkhayef/thinglibrary/internal/metrics"
	"github.com/fkhayef/thinglibrary/pkg/middleware"
)

// memoryStore mirrors the repository's visibility rule: owner, public, or
// shared with a group the viewer belongs to (modelled as a viewer set).
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	items    map[int64]*Item
	sharedTo map[int64]map[string]bool
	deleted  []int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[int64]*Item), sharedTo: make(map[int64]map[string]bool)}
}

func (m *memoryStore) visible(viewerID string, it *Item) bool {
	return it.UserID == viewerID || it.IsPublic || m.sharedTo[it.ID][viewerID]
}

func (m *memoryStore) Create(_ context.Context, it *Item) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	it.ID = m.nextID
	it.CreatedAt = time.Unix(m.nextID, 0)
	cp := *it
	m.items[it.ID] = &cp
	return it, nil
}

func (m *memoryStore) GetVisible(_ context.Context, viewerID string, id int64) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || !m.visible(viewerID, it) {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (m *memoryStore) ListVisible(_ context.Context, viewerID string, f Filter) ([]*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Item
	for _, it := range m.items {
		if m.visible(viewerID, it) && matches(it, f) {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryStore) ListAll(_ context.Context, f Filter) ([]*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Item
	for _, it := range m.items {
		if matches(it, f) {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryStore) Update(_ context.Context, it *Item) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; !ok {
		return nil, nil
	}
	cp := *it
	m.items[it.ID] = &cp
	return it, nil
}

func (m *memoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	delete(m.sharedTo, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func matches(it *Item, f Filter) bool {
	if f.Type != "" && it.Type != f.Type {
		return false
	}
	if f.UserIDs != nil && !contains(f.UserIDs, it.UserID) {
		return false
	}
	if f.IDs != nil {
		found := false
		for _, id := range f.IDs {
			found = found || id == it.ID
		}
		if !found {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestCreateDefaults(t *testing.T) {
	svc := NewService(newMemoryStore(), metrics.New())

	it, err := svc.Create(context.Background(), "alice", &CreateItemRequest{
		Name:        "  Ladder ",
		Description: strPtr("   "),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if it.Name != "Ladder" {
		t.Errorf("expected trimmed name, got %q", it.Name)
	}
	if it.Type != TypeThing || !it.IsPublic {
		t.Errorf("expected public thing, got type=%s public=%v", it.Type, it.IsPublic)
	}
	if it.Description != nil {
		t.Errorf("expected blank description to be dropped, got %q", *it.Description)
	}
	if it.UserID != "alice" {
		t.Errorf("expected owner alice, got %s", it.UserID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryStore(), metrics.New())

	tests := []struct {
		name string
		req  CreateItemRequest
		want error
	}{
		{"blank name", CreateItemRequest{Name: "  "}, ErrNameRequired},
		{"bad type", CreateItemRequest{Name: "Drill", Type: "offer"}, ErrInvalidType},
		{"half location", CreateItemRequest{Name: "Drill", Latitude: f64Ptr(1)}, geo.ErrPartialLocation},
		{"out of range", CreateItemRequest{Name: "Drill", Latitude: f64Ptr(100), Longitude: f64Ptr(0)}, geo.ErrInvalidLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), "alice", &tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPublicThingVisibility(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, metrics.New())
	ctx := context.Background()

	ladder, err := svc.Create(ctx, "alice", &CreateItemRequest{Name: "Ladder", Type: TypeThing, IsPublic: boolPtr(true)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	all, _ := svc.List(ctx, "bob", Filter{Type: TypeThing})
	if len(all) != 1 || all[0].ID != ladder.ID {
		t.Fatalf("expected bob to see the ladder in all things, got %v", all)
	}

	bobsOwn, _ := svc.List(ctx, "bob", Filter{Type: TypeThing, UserIDs: []string{"bob"}})
	if len(bobsOwn) != 0 {
		t.Errorf("ladder must not appear in bob's own things")
	}

	alicesOwn, _ := svc.List(ctx, "alice", Filter{Type: TypeThing, UserIDs: []string{"alice"}})
	if len(alicesOwn) != 1 {
		t.Errorf("ladder must appear in alice's own things")
	}

	if _, err := svc.Update(ctx, "alice", ladder.ID, &UpdateItemRequest{IsPublic: boolPtr(false)}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, _ = svc.List(ctx, "bob", Filter{Type: TypeThing})
	if len(all) != 0 {
		t.Errorf("private unshared ladder must disappear for bob, got %d items", len(all))
	}
	all, _ = svc.List(ctx, "alice", Filter{Type: TypeThing})
	if len(all) != 1 {
		t.Errorf("owner must still see the private ladder")
	}

	store.sharedTo[ladder.ID] = map[string]bool{"bob": true}
	all, _ = svc.List(ctx, "bob", Filter{Type: TypeThing})
	if len(all) != 1 {
		t.Errorf("shared ladder must be visible to group member bob")
	}
}

func TestOwnerOnlyMutations(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, metrics.New())
	ctx := context.Background()

	public, _ := svc.Create(ctx, "alice", &CreateItemRequest{Name: "Tent"})
	private, _ := svc.Create(ctx, "alice", &CreateItemRequest{Name: "Diary", IsPublic: boolPtr(false)})

	if _, err := svc.Update(ctx, "bob", public.ID, &UpdateItemRequest{Name: strPtr("Mine now")}); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := svc.Delete(ctx, "bob", public.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := svc.Delete(ctx, "bob", private.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("invisible item should be reported missing, got %v", err)
	}

	if err := svc.Delete(ctx, "alice", public.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != public.ID {
		t.Errorf("expected tent deleted, got %v", store.deleted)
	}
}

func TestUpdateLocation(t *testing.T) {
	svc := NewService(newMemoryStore(), metrics.New())
	ctx := context.Background()

	it, _ := svc.Create(ctx, "alice", &CreateItemRequest{Name: "Bike", Latitude: f64Ptr(48.1), Longitude: f64Ptr(11.5)})

	updated, err := svc.Update(ctx, "alice", it.ID, &UpdateItemRequest{ClearLocation: true})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Latitude != nil || updated.Longitude != nil {
		t.Error("expected location cleared")
	}

	if _, err := svc.Update(ctx, "alice", it.ID, &UpdateItemRequest{Longitude: f64Ptr(3)}); !errors.Is(err, geo.ErrPartialLocation) {
		t.Errorf("expected partial location error, got %v", err)
	}
}

func TestHandlerRejectsOwnerField(t *testing.T) {
	svc := NewService(newMemoryStore(), metrics.New())
	router := NewHandler(svc).Routes()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Saw","user_id":"mallory"}`))
	req = req.WithContext(middleware.WithUser(req.Context(), "alice", ""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown owner field, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/?type=gift", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), "alice", ""))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", rec.Code)
	}
}
