package item

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/fkhayef/thinglibrary/internal/geo"
	"github.com/fkhayef/thinglibrary/internal/metrics"
)

// Common errors
var (
	ErrItemNotFound = errors.New("item not found")
	ErrNameRequired = errors.New("name is required")
	ErrInvalidType  = errors.New("type must be 'thing' or 'request'")
	ErrNotOwner     = errors.New("only the owner can change this item")
)

// Store is the persistence the item service needs
type Store interface {
	Create(ctx context.Context, it *Item) (*Item, error)
	GetVisible(ctx context.Context, viewerID string, id int64) (*Item, error)
	ListVisible(ctx context.Context, viewerID string, f Filter) ([]*Item, error)
	ListAll(ctx context.Context, f Filter) ([]*Item, error)
	Update(ctx context.Context, it *Item) (*Item, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles item business logic
type Service struct {
	store   Store
	metrics *metrics.Metrics
}

// NewService creates a new item service
func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{store: store, metrics: m}
}

// Create validates and stores a new item owned by ownerID
func (s *Service) Create(ctx context.Context, ownerID string, req *CreateItemRequest) (*Item, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	itemType := req.Type
	if itemType == "" {
		itemType = TypeThing
	}
	if !itemType.Valid() {
		return nil, ErrInvalidType
	}

	if err := geo.Validate(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	it, err := s.store.Create(ctx, &Item{
		Name:        name,
		Description: cleanOptional(req.Description),
		UserID:      ownerID,
		Type:        itemType,
		IsPublic:    isPublic,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ItemsCreated.WithLabelValues(string(it.Type)).Inc()
	slog.Info("Item created", "item_id", it.ID, "user_id", ownerID, "type", it.Type)
	return it, nil
}

// Get returns an item visible to viewerID
func (s *Service) Get(ctx context.Context, viewerID string, id int64) (*Item, error) {
	it, err := s.store.GetVisible(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, ErrItemNotFound
	}
	return it, nil
}

// List returns the items visible to viewerID that match f
func (s *Service) List(ctx context.Context, viewerID string, f Filter) ([]*Item, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, ErrInvalidType
	}
	return s.store.ListVisible(ctx, viewerID, f)
}

// ListAll returns items matching f without visibility checks
func (s *Service) ListAll(ctx context.Context, f Filter) ([]*Item, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, ErrInvalidType
	}
	return s.store.ListAll(ctx, f)
}

// Update applies a partial update; only the owner may update
func (s *Service) Update(ctx context.Context, userID string, id int64, req *UpdateItemRequest) (*Item, error) {
	it, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		it.Name = name
	}
	if req.Description != nil {
		it.Description = cleanOptional(req.Description)
	}
	if req.IsPublic != nil {
		it.IsPublic = *req.IsPublic
	}
	switch {
	case req.ClearLocation:
		it.Latitude, it.Longitude = nil, nil
	case req.Latitude != nil || req.Longitude != nil:
		if err := geo.Validate(req.Latitude, req.Longitude); err != nil {
			return nil, err
		}
		it.Latitude, it.Longitude = req.Latitude, req.Longitude
	}

	updated, err := s.store.Update(ctx, it)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrItemNotFound
	}
	return updated, nil
}

// Delete removes an item and its shares; only the owner may delete
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.metrics.ItemsDeleted.Inc()
	slog.Info("Item deleted", "item_id", id, "user_id", userID)
	return nil
}

// owned loads an item for mutation. Items the caller cannot see are
// reported as missing rather than forbidden.
func (s *Service) owned(ctx context.Context, userID string, id int64) (*Item, error) {
	it, err := s.store.GetVisible(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, ErrItemNotFound
	}
	if it.UserID != userID {
		return nil, ErrNotOwner
	}
	return it, nil
}

func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
