package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/fkhayef/thinglibrary/internal/geo"
)

// Common errors
var (
	ErrProfileNotFound = errors.New("profile not found")
)

// Store is the persistence the profile service needs
type Store interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context, ids []string) ([]*Profile, error)
	Upsert(ctx context.Context, p *Profile) (*Profile, error)
}

// Service handles profile business logic
type Service struct {
	store Store
}

// NewService creates a new profile service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the profile of a user
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// List returns the profiles with the given ids ordered by name; nil ids lists all
func (s *Service) List(ctx context.Context, ids []string) ([]*Profile, error) {
	if ids != nil && len(ids) == 0 {
		return nil, nil
	}
	return s.store.List(ctx, ids)
}

// Upsert saves the caller's own profile. Text fields are trimmed and blank
// values stored as null; the role is never taken from the request.
func (s *Service) Upsert(ctx context.Context, userID string, req *UpdateProfileRequest) (*Profile, error) {
	if err := geo.Validate(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	p, err := s.store.Upsert(ctx, &Profile{
		ID:          userID,
		FullName:    cleanOptional(req.FullName),
		ContactInfo: cleanOptional(req.ContactInfo),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Profile saved", "user_id", userID, "complete", p.IsComplete())
	return p, nil
}

// IsAdmin reports whether userID holds the platform admin role. A user
// without a profile is not an admin.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	p, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return p.IsAdmin(), nil
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
