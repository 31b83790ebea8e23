package profile

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const profileColumns = `id, full_name, contact_info, latitude, longitude, role, updated_at`

// Repository handles profile data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new profile repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a profile by user id
func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id::text = $1`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

// List retrieves profiles ordered by name. A nil ids slice lists every profile.
func (r *Repository) List(ctx context.Context, ids []string) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	var args []any
	if ids != nil {
		query += ` WHERE id::text = ANY($1)`
		args = append(args, pq.Array(ids))
	}
	query += ` ORDER BY full_name NULLS LAST, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// Upsert writes the editable fields of a profile, creating the row on first save.
// The role column keeps its stored value.
func (r *Repository) Upsert(ctx context.Context, p *Profile) (*Profile, error) {
	query := `
		INSERT INTO profiles (id, full_name, contact_info, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    contact_info = EXCLUDED.contact_info,
		    latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    updated_at = NOW()
		RETURNING ` + profileColumns

	saved, err := scanProfile(r.db.QueryRowContext(ctx, query,
		p.ID, p.FullName, p.ContactInfo, p.Latitude, p.Longitude,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return saved, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	err := row.Scan(
		&p.ID,
		&p.FullName,
		&p.ContactInfo,
		&p.Latitude,
		&p.Longitude,
		&p.Role,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
