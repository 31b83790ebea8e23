package item

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fkhayef/thinglibrary/internal/database"
)

const itemColumns = `i.id, i.name, i.description, i.user_id, i.type, i.is_public, i.latitude, i.longitude, i.created_at`

// visibleTo matches items the viewer owns, public items, and items shared
// with a group the viewer belongs to. The viewer id is bound to $1.
const visibleTo = `(
	i.user_id = $1
	OR i.is_public
	OR EXISTS (
		SELECT 1
		FROM things_to_groups tg
		JOIN group_members gm ON gm.group_id = tg.group_id
		WHERE tg.thing_id = i.id AND gm.user_id = $1
	)
)`

// Repository handles item data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new item repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new item
func (r *Repository) Create(ctx context.Context, it *Item) (*Item, error) {
	query := `
		INSERT INTO items (name, description, user_id, type, is_public, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		it.Name, it.Description, it.UserID, it.Type, it.IsPublic, it.Latitude, it.Longitude,
	).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return it, nil
}

// GetVisible retrieves an item if viewerID may see it
func (r *Repository) GetVisible(ctx context.Context, viewerID string, id int64) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i WHERE ` + visibleTo + ` AND i.id = $2`

	it, err := scanItem(r.db.QueryRowContext(ctx, query, viewerID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

// ListVisible retrieves the items viewerID may see that match f
func (r *Repository) ListVisible(ctx context.Context, viewerID string, f Filter) ([]*Item, error) {
	where := []string{visibleTo}
	return r.list(ctx, where, []any{viewerID}, f)
}

// ListAll retrieves every item matching f, ignoring visibility
func (r *Repository) ListAll(ctx context.Context, f Filter) ([]*Item, error) {
	return r.list(ctx, nil, nil, f)
}

func (r *Repository) list(ctx context.Context, where []string, args []any, f Filter) ([]*Item, error) {
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("i.type = $%d", len(args)))
	}
	if f.UserIDs != nil {
		args = append(args, pq.Array(f.UserIDs))
		where = append(where, fmt.Sprintf("i.user_id::text = ANY($%d)", len(args)))
	}
	if f.IDs != nil {
		args = append(args, pq.Array(f.IDs))
		where = append(where, fmt.Sprintf("i.id = ANY($%d)", len(args)))
	}

	query := `SELECT ` + itemColumns + ` FROM items i`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.Order == OrderName {
		query += ` ORDER BY i.name, i.id`
	} else {
		query += ` ORDER BY i.created_at DESC, i.id DESC`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return items, nil
}

// Owners maps each existing id in ids to its owner
func (r *Repository) Owners(ctx context.Context, ids []int64) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id FROM items WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get item owners: %w", err)
	}
	defer rows.Close()

	owners := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var owner string
		if err := rows.Scan(&id, &owner); err != nil {
			return nil, fmt.Errorf("failed to scan item owner: %w", err)
		}
		owners[id] = owner
	}
	return owners, rows.Err()
}

// Update writes the mutable columns of it
func (r *Repository) Update(ctx context.Context, it *Item) (*Item, error) {
	query := `
		UPDATE items
		SET name = $2, description = $3, is_public = $4, latitude = $5, longitude = $6
		WHERE id = $1
		RETURNING ` + strings.ReplaceAll(itemColumns, "i.", "")

	updated, err := scanItem(r.db.QueryRowContext(ctx, query,
		it.ID, it.Name, it.Description, it.IsPublic, it.Latitude, it.Longitude,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return updated, nil
}

// Delete removes an item's shares and then the item in one transaction
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM things_to_groups WHERE thing_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete item shares: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	it := &Item{}
	err := row.Scan(
		&it.ID,
		&it.Name,
		&it.Description,
		&it.UserID,
		&it.Type,
		&it.IsPublic,
		&it.Latitude,
		&it.Longitude,
		&it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return it, nil
}
