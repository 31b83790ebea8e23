package share

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fkhayef/thinglibrary/internal/database"
)

// Repository handles share data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new share repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// List returns share rows matching f. With a viewerID only rows of items the
// viewer owns or of groups the viewer belongs to are returned.
func (r *Repository) List(ctx context.Context, viewerID string, f Filter) ([]Share, error) {
	var where []string
	var args []any

	if viewerID != "" {
		args = append(args, viewerID)
		where = append(where, `(
			i.user_id::text = $1
			OR EXISTS (SELECT 1 FROM group_members gm WHERE gm.group_id = tg.group_id AND gm.user_id::text = $1)
		)`)
	}
	if f.ThingIDs != nil {
		args = append(args, pq.Array(f.ThingIDs))
		where = append(where, fmt.Sprintf("tg.thing_id = ANY($%d)", len(args)))
	}
	if f.GroupIDs != nil {
		args = append(args, pq.Array(f.GroupIDs))
		where = append(where, fmt.Sprintf("tg.group_id = ANY($%d)", len(args)))
	}

	query := `
		SELECT tg.thing_id, tg.group_id
		FROM things_to_groups tg
		JOIN items i ON i.id = tg.thing_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY tg.thing_id, tg.group_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	defer rows.Close()

	var shares []Share
	for rows.Next() {
		var s Share
		if err := rows.Scan(&s.ThingID, &s.GroupID); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	return shares, nil
}

// Insert adds all shares or none. A duplicate row fails the batch.
func (r *Repository) Insert(ctx context.Context, shares []Share) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertShares(ctx, tx, shares)
	})
}

// Delete removes one share
func (r *Repository) Delete(ctx context.Context, thingID, groupID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM things_to_groups WHERE thing_id = $1 AND group_id = $2`,
		thingID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrShareNotFound
	}
	return nil
}

// DeleteForThing removes every share of an item and reports how many went
func (r *Repository) DeleteForThing(ctx context.Context, thingID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM things_to_groups WHERE thing_id = $1`, thingID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete shares: %w", err)
	}
	return result.RowsAffected()
}

// Apply removes and adds group shares of one item in a single transaction
func (r *Repository) Apply(ctx context.Context, thingID int64, add, remove []int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if len(remove) > 0 {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM things_to_groups WHERE thing_id = $1 AND group_id = ANY($2)`,
				thingID, pq.Array(remove),
			)
			if err != nil {
				return fmt.Errorf("failed to delete shares: %w", err)
			}
		}

		shares := make([]Share, len(add))
		for i, groupID := range add {
			shares[i] = Share{ThingID: thingID, GroupID: groupID}
		}
		return insertShares(ctx, tx, shares)
	})
}

func insertShares(ctx context.Context, tx *sql.Tx, shares []Share) error {
	if len(shares) == 0 {
		return nil
	}

	placeholders := make([]string, len(shares))
	args := make([]any, 0, len(shares)*2)
	for i, s := range shares {
		placeholders[i] = fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
		args = append(args, s.ThingID, s.GroupID)
	}

	query := `INSERT INTO things_to_groups (thing_id, group_id) VALUES ` + strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadyShared
		}
		return fmt.Errorf("failed to insert shares: %w", err)
	}
	return nil
}
