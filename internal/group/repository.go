package group

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fkhayef/thinglibrary/internal/database"
)

const groupColumns = `g.id, g.name, g.description, g.is_public, g.invite_token, g.created_by, g.latitude, g.longitude, g.created_at`

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new group and its creator as ADMIN in one transaction
func (r *Repository) Create(ctx context.Context, g *Group) (*Group, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO groups (name, description, is_public, invite_token, created_by, latitude, longitude)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`, g.Name, g.Description, g.IsPublic, g.InviteToken, g.CreatedBy, g.Latitude, g.Longitude,
		).Scan(&g.ID, &g.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, role)
			VALUES ($1, $2, $3)
		`, g.ID, g.CreatedBy, MemberRoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to add creator as admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.MyRole = MemberRoleAdmin
	return g, nil
}

// GetByID retrieves a group with the viewer's role in it
func (r *Repository) GetByID(ctx context.Context, id int64, viewerID string) (*Group, error) {
	query := `
		SELECT ` + groupColumns + `, COALESCE(gm.role, '')
		FROM groups g
		LEFT JOIN group_members gm ON gm.group_id = g.id AND gm.user_id::text = $2
		WHERE g.id = $1
	`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id, viewerID), true)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// GetByToken retrieves a group by its invite token
func (r *Repository) GetByToken(ctx context.Context, token string) (*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.invite_token = $1`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, token), false)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group by token: %w", err)
	}
	return group, nil
}

// ListByUserID retrieves all groups a user belongs to, with the user's role
func (r *Repository) ListByUserID(ctx context.Context, userID string) ([]*Group, error) {
	query := `
		SELECT ` + groupColumns + `, gm.role
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id::text = $1
		ORDER BY g.name, g.id
	`
	return r.queryGroups(ctx, query, true, userID)
}

// ListPublic retrieves public groups the user is not a member of
func (r *Repository) ListPublic(ctx context.Context, userID string) ([]*Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		WHERE g.is_public
		  AND NOT EXISTS (
			SELECT 1 FROM group_members gm
			WHERE gm.group_id = g.id AND gm.user_id::text = $1
		  )
		ORDER BY g.name, g.id
	`
	return r.queryGroups(ctx, query, false, userID)
}

// ListAll retrieves every group ordered by name
func (r *Repository) ListAll(ctx context.Context) ([]*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g ORDER BY g.name, g.id`
	return r.queryGroups(ctx, query, false)
}

func (r *Repository) queryGroups(ctx context.Context, query string, withRole bool, args ...any) ([]*Group, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group, err := scanGroup(rows, withRole)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	return groups, nil
}

// Update writes the mutable columns of g
func (r *Repository) Update(ctx context.Context, g *Group) error {
	query := `
		UPDATE groups
		SET name = $2, description = $3, is_public = $4, latitude = $5, longitude = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, g.ID, g.Name, g.Description, g.IsPublic, g.Latitude, g.Longitude)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return expectOne(result, ErrGroupNotFound)
}

// Delete removes a group; memberships and shares cascade
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return expectOne(result, ErrGroupNotFound)
}

// AddMember inserts a membership unless one exists. It reports whether a
// row was created.
func (r *Repository) AddMember(ctx context.Context, groupID int64, userID string, role MemberRole) (bool, error) {
	query := `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, groupID, userID, role)
	if err != nil {
		return false, fmt.Errorf("failed to add member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// GetMember retrieves a specific member from a group
func (r *Repository) GetMember(ctx context.Context, groupID int64, userID string) (*GroupMember, error) {
	query := `
		SELECT gm.group_id, gm.user_id, gm.role, gm.joined_at, p.full_name
		FROM group_members gm
		LEFT JOIN profiles p ON p.id = gm.user_id
		WHERE gm.group_id = $1 AND gm.user_id::text = $2
	`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, groupID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// GetMembers retrieves all members of a group in join order
func (r *Repository) GetMembers(ctx context.Context, groupID int64) ([]*GroupMember, error) {
	return r.Memberships(ctx, "", MembershipFilter{GroupIDs: []int64{groupID}})
}

// Memberships lists membership rows matching f. With a viewerID, only rows
// of public groups, of groups the viewer belongs to, or of the viewer
// themselves are returned; an empty viewerID lists without restriction.
func (r *Repository) Memberships(ctx context.Context, viewerID string, f MembershipFilter) ([]*GroupMember, error) {
	var where []string
	var args []any

	if viewerID != "" {
		args = append(args, viewerID)
		where = append(where, `(
			g.is_public
			OR gm.user_id::text = $1
			OR EXISTS (SELECT 1 FROM group_members me WHERE me.group_id = gm.group_id AND me.user_id::text = $1)
		)`)
	}
	if f.GroupIDs != nil {
		args = append(args, pq.Array(f.GroupIDs))
		where = append(where, fmt.Sprintf("gm.group_id = ANY($%d)", len(args)))
	}
	if f.UserIDs != nil {
		args = append(args, pq.Array(f.UserIDs))
		where = append(where, fmt.Sprintf("gm.user_id::text = ANY($%d)", len(args)))
	}

	query := `
		SELECT gm.group_id, gm.user_id, gm.role, gm.joined_at, p.full_name
		FROM group_members gm
		JOIN groups g ON g.id = gm.group_id
		LEFT JOIN profiles p ON p.id = gm.user_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY gm.group_id, gm.joined_at, gm.user_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*GroupMember
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	return members, nil
}

// UpdateRole changes a member's role
func (r *Repository) UpdateRole(ctx context.Context, groupID int64, userID string, role MemberRole) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE group_members SET role = $3 WHERE group_id = $1 AND user_id::text = $2`,
		groupID, userID, role,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return expectOne(result, ErrMemberNotFound)
}

// RemoveMember removes a user from a group
func (r *Repository) RemoveMember(ctx context.Context, groupID int64, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id::text = $2`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return expectOne(result, ErrMemberNotFound)
}

// CountRoles returns the number of members and of admins in a group
func (r *Repository) CountRoles(ctx context.Context, groupID int64) (members, admins int, err error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE role = 'ADMIN')
		FROM group_members
		WHERE group_id = $1
	`
	if err := r.db.QueryRowContext(ctx, query, groupID).Scan(&members, &admins); err != nil {
		return 0, 0, fmt.Errorf("failed to count members: %w", err)
	}
	return members, admins, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner, withRole bool) (*Group, error) {
	group := &Group{}
	dest := []any{
		&group.ID,
		&group.Name,
		&group.Description,
		&group.IsPublic,
		&group.InviteToken,
		&group.CreatedBy,
		&group.Latitude,
		&group.Longitude,
		&group.CreatedAt,
	}
	if withRole {
		dest = append(dest, &group.MyRole)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return group, nil
}

func scanMember(row rowScanner) (*GroupMember, error) {
	member := &GroupMember{}
	err := row.Scan(
		&member.GroupID,
		&member.UserID,
		&member.Role,
		&member.JoinedAt,
		&member.FullName,
	)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func expectOne(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
