package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"deskchat/internal/models"
)

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	Create(ctx context.Context, creatorID int64, name, description string) (models.Group, error)
	Join(ctx context.Context, groupID, userID int64) error
	ListForUser(ctx context.Context, userID int64, search string) ([]models.GroupSummary, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (models.Group, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// Create inserts the group and its creator-as-admin membership in one
// transaction. A group without an admin member must never be observable.
func (r *GroupRepo) Create(ctx context.Context, creatorID int64, name, description string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, ErrInvalidInput
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().Unix()

	var group models.Group
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (name, description, created_by, created_at) VALUES (?, ?, ?, ?)
         RETURNING id, name, description, created_by, created_at`,
		name, strings.TrimSpace(description), creatorID, now).
		StructScan(&group); err != nil {
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, is_admin, joined_at) VALUES (?, ?, 1, ?)`,
		group.ID, creatorID, now); err != nil {
		return models.Group{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// Join adds a membership row, enforcing the one-row-per-(group,user)
// invariant via the unique index.
func (r *GroupRepo) Join(ctx context.Context, groupID, userID int64) error {
	if _, err := r.GetByID(ctx, groupID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, is_admin, joined_at) VALUES (?, ?, 0, ?)`,
		groupID, userID, time.Now().Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

// ListForUser returns the groups the user belongs to, with member
// counts, optionally filtered by a case-insensitive name substring.
func (r *GroupRepo) ListForUser(ctx context.Context, userID int64, search string) ([]models.GroupSummary, error) {
	query := `SELECT g.id, g.name, g.description,
            (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) AS member_count
        FROM groups g
        INNER JOIN group_members gm ON gm.group_id = g.id
        WHERE gm.user_id = ?`
	args := []interface{}{userID}
	if search = strings.TrimSpace(search); search != "" {
		query += ` AND g.name LIKE '%' || ? || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY g.name ASC, g.id ASC`

	var groups []models.GroupSummary
	err := r.db.SelectContext(ctx, &groups, query, args...)
	return groups, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)`,
		groupID, userID)
	return exists, err
}

// GetByID fetches a single group.
func (r *GroupRepo) GetByID(ctx context.Context, id int64) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`SELECT id, name, description, created_by, created_at FROM groups WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}
