package repositories

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"deskchat/internal/models"
)

// MinPasswordLength is the registration floor.
const MinPasswordLength = 6

// UserRepository abstracts account persistence.
type UserRepository interface {
	Register(ctx context.Context, username, password, email string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	ListOthers(ctx context.Context, excludingID int64, search string) ([]models.UserSummary, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	UsernamesByID(ctx context.Context, ids []int64) (map[int64]string, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// hashPassword computes the digest stored at registration and recomputed
// at login. It must stay deterministic: authentication compares digests,
// not plaintext.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Register creates an account, storing only the password digest.
func (r *UserRepo) Register(ctx context.Context, username, password, email string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || password == "" {
		return models.User{}, ErrInvalidInput
	}
	if len(password) < MinPasswordLength {
		return models.User{}, ErrInvalidInput
	}

	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, password_digest, email, created_at) VALUES (?, ?, ?, ?)
         RETURNING id, username, password_digest, email, created_at`,
		username, hashPassword(password), email, time.Now().Unix()).
		StructScan(&user)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}
	return user, nil
}

// Authenticate matches a (username, digest) pair against the store.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, username, password_digest, email, created_at FROM users
         WHERE username = ? AND password_digest = ?`,
		username, hashPassword(password))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ListOthers returns every user except the given one, optionally
// filtered by a case-insensitive username substring. Ordering is by
// username then id so repeated calls are stable.
func (r *UserRepo) ListOthers(ctx context.Context, excludingID int64, search string) ([]models.UserSummary, error) {
	query := `SELECT id, username FROM users WHERE id != ?`
	args := []interface{}{excludingID}
	if search = strings.TrimSpace(search); search != "" {
		query += ` AND username LIKE '%' || ? || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY username ASC, id ASC`

	var users []models.UserSummary
	err := r.db.SelectContext(ctx, &users, query, args...)
	return users, err
}

// GetByID fetches a single user.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, username, password_digest, email, created_at FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UsernamesByID resolves display names in one query.
func (r *UserRepo) UsernamesByID(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query, args, err := sqlx.In(`SELECT id, username FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u models.UserSummary
		if err := rows.StructScan(&u); err != nil {
			return nil, err
		}
		names[u.ID] = u.Username
	}
	return names, rows.Err()
}
