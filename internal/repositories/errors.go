package repositories

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

var (
	// ErrInvalidInput covers malformed or empty required fields. The
	// caller corrects the input and retries.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateUsername is returned when registration hits the
	// username uniqueness constraint.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials is deliberately silent about which of the
	// two fields was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrUserNotFound    = errors.New("user not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrMessageNotFound = errors.New("message not found")

	// ErrAlreadyMember is returned on a duplicate (group, user)
	// membership insert.
	ErrAlreadyMember = errors.New("already a group member")

	// ErrForbidden means the actor lacks rights over the target message.
	ErrForbidden = errors.New("not allowed")

	// ErrNotMember is only returned when strict membership enforcement
	// is enabled.
	ErrNotMember = errors.New("not a group member")
)

// isUniqueViolation reports whether err is the engine's unique
// constraint error.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
}
