package models

// User represents a registered account. The stored digest is a one-way
// hash; plaintext passwords never touch the database.
type User struct {
	ID             int64  `db:"id" json:"id"`
	Username       string `db:"username" json:"username"`
	PasswordDigest string `db:"password_digest" json:"-"`
	Email          string `db:"email" json:"email,omitempty"`
	CreatedAt      int64  `db:"created_at" json:"created_at"`
}

// UserSummary is the directory-listing view of a user.
type UserSummary struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}
