package models

// Group represents a chat group. The creator is always its first admin
// member; the two rows are written in the same transaction.
type Group struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	CreatedBy   int64  `db:"created_by" json:"created_by"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
}

// GroupMember pairs a group and a user. At most one row may exist per
// (group, user) pair.
type GroupMember struct {
	ID       int64 `db:"id" json:"id"`
	GroupID  int64 `db:"group_id" json:"group_id"`
	UserID   int64 `db:"user_id" json:"user_id"`
	IsAdmin  bool  `db:"is_admin" json:"is_admin"`
	JoinedAt int64 `db:"joined_at" json:"joined_at"`
}

// GroupSummary is the per-user group listing view.
type GroupSummary struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	MemberCount int    `db:"member_count" json:"member_count"`
}
