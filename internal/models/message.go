package models

import "database/sql"

// Attachment type tags, coarse by design. Classification is by file
// extension at store time.
const (
	AttachmentImage    = "image"
	AttachmentVideo    = "video"
	AttachmentDocument = "document"
)

// Attachment is the opaque reference handed to the ledger after a file
// has been copied into the attachment store.
type Attachment struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Message is a ledger row. Exactly one of ReceiverID/GroupID is set.
// Sender, addressee and timestamp are immutable once written; edits
// replace the body and deletes only flip the tombstone flag.
type Message struct {
	ID             int64          `db:"id" json:"id"`
	SenderID       int64          `db:"sender_id" json:"sender_id"`
	ReceiverID     sql.NullInt64  `db:"receiver_id" json:"receiver_id,omitempty"`
	GroupID        sql.NullInt64  `db:"group_id" json:"group_id,omitempty"`
	Body           string         `db:"body" json:"body"`
	AttachmentPath sql.NullString `db:"attachment_path" json:"attachment_path,omitempty"`
	AttachmentType sql.NullString `db:"attachment_type" json:"attachment_type,omitempty"`
	CreatedAt      int64          `db:"created_at" json:"created_at"`
	Edited         bool           `db:"edited" json:"edited"`
	Deleted        bool           `db:"deleted" json:"deleted"`
}

// Peer returns the conversation address of the message.
func (m Message) Peer() Peer {
	if m.GroupID.Valid {
		return GroupPeer(m.GroupID.Int64)
	}
	return UserPeer(m.ReceiverID.Int64)
}

// HasAttachment reports whether a file reference is attached.
func (m Message) HasAttachment() bool {
	return m.AttachmentPath.Valid && m.AttachmentPath.String != ""
}
