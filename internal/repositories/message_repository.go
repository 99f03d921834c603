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

const messageColumns = `id, sender_id, receiver_id, group_id, body, attachment_path, attachment_type, created_at, edited, deleted`

// MessageRepository is the ledger: append-mostly, soft-delete only.
// No other component writes message rows.
type MessageRepository interface {
	Send(ctx context.Context, senderID int64, peer models.Peer, body string, attachment *models.Attachment) (models.Message, error)
	Edit(ctx context.Context, messageID, editorID int64, newBody string) error
	SoftDelete(ctx context.Context, messageID, requesterID int64) error
	ListConversation(ctx context.Context, viewerID int64, peer models.Peer) ([]models.Message, error)
	GetByID(ctx context.Context, messageID int64) (models.Message, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB

	// strictMembership additionally requires the sender to be a member
	// of a target group. Off by default: the stock behavior is open
	// groups, and tightening it silently would change observed semantics.
	strictMembership bool
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB, strictMembership bool) *MessageRepo {
	return &MessageRepo{db: db, strictMembership: strictMembership}
}

// Send appends one immutable row addressed to a user or a group. The
// body may be empty only when an attachment reference is present.
func (r *MessageRepo) Send(ctx context.Context, senderID int64, peer models.Peer, body string, attachment *models.Attachment) (models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && attachment == nil {
		return models.Message{}, ErrInvalidInput
	}

	if err := r.validatePeer(ctx, senderID, peer); err != nil {
		return models.Message{}, err
	}

	var receiverID, groupID sql.NullInt64
	if peer.IsGroup() {
		groupID = sql.NullInt64{Int64: peer.ID, Valid: true}
	} else {
		receiverID = sql.NullInt64{Int64: peer.ID, Valid: true}
	}

	var attachmentPath, attachmentType sql.NullString
	if attachment != nil {
		attachmentPath = sql.NullString{String: attachment.Path, Valid: true}
		attachmentType = sql.NullString{String: attachment.Type, Valid: true}
	}

	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, group_id, body, attachment_path, attachment_type, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         RETURNING `+messageColumns,
		senderID, receiverID, groupID, body, attachmentPath, attachmentType, time.Now().Unix()).
		StructScan(&msg)
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

func (r *MessageRepo) validatePeer(ctx context.Context, senderID int64, peer models.Peer) error {
	if peer.IsGroup() {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM groups WHERE id = ?)`, peer.ID); err != nil {
			return err
		}
		if !exists {
			return ErrGroupNotFound
		}
		if r.strictMembership {
			var member bool
			if err := r.db.GetContext(ctx, &member,
				`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)`,
				peer.ID, senderID); err != nil {
				return err
			}
			if !member {
				return ErrNotMember
			}
		}
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, peer.ID); err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

// Edit replaces the body and sets the edited flag permanently. Editing a
// message to its current body is a silent no-op: the row, including its
// edited flag, is left untouched. Tombstoned messages read as missing.
//
// Two sessions editing the same message race as last-writer-wins; the
// engine's row-level atomicity is the only arbitration.
func (r *MessageRepo) Edit(ctx context.Context, messageID, editorID int64, newBody string) error {
	msg, err := r.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Deleted {
		return ErrMessageNotFound
	}
	if msg.SenderID != editorID {
		return ErrForbidden
	}

	newBody = strings.TrimSpace(newBody)
	if newBody == "" {
		return ErrInvalidInput
	}
	if newBody == msg.Body {
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE messages SET body = ?, edited = 1 WHERE id = ?`, newBody, messageID)
	return err
}

// SoftDelete sets the tombstone flag. The row and any attached file stay
// on storage permanently.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID, requesterID int64) error {
	msg, err := r.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Deleted {
		return ErrMessageNotFound
	}
	if msg.SenderID != requesterID {
		return ErrForbidden
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE messages SET deleted = 1 WHERE id = ?`, messageID)
	return err
}

// ListConversation returns the non-deleted messages of one conversation
// in creation order. Timestamps have second granularity, so id breaks
// ties to keep the order deterministic.
func (r *MessageRepo) ListConversation(ctx context.Context, viewerID int64, peer models.Peer) ([]models.Message, error) {
	var msgs []models.Message
	if peer.IsGroup() {
		err := r.db.SelectContext(ctx, &msgs,
			`SELECT `+messageColumns+` FROM messages
             WHERE group_id = ? AND deleted = 0
             ORDER BY created_at ASC, id ASC`, peer.ID)
		return msgs, err
	}

	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE group_id IS NULL AND deleted = 0
           AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
         ORDER BY created_at ASC, id ASC`,
		viewerID, peer.ID, peer.ID, viewerID)
	return msgs, err
}

// GetByID fetches a single row, tombstoned or not. Callers that must not
// see tombstones check the Deleted flag themselves; keeping them
// reachable here is what makes the tombstone invariant verifiable.
func (r *MessageRepo) GetByID(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
