// Package transcript derives the visible, ordered view of one
// conversation. Building is a pure read projection: it never mutates the
// ledger and two builds over an unchanged ledger return identical
// output.
package transcript

import (
	"context"
	"path/filepath"
	"time"

	"deskchat/internal/models"
	"deskchat/internal/observability"
	"deskchat/internal/repositories"
)

// Entry is one rendered transcript line.
type Entry struct {
	MessageID      int64  `json:"message_id"`
	SenderID       int64  `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	Body           string `json:"body"`
	AttachmentName string `json:"attachment_name,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
	SentAt         int64  `json:"sent_at"`
	TimeLabel      string `json:"time_label"`
	Edited         bool   `json:"edited"`
	Own            bool   `json:"own"`
}

// Builder assembles transcripts for a viewer and a peer.
type Builder struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
	groups   repositories.GroupRepository

	// strictMembership gates group transcript reads on membership.
	// Default off: group history is readable by any local account, which
	// is the observed behavior of the stock client.
	strictMembership bool
}

// NewBuilder constructs a Builder.
func NewBuilder(messages repositories.MessageRepository, users repositories.UserRepository, groups repositories.GroupRepository, strictMembership bool) *Builder {
	return &Builder{
		messages:         messages,
		users:            users,
		groups:           groups,
		strictMembership: strictMembership,
	}
}

// Build returns the time-ordered visible transcript for viewer and peer,
// with sender names resolved in a single bulk lookup.
func (b *Builder) Build(ctx context.Context, viewerID int64, peer models.Peer) ([]Entry, error) {
	start := time.Now()

	if b.strictMembership && peer.IsGroup() {
		member, err := b.groups.IsMember(ctx, peer.ID, viewerID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, repositories.ErrForbidden
		}
	}

	msgs, err := b.messages.ListConversation(ctx, viewerID, peer)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]int64, 0, len(msgs))
	seen := map[int64]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	names, err := b.users.UsernamesByID(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		entry := Entry{
			MessageID:  m.ID,
			SenderID:   m.SenderID,
			SenderName: names[m.SenderID],
			Body:       m.Body,
			SentAt:     m.CreatedAt,
			TimeLabel:  time.Unix(m.CreatedAt, 0).Format("15:04"),
			Edited:     m.Edited,
			Own:        m.SenderID == viewerID,
		}
		if m.HasAttachment() {
			entry.AttachmentName = filepath.Base(m.AttachmentPath.String)
			entry.AttachmentType = m.AttachmentType.String
		}
		entries = append(entries, entry)
	}

	observability.ObserveTranscriptBuild(time.Since(start))
	return entries, nil
}
