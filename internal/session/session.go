// Package session owns all per-session state: the authenticated user,
// the selected peer and the refresh poller for the open conversation.
// It replaces the ambient globals of the stock client with one explicit
// controller object, which is what makes logout-time cancellation
// deterministic.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"deskchat/internal/attachments"
	"deskchat/internal/models"
	"deskchat/internal/observability"
	"deskchat/internal/refresh"
	"deskchat/internal/repositories"
	"deskchat/internal/telemetry"
	"deskchat/internal/transcript"
)

var (
	// ErrNoSession is returned when an operation requires an
	// authenticated user.
	ErrNoSession = errors.New("no authenticated session")

	// ErrNoConversation is returned when an operation requires a
	// selected peer.
	ErrNoConversation = errors.New("no conversation selected")
)

// Controller drives one local session. All methods are safe for
// concurrent use, though in practice a session is driven by a single
// presentation loop; the refresh poller is the only other goroutine.
type Controller struct {
	users    repositories.UserRepository
	groups   repositories.GroupRepository
	messages repositories.MessageRepository
	builder  *transcript.Builder
	files    *attachments.Store
	audit    *telemetry.AuditEmitter

	interval     time.Duration
	onTranscript refresh.DeliverFunc

	mu        sync.Mutex
	sessionID string
	user      *models.User
	peer      *models.Peer
	sched     *refresh.Scheduler
}

// NewController wires a session controller. onTranscript receives the
// transcripts delivered by the background poller; it may be nil.
func NewController(
	users repositories.UserRepository,
	groups repositories.GroupRepository,
	messages repositories.MessageRepository,
	builder *transcript.Builder,
	files *attachments.Store,
	audit *telemetry.AuditEmitter,
	interval time.Duration,
	onTranscript refresh.DeliverFunc,
) *Controller {
	if onTranscript == nil {
		onTranscript = func([]transcript.Entry) {}
	}
	return &Controller{
		users:        users,
		groups:       groups,
		messages:     messages,
		builder:      builder,
		files:        files,
		audit:        audit,
		interval:     interval,
		onTranscript: onTranscript,
	}
}

// Register creates an account. Confirmation matching is this layer's
// concern; the identity store only sees the agreed password.
func (c *Controller) Register(ctx context.Context, username, password, confirm, email string) (models.User, error) {
	if password != confirm {
		return models.User{}, repositories.ErrInvalidInput
	}
	user, err := c.users.Register(ctx, username, password, email)
	if err != nil {
		return models.User{}, err
	}
	c.emit(ctx, "INFO", fmt.Sprintf("account %q registered", user.Username), nil)
	return user, nil
}

// Login authenticates and opens a session.
func (c *Controller) Login(ctx context.Context, username, password string) (models.User, error) {
	user, err := c.users.Authenticate(ctx, username, password)
	if err != nil {
		return models.User{}, err
	}

	c.mu.Lock()
	c.stopSchedulerLocked()
	c.user = &user
	c.peer = nil
	c.sessionID = uuid.NewString()
	c.mu.Unlock()

	c.emit(ctx, "INFO", "login", &user.ID)
	return user, nil
}

// Logout stops the refresh poller first, then releases per-session
// state. Once it returns, no stale transcript delivery can occur.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	user := c.user
	sessionID := c.sessionID
	c.stopSchedulerLocked()
	c.user = nil
	c.peer = nil
	c.sessionID = ""
	c.mu.Unlock()

	if user != nil {
		c.audit.Emit(ctx, "INFO", "logout", sessionID, &user.ID)
	}
}

// CurrentUser returns the authenticated user, or nil.
func (c *Controller) CurrentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// CurrentPeer returns the selected peer, or nil.
func (c *Controller) CurrentPeer() *models.Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

// Users lists every other account, optionally filtered by substring.
func (c *Controller) Users(ctx context.Context, search string) ([]models.UserSummary, error) {
	user, err := c.requireUser()
	if err != nil {
		return nil, err
	}
	return c.users.ListOthers(ctx, user.ID, search)
}

// Groups lists the groups the current user belongs to.
func (c *Controller) Groups(ctx context.Context, search string) ([]models.GroupSummary, error) {
	user, err := c.requireUser()
	if err != nil {
		return nil, err
	}
	return c.groups.ListForUser(ctx, user.ID, search)
}

// CreateGroup creates a group with the current user as first admin.
func (c *Controller) CreateGroup(ctx context.Context, name, description string) (models.Group, error) {
	user, err := c.requireUser()
	if err != nil {
		return models.Group{}, err
	}
	group, err := c.groups.Create(ctx, user.ID, name, description)
	if err != nil {
		return models.Group{}, err
	}
	c.emit(ctx, "INFO", fmt.Sprintf("group %q created", group.Name), &user.ID)
	return group, nil
}

// JoinGroup adds the current user to a group.
func (c *Controller) JoinGroup(ctx context.Context, groupID int64) error {
	user, err := c.requireUser()
	if err != nil {
		return err
	}
	if err := c.groups.Join(ctx, groupID, user.ID); err != nil {
		return err
	}
	c.emit(ctx, "INFO", "group joined", &user.ID)
	return nil
}

// SelectUser opens a direct conversation and (re)starts the poller.
func (c *Controller) SelectUser(ctx context.Context, userID int64) ([]transcript.Entry, error) {
	if _, err := c.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return c.selectPeer(ctx, models.UserPeer(userID))
}

// SelectGroup opens a group conversation and (re)starts the poller.
func (c *Controller) SelectGroup(ctx context.Context, groupID int64) ([]transcript.Entry, error) {
	if _, err := c.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return c.selectPeer(ctx, models.GroupPeer(groupID))
}

func (c *Controller) selectPeer(ctx context.Context, peer models.Peer) ([]transcript.Entry, error) {
	c.mu.Lock()
	if c.user == nil {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	viewerID := c.user.ID
	c.peer = &peer

	c.stopSchedulerLocked()
	sched := refresh.New(c.interval, func(ctx context.Context) ([]transcript.Entry, error) {
		return c.builder.Build(ctx, viewerID, peer)
	}, c.onTranscript)
	c.sched = sched
	c.mu.Unlock()

	sched.Start()
	return c.builder.Build(ctx, viewerID, peer)
}

// Send appends a text message to the open conversation and returns the
// rebuilt transcript.
func (c *Controller) Send(ctx context.Context, body string) ([]transcript.Entry, error) {
	user, peer, err := c.requireConversation()
	if err != nil {
		return nil, err
	}

	if _, err := c.messages.Send(ctx, user.ID, peer, body, nil); err != nil {
		return nil, err
	}
	observability.IncMessageSent(string(peer.Kind))
	c.emit(ctx, "INFO", "message sent", &user.ID)

	return c.builder.Build(ctx, user.ID, peer)
}

// Edit replaces the body of one of the current user's messages.
func (c *Controller) Edit(ctx context.Context, messageID int64, newBody string) ([]transcript.Entry, error) {
	user, peer, err := c.requireConversation()
	if err != nil {
		return nil, err
	}

	if err := c.messages.Edit(ctx, messageID, user.ID, newBody); err != nil {
		return nil, err
	}
	observability.IncMessageEdited()
	c.emit(ctx, "INFO", "message edited", &user.ID)

	return c.builder.Build(ctx, user.ID, peer)
}

// Delete tombstones one of the current user's messages.
func (c *Controller) Delete(ctx context.Context, messageID int64) ([]transcript.Entry, error) {
	user, peer, err := c.requireConversation()
	if err != nil {
		return nil, err
	}

	if err := c.messages.SoftDelete(ctx, messageID, user.ID); err != nil {
		return nil, err
	}
	observability.IncMessageDeleted()
	c.emit(ctx, "INFO", "message deleted", &user.ID)

	return c.builder.Build(ctx, user.ID, peer)
}

// Attach copies a file into the attachment store and appends a message
// referencing it. If the ledger write fails the copy is removed again.
func (c *Controller) Attach(ctx context.Context, sourcePath, caption string) ([]transcript.Entry, error) {
	user, peer, err := c.requireConversation()
	if err != nil {
		return nil, err
	}

	stored, err := c.files.Put(sourcePath)
	if err != nil {
		return nil, err
	}

	if caption == "" {
		caption = fmt.Sprintf("Sent a %s", stored.Type)
	}

	att := &models.Attachment{Path: stored.Path, Type: stored.Type}
	if _, err := c.messages.Send(ctx, user.ID, peer, caption, att); err != nil {
		if rmErr := c.files.Remove(stored.Path); rmErr != nil {
			c.emit(ctx, "ERROR", fmt.Sprintf("orphaned attachment %s: %v", stored.Path, rmErr), &user.ID)
		}
		return nil, err
	}
	observability.IncMessageSent(string(peer.Kind))
	c.emit(ctx, "INFO", "attachment sent", &user.ID)

	return c.builder.Build(ctx, user.ID, peer)
}

// Transcript rebuilds the open conversation on demand.
func (c *Controller) Transcript(ctx context.Context) ([]transcript.Entry, error) {
	user, peer, err := c.requireConversation()
	if err != nil {
		return nil, err
	}
	return c.builder.Build(ctx, user.ID, peer)
}

func (c *Controller) requireUser() (models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return models.User{}, ErrNoSession
	}
	return *c.user, nil
}

func (c *Controller) requireConversation() (models.User, models.Peer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return models.User{}, models.Peer{}, ErrNoSession
	}
	if c.peer == nil {
		return models.User{}, models.Peer{}, ErrNoConversation
	}
	return *c.user, *c.peer, nil
}

// stopSchedulerLocked stops the poller while holding c.mu. Stop blocks
// until the polling goroutine has exited; the poller never takes c.mu,
// so this cannot deadlock.
func (c *Controller) stopSchedulerLocked() {
	if c.sched != nil {
		c.sched.Stop()
		c.sched = nil
	}
}

func (c *Controller) emit(ctx context.Context, level, text string, userID *int64) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	c.audit.Emit(ctx, level, text, sessionID, userID)
}
