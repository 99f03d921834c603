package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskchat/internal/attachments"
	"deskchat/internal/db"
	"deskchat/internal/models"
	"deskchat/internal/refresh"
	"deskchat/internal/repositories"
	"deskchat/internal/telemetry"
	"deskchat/internal/transcript"
)

type fixture struct {
	users    *repositories.UserRepo
	groups   *repositories.GroupRepo
	messages *repositories.MessageRepo
	builder  *transcript.Builder
	files    *attachments.Store
	filesDir string
}

func newFixture(t *testing.T, strictMembership bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Open(filepath.Join(dir, "deskchat.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	users := repositories.NewUserRepo(database)
	groups := repositories.NewGroupRepo(database)
	messages := repositories.NewMessageRepo(database, strictMembership)
	filesDir := filepath.Join(dir, "attachments")
	return &fixture{
		users:    users,
		groups:   groups,
		messages: messages,
		builder:  transcript.NewBuilder(messages, users, groups, false),
		files:    attachments.NewStore(filesDir, 1<<20),
		filesDir: filesDir,
	}
}

func (f *fixture) controller(interval time.Duration, onTranscript refresh.DeliverFunc) *Controller {
	audit := telemetry.NewAuditEmitter(nil, "deskchat", "test")
	return NewController(f.users, f.groups, f.messages, f.builder, f.files, audit, interval, onTranscript)
}

func login(t *testing.T, ctrl *Controller, username string) models.User {
	t.Helper()
	ctx := context.Background()
	_, err := ctrl.Register(ctx, username, "secret1", "secret1", username+"@example.com")
	require.NoError(t, err)
	user, err := ctrl.Login(ctx, username, "secret1")
	require.NoError(t, err)
	return user
}

func TestRegisterConfirmMismatch(t *testing.T) {
	ctrl := newFixture(t, false).controller(time.Hour, nil)

	_, err := ctrl.Register(context.Background(), "alice", "secret1", "secret2", "")
	require.ErrorIs(t, err, repositories.ErrInvalidInput)
}

func TestLoginLogoutLifecycle(t *testing.T) {
	ctrl := newFixture(t, false).controller(time.Hour, nil)
	ctx := context.Background()

	require.Nil(t, ctrl.CurrentUser())

	alice := login(t, ctrl, "alice")
	require.NotNil(t, ctrl.CurrentUser())
	assert.Equal(t, alice.ID, ctrl.CurrentUser().ID)

	ctrl.Logout(ctx)
	assert.Nil(t, ctrl.CurrentUser())
	assert.Nil(t, ctrl.CurrentPeer())

	// logging out twice is harmless
	ctrl.Logout(ctx)
}

func TestOperationsRequireSessionAndConversation(t *testing.T) {
	f := newFixture(t, false)
	ctrl := f.controller(time.Hour, nil)
	ctx := context.Background()

	_, err := ctrl.Users(ctx, "")
	require.ErrorIs(t, err, ErrNoSession)
	_, err = ctrl.SelectUser(ctx, 1)
	require.Error(t, err)
	_, err = ctrl.Send(ctx, "hi")
	require.ErrorIs(t, err, ErrNoSession)

	login(t, ctrl, "alice")
	_, err = ctrl.Send(ctx, "hi")
	require.ErrorIs(t, err, ErrNoConversation)
	_, err = ctrl.Transcript(ctx)
	require.ErrorIs(t, err, ErrNoConversation)
}

func TestDirectChatFlow(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	aliceCtrl := f.controller(time.Hour, nil)
	bobCtrl := f.controller(time.Hour, nil)
	alice := login(t, aliceCtrl, "alice")
	bob := login(t, bobCtrl, "bob")

	entries, err := aliceCtrl.SelectUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = aliceCtrl.Send(ctx, "hello bob")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello bob", entries[0].Body)
	assert.True(t, entries[0].Own)
	assert.Equal(t, "alice", entries[0].SenderName)

	entries, err = bobCtrl.SelectUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Own)

	entries, err = bobCtrl.Send(ctx, "hi alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "hi alice", entries[1].Body)
}

func TestEditAndDeleteThroughController(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	ctrl := f.controller(time.Hour, nil)
	login(t, ctrl, "alice")
	bob, err := f.users.Register(ctx, "bob", "secret1", "")
	require.NoError(t, err)

	_, err = ctrl.SelectUser(ctx, bob.ID)
	require.NoError(t, err)

	entries, err := ctrl.Send(ctx, "draft")
	require.NoError(t, err)
	msgID := entries[0].MessageID

	entries, err = ctrl.Edit(ctx, msgID, "final")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "final", entries[0].Body)
	assert.True(t, entries[0].Edited)

	entries, err = ctrl.Delete(ctx, msgID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAttachStoresFileAndDefaultCaption(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	ctrl := f.controller(time.Hour, nil)
	login(t, ctrl, "alice")
	bob, err := f.users.Register(ctx, "bob", "secret1", "")
	require.NoError(t, err)
	_, err = ctrl.SelectUser(ctx, bob.ID)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))

	entries, err := ctrl.Attach(ctx, src, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Sent a image", entries[0].Body)
	assert.Equal(t, models.AttachmentImage, entries[0].AttachmentType)
	assert.Contains(t, entries[0].AttachmentName, "cat.png")

	stored, err := os.ReadDir(f.filesDir)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAttachRemovesCopyWhenLedgerWriteFails(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	aliceCtrl := f.controller(time.Hour, nil)
	login(t, aliceCtrl, "alice")
	team, err := aliceCtrl.CreateGroup(ctx, "team", "")
	require.NoError(t, err)

	bobCtrl := f.controller(time.Hour, nil)
	login(t, bobCtrl, "bob")
	_, err = bobCtrl.SelectGroup(ctx, team.ID)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(src, []byte("note"), 0o644))

	// bob is not a member, so the ledger rejects the write
	_, err = bobCtrl.Attach(ctx, src, "")
	require.ErrorIs(t, err, repositories.ErrNotMember)

	stored, err := os.ReadDir(f.filesDir)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestGroupFlow(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	aliceCtrl := f.controller(time.Hour, nil)
	login(t, aliceCtrl, "alice")
	team, err := aliceCtrl.CreateGroup(ctx, "team", "work chat")
	require.NoError(t, err)

	bobCtrl := f.controller(time.Hour, nil)
	login(t, bobCtrl, "bob")
	require.NoError(t, bobCtrl.JoinGroup(ctx, team.ID))
	require.ErrorIs(t, bobCtrl.JoinGroup(ctx, team.ID), repositories.ErrAlreadyMember)

	groups, err := bobCtrl.Groups(ctx, "")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "team", groups[0].Name)
	assert.Equal(t, 2, groups[0].MemberCount)

	_, err = aliceCtrl.SelectGroup(ctx, team.ID)
	require.NoError(t, err)
	_, err = aliceCtrl.Send(ctx, "welcome")
	require.NoError(t, err)

	entries, err := bobCtrl.SelectGroup(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "welcome", entries[0].Body)
	assert.Equal(t, "alice", entries[0].SenderName)
}

func TestPollerDeliversAndStopsOnLogout(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	delivered := make(chan []transcript.Entry, 16)
	ctrl := f.controller(5*time.Millisecond, func(entries []transcript.Entry) {
		select {
		case delivered <- entries:
		default:
		}
	})
	login(t, ctrl, "alice")
	bob, err := f.users.Register(ctx, "bob", "secret1", "")
	require.NoError(t, err)

	_, err = ctrl.SelectUser(ctx, bob.ID)
	require.NoError(t, err)
	_, err = ctrl.Send(ctx, "ping")
	require.NoError(t, err)

	select {
	case entries := <-delivered:
		require.Len(t, entries, 1)
		assert.Equal(t, "ping", entries[0].Body)
	case <-time.After(time.Second):
		t.Fatal("poller never delivered a transcript")
	}

	// once Logout returns the poller is gone; drain and observe silence
	ctrl.Logout(ctx)
	for len(delivered) > 0 {
		<-delivered
	}
	time.Sleep(25 * time.Millisecond)
	assert.Empty(t, delivered)
}

func TestSelectSwapsConversation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	ctrl := f.controller(time.Hour, nil)
	login(t, ctrl, "alice")
	bob, err := f.users.Register(ctx, "bob", "secret1", "")
	require.NoError(t, err)
	carol, err := f.users.Register(ctx, "carol", "secret1", "")
	require.NoError(t, err)

	_, err = ctrl.SelectUser(ctx, bob.ID)
	require.NoError(t, err)
	_, err = ctrl.Send(ctx, "for bob")
	require.NoError(t, err)

	entries, err := ctrl.SelectUser(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NotNil(t, ctrl.CurrentPeer())
	assert.Equal(t, carol.ID, ctrl.CurrentPeer().ID)

	_, err = ctrl.SelectUser(ctx, 9999)
	require.ErrorIs(t, err, repositories.ErrUserNotFound)
}
