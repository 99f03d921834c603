package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"deskchat/internal/models"
	"deskchat/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Register(ctx context.Context, username, password, email string) (models.User, error) {
	args := m.Called(ctx, username, password, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	args := m.Called(ctx, username, password)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListOthers(ctx context.Context, excludingID int64, search string) ([]models.UserSummary, error) {
	args := m.Called(ctx, excludingID, search)
	var list []models.UserSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.UserSummary)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id int64) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) UsernamesByID(ctx context.Context, ids []int64) (map[int64]string, error) {
	args := m.Called(ctx, ids)
	var names map[int64]string
	if val := args.Get(0); val != nil {
		names = val.(map[int64]string)
	}
	return names, args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) Create(ctx context.Context, creatorID int64, name, description string) (models.Group, error) {
	args := m.Called(ctx, creatorID, name, description)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) Join(ctx context.Context, groupID, userID int64) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) ListForUser(ctx context.Context, userID int64, search string) ([]models.GroupSummary, error) {
	args := m.Called(ctx, userID, search)
	var groups []models.GroupSummary
	if val := args.Get(0); val != nil {
		groups = val.([]models.GroupSummary)
	}
	return groups, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) GetByID(ctx context.Context, id int64) (models.Group, error) {
	args := m.Called(ctx, id)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Send(ctx context.Context, senderID int64, peer models.Peer, body string, attachment *models.Attachment) (models.Message, error) {
	args := m.Called(ctx, senderID, peer, body, attachment)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) Edit(ctx context.Context, messageID, editorID int64, newBody string) error {
	args := m.Called(ctx, messageID, editorID, newBody)
	return args.Error(0)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID, requesterID int64) error {
	args := m.Called(ctx, messageID, requesterID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, viewerID int64, peer models.Peer) ([]models.Message, error) {
	args := m.Called(ctx, viewerID, peer)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetByID(ctx context.Context, messageID int64) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
