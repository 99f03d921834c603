package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"deskchat/internal/telemetry"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, eventName string, event any) error {
	args := m.Called(ctx, eventName, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ telemetry.Publisher = (*PublisherMock)(nil)
