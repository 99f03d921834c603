package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"deskchat/internal/mocks"
	"deskchat/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "deskchat", "test")

	var captured telemetry.AuditEnvelope
	publisher.On("Publish", mock.Anything, "audit_log", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		if ok {
			captured = envelope
		}
		return ok
	})).Return(nil).Once()

	userID := int64(42)
	emitter.Emit(context.Background(), "INFO", "login", "session-1", &userID)

	publisher.AssertExpectations(t)
	assert.Equal(t, 1, captured.SchemaVersion)
	assert.Equal(t, "audit_log", captured.EventType)
	assert.Equal(t, "deskchat", captured.Service)
	assert.Equal(t, "test", captured.Environment)
	assert.Equal(t, "session-1", captured.SessionID)
	require.NotNil(t, captured.UserID)
	assert.Equal(t, userID, *captured.UserID)
	assert.Equal(t, "INFO", captured.Payload.Level)
	assert.Equal(t, "login", captured.Payload.Text)
	assert.NotEmpty(t, captured.OccurredAt)
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "deskchat", "test")

	publisher.On("Publish", mock.Anything, "audit_log", mock.Anything).
		Return(errors.New("pipe closed")).Once()

	// must not panic or surface the error
	emitter.Emit(context.Background(), "INFO", "login", "session-1", nil)
	publisher.AssertExpectations(t)
}

func TestEmitNilSafety(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	emitter.Emit(context.Background(), "INFO", "noop", "", nil)

	emitter = telemetry.NewAuditEmitter(nil, "deskchat", "test")
	emitter.Emit(context.Background(), "INFO", "noop", "", nil)
}

func TestSlogPublisher(t *testing.T) {
	publisher := telemetry.NewSlogPublisher(nil)
	require.NoError(t, publisher.Publish(context.Background(), "audit_log", struct{}{}))
	require.NoError(t, publisher.Close())
}
