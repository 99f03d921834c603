package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// Publisher sinks audit envelopes. The default implementation writes
// structured log records; tests substitute a mock.
type Publisher interface {
	Publish(ctx context.Context, eventName string, event any) error
	Close() error
}

// AuditEmitter builds and publishes audit envelopes for user-visible
// operations (login, send, delete, group changes).
type AuditEmitter struct {
	publisher   Publisher
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	SessionID     string       `json:"session_id,omitempty"`
	UserID        *int64       `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func NewAuditEmitter(publisher Publisher, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit event. A nil emitter or publisher is a no-op
// so call sites never have to guard.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, sessionID string, userID *int64) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		SessionID:     sessionID,
		UserID:        userID,
		Payload: AuditPayload{
			Level: level,
			Text:  text,
		},
	}

	if err := e.publisher.Publish(ctx, envelope.EventType, envelope); err != nil {
		slog.Warn("audit publish failed", "error", err)
	}
}

// SlogPublisher writes envelopes through the process logger. It is the
// single-process stand-in for an external audit pipeline.
type SlogPublisher struct {
	log *slog.Logger
}

func NewSlogPublisher(log *slog.Logger) *SlogPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &SlogPublisher{log: log}
}

func (p *SlogPublisher) Publish(ctx context.Context, eventName string, event any) error {
	p.log.InfoContext(ctx, "audit event", "event", eventName, "payload", event)
	return nil
}

func (p *SlogPublisher) Close() error {
	return nil
}
