// Package refresh implements the polling loop behind the live-chat
// illusion: while a conversation is open, the transcript is rebuilt at a
// fixed interval and handed to a single presentation consumer.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"deskchat/internal/observability"
	"deskchat/internal/transcript"
)

// DefaultInterval matches the stock client's 2-second poll.
const DefaultInterval = 2 * time.Second

// BuildFunc rebuilds the transcript of the open conversation.
type BuildFunc func(ctx context.Context) ([]transcript.Entry, error)

// DeliverFunc hands a rebuilt transcript to the presentation consumer.
// It is always invoked from the scheduler goroutine, never concurrently
// with itself.
type DeliverFunc func(entries []transcript.Entry)

// Scheduler is a cancellable fixed-interval poller. Stop is
// deterministic: once it returns, no delivery will occur, including from
// a tick that was already in flight. The delivery gate is a mutex, not a
// bare boolean, precisely to close that race.
type Scheduler struct {
	interval time.Duration
	build    BuildFunc
	deliver  DeliverFunc

	mu      sync.Mutex
	stopped bool
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a Scheduler. A non-positive interval falls back to
// DefaultInterval.
func New(interval time.Duration, build BuildFunc, deliver DeliverFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		build:    build,
		deliver:  deliver,
		done:     make(chan struct{}),
	}
}

// Start launches the polling goroutine. Starting twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries, err := s.build(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				// A transient read failure must not surface to the user;
				// log it and let the next tick retry.
				slog.Error("refresh: transcript rebuild failed", "error", err)
				observability.IncRefreshError()
				continue
			}

			s.mu.Lock()
			if !s.stopped {
				s.deliver(entries)
				observability.IncRefreshTick()
			}
			s.mu.Unlock()
		}
	}
}

// Stop cancels the poller and waits for the goroutine to exit. After
// Stop returns the consumer will not be invoked again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-s.done
}
