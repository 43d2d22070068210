package accounts

import (
	"context"
	"time"
)

// SessionSweeper periodically removes expired session rows. Expiry is
// enforced lazily at validation time, so the sweep is housekeeping only and
// correctness does not depend on its cadence.
type SessionSweeper struct {
	store    SessionStore
	interval time.Duration
	logger   Logger
	stopCh   chan struct{}
}

// NewSessionSweeper creates a sweeper over the given store.
func NewSessionSweeper(store SessionStore, interval time.Duration, logger Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &SessionSweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or the context is done.
func (s *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop terminates the sweep loop.
func (s *SessionSweeper) Stop() {
	close(s.stopCh)
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	removed, err := s.store.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Warn("session sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Debug("session sweep removed expired rows", "count", removed)
	}
}
