package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/session"
)

// DefaultReapInterval is used when no interval is configured.
const DefaultReapInterval = 10 * time.Minute

// SessionReaper periodically drops identity sessions whose token expired.
type SessionReaper struct {
	sessions *session.Sessions
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSessionReaper creates a reaper for sessions.
func NewSessionReaper(sessions *session.Sessions, log logger.Logger, interval time.Duration) *SessionReaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &SessionReaper{
		sessions: sessions,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection. It returns immediately.
func (sr *SessionReaper) Start(ctx context.Context) error {
	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sr.Collect()
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reaper. It must be called at most once.
func (sr *SessionReaper) Stop() {
	close(sr.stopCh)
}

// Collect removes expired sessions and returns how many went away.
func (sr *SessionReaper) Collect() int {
	removed := sr.sessions.Prune()
	if len(removed) == 0 {
		sr.logger.Debug("no expired sessions")
		return 0
	}

	for _, sess := range removed {
		sr.logger.Debug("session expired",
			logger.String("username", sess.Username),
			logger.String("tenant_id", sess.TenantID))
	}
	sr.logger.Info("expired sessions collected",
		logger.Int("removed", len(removed)),
		logger.Int("remaining", sr.sessions.Count()))
	return len(removed)
}
