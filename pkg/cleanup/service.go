// Package cleanup provides the session lifecycle sweeper: idle sessions are
// marked inactive and turns past the retention window are removed.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/agrosense/agrosense/pkg/session"
)

// Options configures the sweeper.
type Options struct {
	Interval   time.Duration // sweep period (default 60s)
	SessionTTL time.Duration // idle time before inactive (default 30m)
	RetainDays int           // turn retention (default 7)
}

// Service is a best-effort background sweeper; losing a tick is tolerable.
type Service struct {
	opts     Options
	sessions *session.Service

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService builds the sweeper.
func NewService(opts Options, sessions *session.Service) *Service {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.RetainDays <= 0 {
		opts.RetainDays = 7
	}
	return &Service{opts: opts, sessions: sessions}
}

// Start launches the background sweep loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Session sweeper started",
		"interval", s.opts.Interval,
		"session_ttl", s.opts.SessionTTL,
		"retain_days", s.opts.RetainDays)
}

// Stop signals the loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Session sweeper stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.Sweep(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Exposed for tests and manual triggering.
func (s *Service) Sweep(ctx context.Context) {
	if n, err := s.sessions.MarkInactive(ctx, s.opts.SessionTTL); err != nil {
		slog.Error("Sweep: marking idle sessions failed", "error", err)
	} else if n > 0 {
		slog.Info("Sweep: marked idle sessions inactive", "count", n)
	}

	if n, err := s.sessions.DeleteOlderThan(ctx, s.opts.RetainDays); err != nil {
		slog.Error("Sweep: retention delete failed", "error", err)
	} else if n > 0 {
		slog.Info("Sweep: removed old conversation turns", "count", n)
	}
}
