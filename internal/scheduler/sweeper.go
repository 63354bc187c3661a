// Package scheduler runs the periodic housekeeping jobs of the API.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go-extension-dashboard/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper closes sessions that stopped sending heartbeats.
type Sweeper struct {
	sessions service.SessionService
	notifier service.Notifier
	maxIdle  time.Duration
	logger   *zap.Logger

	schedule string
	cron     *cron.Cron
}

// NewSweeper validates schedule (standard cron syntax or @every) up front.
func NewSweeper(schedule string, maxIdle time.Duration, sessions service.SessionService, notifier service.Notifier, logger *zap.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sweeper{
		sessions: sessions,
		notifier: notifier,
		maxIdle:  maxIdle,
		logger:   logger.Named("sweeper"),
		schedule: schedule,
		cron:     cron.New(),
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce() }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("idle session sweeper started",
		zap.String("schedule", s.schedule), zap.Duration("max_idle", s.maxIdle))
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single sweep and returns how many sessions it closed.
func (s *Sweeper) RunOnce() int {
	evicted := s.sessions.SweepIdle(s.maxIdle)
	for _, id := range evicted {
		if s.notifier != nil {
			s.notifier.BroadcastEvent(service.EventUserStatusUpdate, map[string]interface{}{
				"user_id": id.String(),
				"status":  "offline",
			})
		}
	}
	if len(evicted) > 0 {
		s.logger.Info("closed idle sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}
