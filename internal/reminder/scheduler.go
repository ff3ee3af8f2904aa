package reminder

import (
	"context"
	"time"

	"coo-bot/internal/logger"
)

// Scheduler drives Service.Tick on a fixed cadence. One shared ticker serves
// all definitions; no per-reminder timers are ever spawned.
type Scheduler struct {
	service  *Service
	interval time.Duration
}

func NewScheduler(service *Service, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{service: service, interval: interval}
}

// Run blocks, ticking until ctx is cancelled. Intended to be started through
// crash.SafeGoroutine.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Infof("Reminder scheduler started, tick interval %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.service.Tick(ctx, now)
		case <-ctx.Done():
			logger.Infof("Reminder scheduler stopped")
			return
		}
	}
}
