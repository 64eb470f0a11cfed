// Package maintenance runs periodic housekeeping jobs on a cron schedule.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// OrphanSweeper deletes category detail rows that no longer match a listing.
type OrphanSweeper interface {
	DeleteOrphanedDetails(ctx context.Context) (int64, error)
}

// LimiterPruner drops idle rate-limit buckets.
type LimiterPruner interface {
	Prune(idle time.Duration) int
}

const (
	jobTimeout     = 2 * time.Minute
	limiterIdleTTL = 30 * time.Minute
)

type Scheduler struct {
	cron    *cron.Cron
	sweeper OrphanSweeper
	limiter LimiterPruner
	log     *slog.Logger
}

func NewScheduler(sweeper OrphanSweeper, limiter LimiterPruner, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		sweeper: sweeper,
		limiter: limiter,
		log:     log.With("component", "maintenance"),
	}
}

// Start registers the jobs and starts the cron runner. sweepSpec uses the
// six-field (with seconds) cron format.
func (s *Scheduler) Start(sweepSpec string) error {
	if _, err := s.cron.AddFunc(sweepSpec, s.SweepOrphans); err != nil {
		return fmt.Errorf("schedule orphan sweep %q: %w", sweepSpec, err)
	}
	if s.limiter != nil {
		if _, err := s.cron.AddFunc("0 */10 * * * *", s.PruneLimiter); err != nil {
			return fmt.Errorf("schedule limiter prune: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info("maintenance scheduler started", "sweep_schedule", sweepSpec)
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) SweepOrphans() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.sweeper.DeleteOrphanedDetails(ctx)
	if err != nil {
		s.log.Error("orphan sweep failed", "error", err, "removed", n)
		return
	}
	s.log.Info("orphan sweep completed", "removed", n, "took", time.Since(start))
}

func (s *Scheduler) PruneLimiter() {
	if n := s.limiter.Prune(limiterIdleTTL); n > 0 {
		s.log.Debug("pruned idle rate-limit buckets", "count", n)
	}
}
