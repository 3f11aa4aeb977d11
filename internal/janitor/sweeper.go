// Package janitor clears recovery codes that expired without being used.
// Verification never depends on it: expired codes are rejected either way.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/metrics"
	"github.com/robfig/cron/v3"
)

const batchSize = 500

// OTPStore is satisfied by the postgres IdentityRepository.
type OTPStore interface {
	ClearExpiredOTPs(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type Sweeper struct {
	store    OTPStore
	schedule cron.Schedule
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper parses spec as a standard cron expression or descriptor ("@every 5m").
func NewSweeper(store OTPStore, spec string, logger *slog.Logger) (*Sweeper, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}
	return &Sweeper{
		store:    store,
		schedule: sched,
		logger:   logger.With("component", "otp_sweeper"),
		now:      time.Now,
	}, nil
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started")

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper shut down")
			return
		case <-timer.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep clears expired slots in batches until none are left.
func (s *Sweeper) Sweep(ctx context.Context) int {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	cutoff := s.now()
	total := 0
	for {
		n, err := s.store.ClearExpiredOTPs(ctx, cutoff, batchSize)
		if err != nil {
			s.logger.ErrorContext(ctx, "clear expired otps", "error", err)
			break
		}
		total += n
		if n < batchSize {
			break
		}
	}

	if total > 0 {
		metrics.OTPSweptTotal.Add(float64(total))
		s.logger.InfoContext(ctx, "expired otps cleared", "count", total)
	}
	return total
}
