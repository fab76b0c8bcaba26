package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tradesparky/pricewatch/internal/store"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Sweeper deactivates deals whose expiry has passed. One pass is a single
// update; it runs to completion or fails entirely.
type Sweeper struct {
	store        store.Store
	logger       *zap.Logger
	cron         *cron.Cron
	dealsExpired metric.Int64Counter
}

func NewSweeper(st store.Store, logger *zap.Logger, meter metric.Meter) (*Sweeper, error) {
	s := &Sweeper{
		store:  st,
		logger: logger.Named("sweep"),
	}
	if meter != nil {
		counter, err := meter.Int64Counter("sweep_deals_expired_total",
			metric.WithDescription("Deals flipped inactive by the expiry sweep"))
		if err != nil {
			return nil, err
		}
		s.dealsExpired = counter
	}
	return s, nil
}

// Run performs one sweep pass and returns the number of deals deactivated.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	flipped, err := s.store.ExpireDeals(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
		return 0, err
	}
	if s.dealsExpired != nil && flipped > 0 {
		s.dealsExpired.Add(ctx, flipped)
	}
	s.logger.Info("expiry sweep finished", zap.Int64("deals_expired", flipped))
	return flipped, nil
}

// Schedule starts a cron schedule (e.g. "@hourly") that runs the sweep until
// Stop is called.
func (s *Sweeper) Schedule(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		_, _ = s.Run(ctx)
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.logger.Info("expiry sweep scheduled", zap.String("schedule", spec))
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
