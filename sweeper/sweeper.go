// Package sweeper periodically purges pending submissions whose session
// never sent a location.
package sweeper

import (
	"context"
	"time"

	"github.com/apex/log"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/hooks"
	"github.com/greenloop/wastebot/metrics"
	"github.com/greenloop/wastebot/store"
)

// Config holds the sweeper configuration.
type Config struct {
	// TTL is how long a pending submission may wait for its location.
	TTL time.Duration

	// Interval between sweep passes.
	Interval time.Duration
}

// DefaultConfig returns the default sweeper configuration.
func DefaultConfig() Config {
	return Config{
		TTL:      wastebot.DefaultPendingTTL,
		Interval: wastebot.DefaultSweepInterval,
	}
}

// Sweeper purges expired pending submissions on a fixed interval.
type Sweeper struct {
	store  store.PendingStore
	config Config
	hooks  hooks.Hooks
	logger log.Interface
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithHooks sets the event hooks.
func WithHooks(h hooks.Hooks) Option {
	return func(s *Sweeper) { s.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(logger log.Interface) Option {
	return func(s *Sweeper) { s.logger = logger }
}

// New creates a sweeper.
func New(st store.PendingStore, cfg Config, opts ...Option) *Sweeper {
	if cfg.TTL == 0 {
		cfg.TTL = wastebot.DefaultPendingTTL
	}
	if cfg.Interval == 0 {
		cfg.Interval = wastebot.DefaultSweepInterval
	}
	s := &Sweeper{
		store:  st,
		config: cfg,
		hooks:  hooks.NopHooks{},
		logger: log.Log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep purges submissions created before now minus the TTL and returns
// how many were removed. Safe to run concurrently with normal traffic:
// the store's delete is the same atomic operation location arrival uses,
// scoped by age instead of session.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.config.TTL)
	purged, err := s.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		metrics.SubmissionsExpiredTotal.Add(float64(purged))
		s.logger.WithField("purged", purged).Info("expired pending submissions purged")

		e := hooks.SubmissionsPurgedEvent{
			Purged:    purged,
			Cutoff:    cutoff,
			Timestamp: now,
		}
		if err := s.hooks.OnSubmissionsPurged(ctx, e); err != nil {
			s.logger.WithError(err).Warn("submissions purged hook failed")
		}
	}
	return purged, nil
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.Sweep(ctx, now); err != nil {
				s.logger.WithError(err).Error("sweep failed")
			}
		}
	}
}
