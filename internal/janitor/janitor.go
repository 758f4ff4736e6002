// Package janitor runs the periodic maintenance sweep: expired sessions are
// purged and the per-dorm occupancy gauges are refreshed.
package janitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"dormstay/internal/metrics"
	"dormstay/internal/store"
)

// Store is the persistence the sweep needs.
type Store interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	ListDorms(ctx context.Context) ([]store.DormView, error)
}

// Service runs SweepOnce on a fixed interval.
type Service struct {
	store    Store
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates a janitor sweeping every interval.
func NewService(s Store, interval time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		store:    s,
		interval: interval,
		now:      time.Now,
		log:      logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Service) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("janitor started")
	s.SweepOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("janitor shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce performs a single maintenance round. Failures are logged and the
// remaining steps still run.
func (s *Service) SweepOnce(ctx context.Context) {
	purged, err := s.store.PurgeExpiredSessions(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("session purge failed")
	} else if purged > 0 {
		metrics.ObserveSessionsPurged(purged)
		s.log.Debug().Int64("sessions", purged).Msg("expired sessions purged")
	}

	dorms, err := s.store.ListDorms(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("occupancy refresh failed")
		return
	}
	gauges := make([]metrics.DormGauge, 0, len(dorms))
	for _, d := range dorms {
		gauges = append(gauges, metrics.DormGauge{ID: d.ID, Name: d.Name, Capacity: d.Capacity, Population: d.Population})
	}
	metrics.SetDormTotals(gauges)
}
