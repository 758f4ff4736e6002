package janitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormstay/internal/booking"
	"dormstay/internal/metrics"
	"dormstay/internal/model"
	"dormstay/internal/store"
)

// mockStore is a mock implementation of the janitor Store interface.
type mockStore struct {
	PurgeFunc     func(ctx context.Context, now time.Time) (int64, error)
	ListDormsFunc func(ctx context.Context) ([]store.DormView, error)
}

func (m *mockStore) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return m.PurgeFunc(ctx, now)
}

func (m *mockStore) ListDorms(ctx context.Context) ([]store.DormView, error) {
	return m.ListDormsFunc(ctx)
}

// dormGauges reads a per-dorm gauge from the registry keyed by "id/name".
func dormGauges(t *testing.T, name string) map[string]float64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			out[labels["dorm_id"]+"/"+labels["dorm"]] = m.GetGauge().GetValue()
		}
	}
	return out
}

func TestSweepOnce(t *testing.T) {
	fixed := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	t.Run("purges with the current time and reads dorm totals", func(t *testing.T) {
		var purgedAt time.Time
		listed := false
		s := NewService(&mockStore{
			PurgeFunc: func(ctx context.Context, now time.Time) (int64, error) {
				purgedAt = now
				return 3, nil
			},
			ListDormsFunc: func(ctx context.Context) ([]store.DormView, error) {
				listed = true
				return []store.DormView{
					{Dorm: model.Dorm{ID: 1, Name: "North"}, Totals: booking.Totals{Capacity: 25, Population: 13}},
				}, nil
			},
		}, time.Minute, zerolog.Nop())
		s.now = func() time.Time { return fixed }

		s.SweepOnce(context.Background())
		assert.Equal(t, fixed, purgedAt)
		assert.True(t, listed)
	})

	t.Run("dorms sharing a name keep separate gauges", func(t *testing.T) {
		s := NewService(&mockStore{
			PurgeFunc: func(ctx context.Context, now time.Time) (int64, error) {
				return 0, nil
			},
			ListDormsFunc: func(ctx context.Context) ([]store.DormView, error) {
				return []store.DormView{
					{Dorm: model.Dorm{ID: 1, Name: "North"}, Totals: booking.Totals{Capacity: 10, Population: 4}},
					{Dorm: model.Dorm{ID: 2, Name: "North"}, Totals: booking.Totals{Capacity: 15, Population: 9}},
				}, nil
			},
		}, time.Minute, zerolog.Nop())

		s.SweepOnce(context.Background())
		assert.Equal(t, map[string]float64{"1/North": 10, "2/North": 15}, dormGauges(t, "dormstay_dorm_capacity"))
		assert.Equal(t, map[string]float64{"1/North": 4, "2/North": 9}, dormGauges(t, "dormstay_dorm_population"))
	})

	t.Run("purge failure does not stop the refresh", func(t *testing.T) {
		listed := false
		s := NewService(&mockStore{
			PurgeFunc: func(ctx context.Context, now time.Time) (int64, error) {
				return 0, errors.New("database is down")
			},
			ListDormsFunc: func(ctx context.Context) ([]store.DormView, error) {
				listed = true
				return nil, nil
			},
		}, time.Minute, zerolog.Nop())

		s.SweepOnce(context.Background())
		assert.True(t, listed)
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	sweeps := make(chan struct{}, 8)
	s := NewService(&mockStore{
		PurgeFunc: func(ctx context.Context, now time.Time) (int64, error) {
			sweeps <- struct{}{}
			return 0, nil
		},
		ListDormsFunc: func(ctx context.Context) ([]store.DormView, error) {
			return nil, nil
		},
	}, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-sweeps
	<-sweeps
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
