// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	bookingAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dormstay",
		Name:      "booking_attempts_total",
		Help:      "Booking attempts by outcome.",
	}, []string{"outcome"})

	bookingDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dormstay",
		Name:      "booking_denials_total",
		Help:      "Booking denial reasons by kind.",
	}, []string{"kind"})

	bookingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dormstay",
		Name:      "booking_duration_seconds",
		Help:      "Time spent in the booking transaction, retries included.",
		Buckets:   prometheus.DefBuckets,
	})

	pushSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dormstay",
		Name:      "push_notifications_total",
		Help:      "Web push deliveries by result.",
	}, []string{"result"})

	dormCapacity = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dormstay",
		Name:      "dorm_capacity",
		Help:      "Total room capacity per dorm at the last sweep.",
	}, []string{"dorm_id", "dorm"})

	dormPopulation = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dormstay",
		Name:      "dorm_population",
		Help:      "Placed students per dorm at the last sweep.",
	}, []string{"dorm_id", "dorm"})

	sessionsPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dormstay",
		Name:      "sessions_purged_total",
		Help:      "Expired sessions removed by the janitor.",
	})

	// Registry holds every collector of the service plus the Go runtime collectors.
	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(
		bookingAttempts,
		bookingDenials,
		bookingDuration,
		pushSent,
		dormCapacity,
		dormPopulation,
		sessionsPurged,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveBooking records one booking attempt.
func ObserveBooking(outcome string, took time.Duration, denialKinds ...string) {
	bookingAttempts.WithLabelValues(outcome).Inc()
	bookingDuration.Observe(took.Seconds())
	for _, k := range denialKinds {
		bookingDenials.WithLabelValues(k).Inc()
	}
}

// ObservePush records one web push delivery.
func ObservePush(result string) {
	pushSent.WithLabelValues(result).Inc()
}

// DormGauge is the occupancy of one dorm as exported by SetDormTotals.
type DormGauge struct {
	ID         int64
	Name       string
	Capacity   int64
	Population int64
}

// SetDormTotals replaces the occupancy gauges with the given per-dorm values.
func SetDormTotals(dorms []DormGauge) {
	dormCapacity.Reset()
	dormPopulation.Reset()
	for _, d := range dorms {
		id := strconv.FormatInt(d.ID, 10)
		dormCapacity.WithLabelValues(id, d.Name).Set(float64(d.Capacity))
		dormPopulation.WithLabelValues(id, d.Name).Set(float64(d.Population))
	}
}

// ObserveSessionsPurged counts removed sessions.
func ObserveSessionsPurged(n int64) {
	sessionsPurged.Add(float64(n))
}
