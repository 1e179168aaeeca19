package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking outcomes use a bounded label set; anything unexpected lands in
// "error" rather than minting new series.
var (
	BookingOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_requests_total",
		Help: "Booking attempts by final outcome.",
	}, []string{"outcome"})

	AvailabilityRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "availability_requests_total",
		Help: "Availability day-grid computations served.",
	})

	AvailabilityCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_hits_total",
		Help: "Availability responses served from cache.",
	})

	GuardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conflict_guard_duration_seconds",
		Help:    "Wall time of the booking conflict-guard transaction.",
		Buckets: prometheus.DefBuckets,
	})
)

const (
	OutcomeConfirmed = "confirmed"
	OutcomeReplayed  = "replayed"
	OutcomeConflict  = "conflict"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)
