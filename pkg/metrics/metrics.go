// Package metrics holds the Prometheus collectors shared by the availability
// services. Collectors register on the default registry exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opatam"

var (
	SlotComputationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "availability",
		Name:      "slot_computation_seconds",
		Help:      "Time spent computing one member's slots for one day.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"outcome"})

	MemberFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "availability",
		Name:      "member_failures_total",
		Help:      "Members excluded from an aggregation because their lookup failed.",
	})

	SearchDaysChecked = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "availability",
		Name:      "search_days_checked",
		Help:      "Days examined by one next-available search.",
		Buckets:   []float64{1, 2, 3, 5, 7, 14, 21, 30, 45, 60, 90},
	})

	SearchFailedDays = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "availability",
		Name:      "search_failed_days_total",
		Help:      "Days treated as empty because their lookup failed.",
	})

	NextAvailableCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "availability",
		Name:      "next_available_cache_total",
		Help:      "Next-available cache lookups by result.",
	}, []string{"result"})

	RecalculationProviders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recalculation",
		Name:      "providers_total",
		Help:      "Providers processed by the recalculation job by status.",
	}, []string{"status"})

	RecalculationRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "recalculation",
		Name:      "run_seconds",
		Help:      "Wall time of a full recalculation run.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	RecalculationTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recalculation",
		Name:      "truncated_runs_total",
		Help:      "Recalculation runs stopped early by cancellation.",
	})

	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bookings",
		Name:      "created_total",
		Help:      "Bookings created by origin (slot_token or manual).",
	}, []string{"origin"})

	BookingConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bookings",
		Name:      "conflicts_total",
		Help:      "Booking attempts rejected because the time was taken, by reason.",
	}, []string{"reason"})

	BookingStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bookings",
		Name:      "status_changes_total",
		Help:      "Booking status transitions.",
	}, []string{"from", "to"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	KafkaMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "messages_total",
		Help:      "Kafka messages by direction, topic and outcome.",
	}, []string{"direction", "topic", "outcome"})

	KafkaDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "operation_seconds",
		Help:      "Kafka publish and handle latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"direction", "topic"})
)
