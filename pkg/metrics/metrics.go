// Package metrics exposes engine counters on the default Prometheus registry.
package metrics

import (
	"sync"
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	eventsTotalCounter         *prometheus.CounterVec
	executionsTotalCounter     *prometheus.CounterVec
	actionsTotalCounter        *prometheus.CounterVec
	executionDurationMetric    prometheus.Histogram
	normalizationErrorsCounter *prometheus.CounterVec
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		eventsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instaflow_events_total",
				Help: "Total number of normalized trigger events by kind.",
			},
			[]string{"kind"},
		)

		executionsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instaflow_executions_total",
				Help: "Total number of flow executions by status.",
			},
			[]string{"status"},
		)

		actionsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instaflow_actions_total",
				Help: "Total number of dispatched actions by capability and outcome.",
			},
			[]string{"capability", "outcome"},
		)

		executionDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "instaflow_execution_duration_seconds",
				Help:    "Duration of flow executions in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		normalizationErrorsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instaflow_normalization_errors_total",
				Help: "Total number of dropped webhook payloads by reason.",
			},
			[]string{"reason"},
		)

		prometheus.MustRegister(
			eventsTotalCounter,
			executionsTotalCounter,
			actionsTotalCounter,
			executionDurationMetric,
			normalizationErrorsCounter,
		)

		for _, status := range []models.ExecutionStatus{
			models.ExecutionStatusSuccess,
			models.ExecutionStatusPartialFailure,
			models.ExecutionStatusError,
		} {
			executionsTotalCounter.WithLabelValues(string(status))
		}
	})
}

func IncEvent(kind models.EventKind) {
	Init()
	eventsTotalCounter.WithLabelValues(string(kind)).Inc()
}

func IncExecution(status models.ExecutionStatus) {
	Init()
	executionsTotalCounter.WithLabelValues(string(status)).Inc()
}

func IncAction(capability string, ok bool) {
	Init()

	outcome := "ok"
	if !ok {
		outcome = "failed"
	}

	actionsTotalCounter.WithLabelValues(capability, outcome).Inc()
}

func ObserveExecutionDuration(d time.Duration) {
	Init()
	executionDurationMetric.Observe(d.Seconds())
}

func IncNormalizationError(reason string) {
	Init()
	normalizationErrorsCounter.WithLabelValues(reason).Inc()
}
