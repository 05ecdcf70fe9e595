// Package metrics exposes Prometheus collectors for pipeline runs and keeps
// the health snapshot served on /health.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderRuns counts provider calls by outcome (ok, failed).
	ProviderRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engtrends",
			Name:      "provider_runs_total",
			Help:      "Provider fetches by source and status",
		},
		[]string{"source", "status"},
	)

	ItemsKept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "engtrends",
		Name:      "items_total",
		Help:      "Items kept after normalization and dedup",
	})

	RecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "engtrends",
		Name:      "records_dropped_total",
		Help:      "Raw records without a title or link",
	})

	DuplicatesFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "engtrends",
		Name:      "duplicates_filtered_total",
		Help:      "Items removed by dedup",
	})

	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "engtrends",
		Name:      "notifications_sent_total",
		Help:      "Digests delivered to Telegram",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "engtrends",
		Name:      "run_duration_seconds",
		Help:      "Duration of a full pipeline run",
		Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
	})
)

// RunSummary is what a finished run reports.
type RunSummary struct {
	Duration   time.Duration
	Sources    map[string]bool // source name -> succeeded
	Items      int
	Dropped    int
	Duplicates int
}

// Health is the run state behind /health.
type Health struct {
	mu sync.RWMutex

	Runs          int64
	LastRunTime   time.Time
	LastDuration  time.Duration
	LastItems     int
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Health{IsHealthy: true}

// RecordRun updates the collectors and marks the process healthy.
func (h *Health) RecordRun(s RunSummary) {
	for source, ok := range s.Sources {
		status := "ok"
		if !ok {
			status = "failed"
		}
		ProviderRuns.WithLabelValues(source, status).Inc()
	}
	ItemsKept.Add(float64(s.Items))
	RecordsDropped.Add(float64(s.Dropped))
	DuplicatesFiltered.Add(float64(s.Duplicates))
	RunDuration.Observe(s.Duration.Seconds())

	h.mu.Lock()
	defer h.mu.Unlock()
	h.Runs++
	h.LastRunTime = time.Now()
	h.LastDuration = s.Duration
	h.LastItems = s.Items
	h.IsHealthy = true
}

func (h *Health) SetError(err string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastError = err
	h.LastErrorTime = time.Now()
	h.IsHealthy = false
}

func (h *Health) Healthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.IsHealthy
}

func (h *Health) GetStats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := map[string]any{
		"runs":                 h.Runs,
		"last_items":           h.LastItems,
		"last_run_duration_ms": h.LastDuration.Milliseconds(),
		"last_error":           h.LastError,
		"is_healthy":           h.IsHealthy,
	}
	if !h.LastRunTime.IsZero() {
		stats["last_run_time"] = h.LastRunTime.Format(time.RFC3339)
	}
	if !h.LastErrorTime.IsZero() {
		stats["last_error_time"] = h.LastErrorTime.Format(time.RFC3339)
	}
	return stats
}
