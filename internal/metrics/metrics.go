// Package metrics exports lifecycle operation metrics in the Prometheus format.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/lostfound/internal/model"
)

// Recorder counts and times lifecycle operations and tracks partition sizes.
// Each Recorder owns its registry.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	partitions *prometheus.GaugeVec
}

// NewRecorder registers the lostfound collectors plus the Go runtime collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lostfound",
			Name:      "operations_total",
			Help:      "Lifecycle operations by name and result.",
		}, []string{"op", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lostfound",
			Name:      "operation_duration_seconds",
			Help:      "Lifecycle operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		partitions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lostfound",
			Name:      "records",
			Help:      "Records per partition.",
		}, []string{"partition"}),
	}
	r.registry.MustRegister(
		r.operations,
		r.durations,
		r.partitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records a lifecycle operation outcome.
func (r *Recorder) Observe(_ context.Context, op string, success bool, d time.Duration) {
	if op == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	r.operations.WithLabelValues(op, result).Inc()
	r.durations.WithLabelValues(op).Observe(d.Seconds())
}

// Partitions sets the partition size gauges.
func (r *Recorder) Partitions(counts map[model.Partition]int) {
	for p, n := range counts {
		r.partitions.WithLabelValues(string(p)).Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
