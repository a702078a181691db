// Package metrics records tool call and lifecycle metrics for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AltairaLabs/mermaider-mcp/internal/lifecycle"
)

const namespace = "mermaider"

// Recorder owns a registry with the server's collectors
type Recorder struct {
	registry     *prometheus.Registry
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	state        prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry, so that several
// recorders can coexist in tests.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls handled, by tool and result.",
		}, []string{"tool", "result"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Time spent handling a tool call.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"tool"}),
		state: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lifecycle_state",
			Help:      "Lifecycle state: 0 starting, 1 serving, 2 draining, 3 closed.",
		}),
	}
}

// ObserveToolCall records one handled tool call
func (r *Recorder) ObserveToolCall(tool string, isError bool, duration time.Duration) {
	result := "ok"
	if isError {
		result = "error"
	}
	r.toolCalls.WithLabelValues(tool, result).Inc()
	r.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// SetState records the lifecycle state. It has the signature of a
// lifecycle state listener.
func (r *Recorder) SetState(state lifecycle.State) {
	r.state.Set(float64(state))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
