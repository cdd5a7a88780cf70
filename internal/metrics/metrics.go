package metrics

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "devdigest"

// Recorder holds the metrics of one digest run. Each run gets its own
// registry so a push carries only that run's values.
type Recorder struct {
	registry *prometheus.Registry

	ItemsPublished    *prometheus.CounterVec
	RequestsCompleted prometheus.Counter
	DegradedInputs    *prometheus.CounterVec
	ModelCalls        prometheus.Counter
	ModelTokens       *prometheus.CounterVec
	RunDuration       prometheus.Gauge
	LastSuccess       prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		ItemsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devdigest_items_published_total",
				Help: "Records created in the workspace database, by type",
			},
			[]string{"type"},
		),
		RequestsCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "devdigest_requests_completed_total",
				Help: "Pending requests marked Done",
			},
		),
		DegradedInputs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devdigest_degraded_inputs_total",
				Help: "Read stages that fell back to a placeholder",
			},
			[]string{"stage"},
		),
		ModelCalls: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "devdigest_model_calls_total",
				Help: "Messages API calls, including continuations",
			},
		),
		ModelTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devdigest_model_tokens_total",
				Help: "Tokens reported by the Messages API",
			},
			[]string{"direction"},
		),
		RunDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "devdigest_run_duration_seconds",
				Help: "Wall time of the last run",
			},
		),
		LastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "devdigest_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push replaces this job's metrics on the Pushgateway at url.
func (r *Recorder) Push(url string, timeout time.Duration) error {
	client := cleanhttp.DefaultClient()
	client.Timeout = timeout

	if err := push.New(url, jobName).Gatherer(r.registry).Client(client).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
