package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Runs
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manimgen_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"outcome"}, // success|failed
	)
	RunFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manimgen_run_failures_total",
			Help: "Failed pipeline runs by error kind and stage",
		},
		[]string{"kind", "stage"},
	)
	ActiveRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "manimgen_runs_active",
			Help: "Runs currently holding the pipeline",
		},
	)
	RunDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "manimgen_run_duration_seconds",
			Help:    "Histogram of full run durations in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s..512s
		},
	)
	StageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "manimgen_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"stage"},
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manimgen_llm_requests_total",
			Help: "Number of completion requests by model",
		},
		[]string{"model"},
	)

	// Renderer
	RenderExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manimgen_render_exits_total",
			Help: "manim process exits by exit code",
		},
		[]string{"code"},
	)

	// Websockets
	WebsocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "manimgen_ws_connections",
			Help: "Current number of open websocket connections",
		},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manimgen_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		Runs,
		RunFailures,
		ActiveRuns,
		RunDurationSeconds,
		StageDurationSeconds,
		LLMRequests,
		RenderExits,
		WebsocketConnections,
		Errors,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Runs
func IncRun(outcome string) {
	Runs.WithLabelValues(outcome).Inc()
}

func IncRunFailure(kind, stage string) {
	RunFailures.WithLabelValues(kind, stage).Inc()
}

func IncActiveRuns() { ActiveRuns.Inc() }
func DecActiveRuns() { ActiveRuns.Dec() }

func ObserveRunDuration(d time.Duration) {
	RunDurationSeconds.Observe(d.Seconds())
}

func ObserveStageDuration(stage string, d time.Duration) {
	StageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// LLM
func IncLLMRequest(model string) {
	LLMRequests.WithLabelValues(model).Inc()
}

// Renderer
func IncRenderExit(code string) {
	RenderExits.WithLabelValues(code).Inc()
}

// Websocket
func IncWSConnections() {
	WebsocketConnections.Inc()
}

func DecWSConnections() {
	WebsocketConnections.Dec()
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
