package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "afl_fantasy",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "afl_fantasy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "afl_fantasy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ingestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "afl_fantasy",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total number of stats feed ingest runs.",
		},
		[]string{"kind", "status"},
	)

	ingestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "afl_fantasy",
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Duration of stats feed ingest runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"kind"},
	)

	projectionsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "afl_fantasy",
			Subsystem: "projections",
			Name:      "computed_total",
			Help:      "Total number of player projections computed.",
		},
		[]string{"status"},
	)

	tradeAnalyses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "afl_fantasy",
			Subsystem: "trades",
			Name:      "analyses_total",
			Help:      "Total number of trade analyses served.",
		},
	)

	liveClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "afl_fantasy",
			Subsystem: "live",
			Name:      "websocket_clients",
			Help:      "Current number of connected live-score websocket clients.",
		},
	)

	liveBroadcasts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "afl_fantasy",
			Subsystem: "live",
			Name:      "broadcasts_total",
			Help:      "Total number of live score broadcasts.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ingestRuns,
		ingestDuration,
		projectionsComputed,
		tradeAnalyses,
		liveClients,
		liveBroadcasts,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordIngestRun records one ingest run.
func RecordIngestRun(kind string, duration time.Duration, err error) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	ingestRuns.WithLabelValues(kind, status).Inc()
	ingestDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordProjection records one computed projection.
func RecordProjection(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	projectionsComputed.WithLabelValues(status).Inc()
}

// RecordTradeAnalysis records one served trade analysis.
func RecordTradeAnalysis() {
	tradeAnalyses.Inc()
}

// LiveClientConnected adjusts the websocket client gauge.
func LiveClientConnected(delta int) {
	liveClients.Add(float64(delta))
}

// RecordLiveBroadcast records one live score broadcast.
func RecordLiveBroadcast() {
	liveBroadcasts.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource IDs so metric cardinality stays bounded.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/api"
	}
	resource := parts[1]
	switch resource {
	case "players", "squads", "rounds":
		if len(parts) == 2 {
			return "/api/" + resource
		}
		if len(parts) == 3 {
			return "/api/" + resource + "/:id"
		}
		return "/api/" + resource + "/:id/" + parts[3]
	default:
		return "/api/" + strings.Join(parts[1:], "/")
	}
}
