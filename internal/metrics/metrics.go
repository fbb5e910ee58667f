package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofield_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geofield_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	snapshotsBuiltTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geofield_snapshots_built_total",
			Help: "Total number of snapshots built from model files.",
		},
	)

	snapshotBuildErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofield_snapshot_build_errors_total",
			Help: "Snapshot construction failures by error kind.",
		},
		[]string{"kind"},
	)

	snapshotAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "geofield_snapshot_age_seconds",
			Help: "Age of the current snapshot in seconds.",
		},
	)

	evaluationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geofield_field_evaluations_total",
			Help: "Total number of single-point field evaluations served.",
		},
	)

	evaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geofield_field_evaluation_duration_seconds",
			Help:    "Duration of field evaluations in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	gridPointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geofield_grid_points_total",
			Help: "Total number of grid points evaluated.",
		},
	)

	trackSamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geofield_track_samples_total",
			Help: "Total number of satellite track samples evaluated.",
		},
	)

	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geofield_snapshot_cache_hits_total",
			Help: "Snapshot cache hits.",
		},
	)

	cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geofield_snapshot_cache_misses_total",
			Help: "Snapshot cache misses.",
		},
	)

	cacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geofield_snapshot_cache_evictions_total",
			Help: "Snapshot cache evictions.",
		},
	)

	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "geofield_snapshot_cache_entries",
			Help: "Current number of cached snapshots.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		snapshotsBuiltTotal,
		snapshotBuildErrorsTotal,
		snapshotAgeSeconds,
		evaluationsTotal,
		evaluationDuration,
		gridPointsTotal,
		trackSamplesTotal,
		cacheHits,
		cacheMisses,
		cacheEvictions,
		cacheEntries,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncSnapshotsBuilt records a successful snapshot construction.
func IncSnapshotsBuilt() { snapshotsBuiltTotal.Inc() }

// IncSnapshotBuildError records a failed snapshot construction by kind.
func IncSnapshotBuildError(kind string) { snapshotBuildErrorsTotal.WithLabelValues(kind).Inc() }

// SetSnapshotAge publishes the current snapshot age gauge.
func SetSnapshotAge(seconds float64) { snapshotAgeSeconds.Set(seconds) }

// RecordEvaluation records one field evaluation and its duration.
func RecordEvaluation(d time.Duration) {
	evaluationsTotal.Inc()
	evaluationDuration.Observe(d.Seconds())
}

// AddGridPoints records a batch of evaluated grid points.
func AddGridPoints(n int) { gridPointsTotal.Add(float64(n)) }

// AddTrackSamples records a batch of evaluated track samples.
func AddTrackSamples(n int) { trackSamplesTotal.Add(float64(n)) }

// IncCacheHits records a snapshot cache hit.
func IncCacheHits() { cacheHits.Inc() }

// IncCacheMisses records a snapshot cache miss.
func IncCacheMisses() { cacheMisses.Inc() }

// AddCacheEvictions records evicted snapshot cache entries.
func AddCacheEvictions(n int) { cacheEvictions.Add(float64(n)) }

// SetCacheEntries publishes the snapshot cache size gauge.
func SetCacheEntries(n int) { cacheEntries.Set(float64(n)) }

// knownRoutes are the registered paths; anything else is labeled
// "other" to keep metric cardinality bounded against scanners probing
// random URLs.
var knownRoutes = map[string]bool{
	"/healthz":            true,
	"/readyz":             true,
	"/metrics":            true,
	"/api/v1/field":       true,
	"/api/v1/grid":        true,
	"/api/v1/track":       true,
	"/api/v1/model":       true,
	"/api/v1/cache/stats": true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
