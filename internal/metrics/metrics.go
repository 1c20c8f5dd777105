package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketsim_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rocketsim_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	environmentResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketsim_environment_resolutions_total",
			Help: "Environment resolutions by source (cache or forecast).",
		},
		[]string{"source"},
	)

	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketsim_environment_cache_misses_total",
			Help: "Artifact cache misses by reason.",
		},
		[]string{"reason"},
	)

	forecastFetchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rocketsim_forecast_fetch_duration_seconds",
			Help:    "Duration of remote forecast fetches.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	forecastFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rocketsim_forecast_failures_total",
			Help: "Forecast fetches that failed or timed out.",
		},
	)

	persistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rocketsim_artifact_persist_failures_total",
			Help: "Artifacts that could not be written after a forecast fetch.",
		},
	)

	memoryCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketsim_memory_cache_lookups_total",
			Help: "In-memory environment cache lookups by result (hit or miss).",
		},
		[]string{"result"},
	)

	memoryCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rocketsim_memory_cache_entries",
			Help: "Environments held in memory.",
		},
	)

	memoryCacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rocketsim_memory_cache_evictions_total",
			Help: "Environments evicted from memory.",
		},
	)

	apiErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketsim_api_errors_total",
			Help: "Rejected or failed API requests by reason.",
		},
		[]string{"reason"},
	)

	runErrors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rocketsim_run_errors",
			Help: "Error count of the most recent run.",
		},
	)

	runDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rocketsim_run_duration_seconds",
			Help: "Wall time of the most recent run.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(environmentResolutions)
	prometheus.MustRegister(cacheMisses)
	prometheus.MustRegister(forecastFetchSeconds)
	prometheus.MustRegister(forecastFailures)
	prometheus.MustRegister(persistFailures)
	prometheus.MustRegister(memoryCacheLookups)
	prometheus.MustRegister(memoryCacheEntries)
	prometheus.MustRegister(memoryCacheEvictions)
	prometheus.MustRegister(apiErrors)
	prometheus.MustRegister(runErrors)
	prometheus.MustRegister(runDurationSeconds)
}

// Cache miss reasons.
const (
	MissNotFound = "not_found"
	MissInvalid  = "invalid"
	MissLoad     = "load_error"
)

// RecordResolution counts a resolved environment by source.
func RecordResolution(source string) {
	environmentResolutions.WithLabelValues(source).Inc()
}

// RecordCacheMiss counts a cache miss.
func RecordCacheMiss(reason string) {
	cacheMisses.WithLabelValues(reason).Inc()
}

// RecordFetch observes a forecast fetch.
func RecordFetch(d time.Duration, err error) {
	forecastFetchSeconds.Observe(d.Seconds())
	if err != nil {
		forecastFailures.Inc()
	}
}

// RecordPersistFailure counts an artifact that could not be written.
func RecordPersistFailure() {
	persistFailures.Inc()
}

// RecordMemoryLookup counts an in-memory cache lookup.
func RecordMemoryLookup(hit bool) {
	if hit {
		memoryCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	memoryCacheLookups.WithLabelValues("miss").Inc()
}

// SetMemoryEntries sets the in-memory cache size.
func SetMemoryEntries(n int) {
	memoryCacheEntries.Set(float64(n))
}

// AddMemoryEvictions counts evicted in-memory entries.
func AddMemoryEvictions(n int) {
	memoryCacheEvictions.Add(float64(n))
}

// IncAPIErrors counts a rejected or failed API request.
func IncAPIErrors(reason string) {
	apiErrors.WithLabelValues(reason).Inc()
}

// RecordRun sets the outcome gauges of a finished run.
func RecordRun(errors int, d time.Duration) {
	runErrors.Set(float64(errors))
	runDurationSeconds.Set(d.Seconds())
}

// WriteTextfile writes the default registry in the node_exporter textfile
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are reported verbatim; everything else collapses.
var knownRoutes = map[string]bool{
	"/":                true,
	"/healthz":         true,
	"/readyz":          true,
	"/metrics":         true,
	"/api/v1/vehicles": true,
	"/api/v1/motors":   true,
}

var (
	environmentRoute = regexp.MustCompile(`^/api/v1/environment/[^/]+$`)
	vehicleRoute     = regexp.MustCompile(`^/api/v1/vehicles/[^/]+$`)
)

// normalizeRoute maps a request path to a bounded set of labels.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if environmentRoute.MatchString(path) {
		return "/api/v1/environment/{date}"
	}
	if vehicleRoute.MatchString(path) {
		return "/api/v1/vehicles/{name}"
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
