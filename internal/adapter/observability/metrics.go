package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30, 60},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider, operation and status",
		},
		[]string{"provider", "operation", "status"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "operation"},
	)

	// Outbound HTTP calls other than the LLM (share-link fetch, email API).
	ExternalCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_calls_total",
			Help: "Total number of outbound calls by service, operation and status",
		},
		[]string{"service", "operation", "status"},
	)
	ExternalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_duration_seconds",
			Help:    "Outbound call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"service", "operation"},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_analyses_total",
			Help: "Chat analysis requests by category and outcome",
		},
		[]string{"category", "outcome"},
	)
	ExtractionStrategyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_extractions_total",
			Help: "Transcript extractions by the strategy that produced turns",
		},
		[]string{"strategy"},
	)
	CompletenessRatingHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_completeness_rating",
			Help:    "Distribution of completeness ratings ([1,10])",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	WaitlistSignupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_signups_total",
			Help: "Waitlist signup attempts by result",
		},
		[]string{"result"},
	)

	JobsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Total number of jobs enqueued",
		},
		[]string{"type"},
	)
	JobsProcessing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobs_processing",
			Help: "Number of jobs currently processing",
		},
		[]string{"type"},
	)
	JobsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_completed_total",
			Help: "Total number of jobs completed",
		},
		[]string{"type"},
	)
	JobsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_failed_total",
			Help: "Total number of jobs failed",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIRequestsTotal,
			AIRequestDuration,
			ExternalCallsTotal,
			ExternalCallDuration,
			AnalysesTotal,
			ExtractionStrategyTotal,
			CompletenessRatingHistogram,
			WaitlistSignupsTotal,
			JobsEnqueuedTotal,
			JobsProcessing,
			JobsCompletedTotal,
			JobsFailedTotal,
		)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveAIRequest records one LLM call.
func ObserveAIRequest(provider, operation string, dur time.Duration, err error) {
	AIRequestsTotal.WithLabelValues(provider, operation, statusLabel(err)).Inc()
	AIRequestDuration.WithLabelValues(provider, operation).Observe(dur.Seconds())
}

// ObserveExternalCall records one outbound call.
func ObserveExternalCall(service, operation string, dur time.Duration, err error) {
	ExternalCallsTotal.WithLabelValues(service, operation, statusLabel(err)).Inc()
	ExternalCallDuration.WithLabelValues(service, operation).Observe(dur.Seconds())
}

// RecordAnalysis counts an analysis outcome (cached, fresh, fallback, rejected, fetch_failed, rate_limited, error).
func RecordAnalysis(category, outcome string) {
	AnalysesTotal.WithLabelValues(category, outcome).Inc()
}

// RecordExtraction counts the strategy that produced a transcript; empty means none did.
func RecordExtraction(strategy string) {
	if strategy == "" {
		strategy = "none"
	}
	ExtractionStrategyTotal.WithLabelValues(strategy).Inc()
}

// ObserveCompleteness records a valid completeness rating.
func ObserveCompleteness(rating *int) {
	if rating != nil && *rating >= 1 && *rating <= 10 {
		CompletenessRatingHistogram.Observe(float64(*rating))
	}
}

func RecordWaitlistSignup(result string) {
	WaitlistSignupsTotal.WithLabelValues(result).Inc()
}

func EnqueueJob(jobType string) {
	JobsEnqueuedTotal.WithLabelValues(jobType).Inc()
}

func StartProcessingJob(jobType string) {
	JobsProcessing.WithLabelValues(jobType).Inc()
}

func CompleteJob(jobType string) {
	JobsProcessing.WithLabelValues(jobType).Dec()
	JobsCompletedTotal.WithLabelValues(jobType).Inc()
}

func FailJob(jobType string) {
	JobsProcessing.WithLabelValues(jobType).Dec()
	JobsFailedTotal.WithLabelValues(jobType).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
