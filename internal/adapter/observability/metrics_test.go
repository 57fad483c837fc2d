package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware)
	r.Get("/api/things/{id}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/things/{id}", http.MethodGet, "No Content"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/things/42", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", rec.Code)
	}
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/things/{id}", http.MethodGet, "No Content"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestHelpers(t *testing.T) {
	InitMetrics()
	InitMetrics()

	ObserveAIRequest("gemini", "analysis", time.Second, nil)
	ObserveAIRequest("gemini", "analysis", time.Second, errors.New("x"))
	if got := testutil.ToFloat64(AIRequestsTotal.WithLabelValues("gemini", "analysis", "error")); got < 1 {
		t.Fatalf("error status not recorded")
	}

	ObserveExternalCall("chatgpt", "fetch", time.Millisecond, nil)
	RecordAnalysis("hiring", "fresh")
	RecordExtraction("")
	if got := testutil.ToFloat64(ExtractionStrategyTotal.WithLabelValues("none")); got < 1 {
		t.Fatalf("empty strategy should be recorded as none")
	}
	r := 11
	ObserveCompleteness(&r)
	ObserveCompleteness(nil)
	RecordWaitlistSignup("created")

	EnqueueJob("email")
	StartProcessingJob("email")
	CompleteJob("email")
	StartProcessingJob("email")
	FailJob("email")
	if got := testutil.ToFloat64(JobsProcessing.WithLabelValues("email")); got != 0 {
		t.Fatalf("processing gauge should return to 0, got %v", got)
	}
}
