package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	obsctx "github.com/fairyhunter13/authentyc-landing/internal/observability"
)

func Test_SecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) })).ServeHTTP(rec, r)
	res := rec.Result()
	assert.Equal(t, "nosniff", res.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", res.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, res.Header.Get("Content-Security-Policy"))
}

func Test_RequestID_SetsHeaderAndContext(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	var seen string
	RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = obsctx.RequestIDFromContext(r.Context())
		w.WriteHeader(204)
	})).ServeHTTP(rec, r)
	id := rec.Result().Header.Get("X-Request-Id")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, seen)
}

func Test_RequestID_KeepsIncoming(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("X-Request-Id", "abc")
	RequestID()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) })).ServeHTTP(rec, r)
	assert.Equal(t, "abc", rec.Result().Header.Get("X-Request-Id"))
}

func Test_Recoverer_HandlesPanic(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	Recoverer()(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) { panic("boom") })).ServeHTTP(rec, r)
	assert.Equal(t, http.StatusInternalServerError, rec.Result().StatusCode)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func Test_TimeoutMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	TimeoutMiddleware(5*time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})).ServeHTTP(rec, r)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Result().StatusCode)
}

func Test_TraceMiddleware_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) })).ServeHTTP(rec, r)
	assert.Equal(t, 204, rec.Result().StatusCode)
}

func Test_AccessLog_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	AccessLog()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(418) })).ServeHTTP(rec, r)
	assert.Equal(t, 418, rec.Result().StatusCode)
}

func Test_ClientIdentifier(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	assert.Equal(t, "unknown", ClientIdentifier(r))
	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIdentifier(r))
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4, 10.0.0.1", ClientIdentifier(r))
}

func Test_newReqID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newReqID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
