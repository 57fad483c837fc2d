package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/internal/usecase"
)

var fastArgon2 = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLen: 8, KeyLen: 16}

type fakeStats struct {
	st  usecase.Stats
	err error
}

func (f fakeStats) Collect(context.Context) (usecase.Stats, error) { return f.st, f.err }

func Test_HashPassword_VerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", fastArgon2)
	require.NoError(t, err)
	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("s3cret", "bcrypt$x"))
	assert.False(t, VerifyPassword("s3cret", "argon2id$x$1$1$c2FsdA$aGFzaA"))
	assert.False(t, VerifyPassword("s3cret", "argon2id$1$1024$1$!!$aGFzaA"))
}

func adminRouter(t *testing.T, s *Server) http.Handler {
	t.Helper()
	hash, err := HashPassword("pw", fastArgon2)
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Route("/admin/api", func(ar chi.Router) {
		ar.Use(BasicAuth("admin", hash))
		ar.Get("/stats", s.AdminStatsHandler())
		ar.Get("/prompts", s.AdminListPromptsHandler())
		ar.Post("/prompts", s.AdminPublishPromptHandler())
	})
	return r
}

func TestBasicAuth_Rejects(t *testing.T) {
	h := adminRouter(t, newTestServer(nil, nil, nil))
	for _, creds := range [][2]string{{"", ""}, {"admin", "nope"}, {"root", "pw"}} {
		req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
		if creds[0] != "" {
			req.SetBasicAuth(creds[0], creds[1])
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	}
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	s.Stats = fakeStats{st: usecase.Stats{WaitlistLeads: 5, Analyses: 2, EmailJobs: map[domain.EmailJobStatus]int64{domain.EmailSent: 4}}}
	req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	req.SetBasicAuth("admin", "pw")
	rec := httptest.NewRecorder()
	adminRouter(t, s).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 5, body["waitlist_leads"])
	assert.EqualValues(t, 4, body["email_jobs"].(map[string]any)["sent"])
}

func TestAdminStats_ErrorHidesInternals(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	s.Stats = fakeStats{err: errors.New("pq: password authentication failed")}
	req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	req.SetBasicAuth("admin", "pw")
	rec := httptest.NewRecorder()
	adminRouter(t, s).ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestAdminPublishPrompt(t *testing.T) {
	p := &fakePrompts{published: domain.Prompt{ID: "id-1", Version: 4, IsActive: true}}
	h := adminRouter(t, newTestServer(nil, nil, p))

	req := httptest.NewRequest(http.MethodPost, "/admin/api/prompts", strings.NewReader(`{"key":"analysis-quick","content":"Analyze {{CONVERSATION}}","category":"analysis","placeholders":["CONVERSATION"]}`))
	req.SetBasicAuth("admin", "pw")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 4, body["version"])
	assert.Equal(t, "analysis-quick", body["key"])
	assert.Equal(t, "analysis", body["metadata"].(map[string]any)["category"])

	req = httptest.NewRequest(http.MethodPost, "/admin/api/prompts", strings.NewReader(`{"key":"analysis-quick"}`))
	req.SetBasicAuth("admin", "pw")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
}

func TestAdminListPrompts(t *testing.T) {
	p := &fakePrompts{listed: []domain.Prompt{{ID: "1", Key: "conversation-hiring", Version: 1}}}
	h := adminRouter(t, newTestServer(nil, nil, p))

	req := httptest.NewRequest(http.MethodGet, "/admin/api/prompts?category=hiring", nil)
	req.SetBasicAuth("admin", "pw")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["prompts"].([]any), 1)

	req = httptest.NewRequest(http.MethodGet, "/admin/api/prompts", nil)
	req.SetBasicAuth("admin", "pw")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
