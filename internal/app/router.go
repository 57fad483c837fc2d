package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/authentyc-landing/internal/adapter/httpserver"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(requestTimeout(cfg)))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		// Coarse per-IP flood guard; analyze-chat has its own persisted window.
		api.Group(func(wr chi.Router) {
			if cfg.RateLimitPerMin > 0 {
				wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
			}
			wr.Post("/analyze-chat", srv.AnalyzeHandler())
			wr.Post("/waitlist", srv.WaitlistHandler())
		})
		api.Get("/waitlist/count", srv.WaitlistCountHandler())
		api.Get("/prompts", srv.PromptsHandler())
		api.Get("/health", srv.HealthHandler())
	})

	r.Get("/healthz", srv.HealthHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	if cfg.AdminEnabled() {
		r.Route("/admin/api", func(ar chi.Router) {
			ar.Use(httpserver.BasicAuth(cfg.AdminUsername, cfg.AdminPasswordHash))
			ar.Get("/stats", srv.AdminStatsHandler())
			ar.Get("/prompts", srv.AdminListPromptsHandler())
			ar.Post("/prompts", srv.AdminPublishPromptHandler())
		})
	}

	return httpserver.SecurityHeaders(r)
}

func requestTimeout(cfg config.Config) time.Duration {
	if cfg.RequestTimeout <= 0 {
		return 140 * time.Second
	}
	return cfg.RequestTimeout
}
