package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/internal/transcript"
	"github.com/fairyhunter13/authentyc-landing/internal/usecase"
)

// Visitor-facing messages of the public routes.
const (
	msgRateLimited      = "Rate limit exceeded. Please try again later."
	msgInvalidRequest   = "Invalid request"
	msgAnalysisFailed   = "Analysis failed. Please try again later."
	msgInvalidForm      = "Invalid form data"
	msgAlreadyOnList    = "Email already on waitlist"
	msgJoinFailed       = "Failed to join waitlist"
	msgJoined           = "Successfully joined waitlist"
	msgCountFailed      = "Failed to get waitlist count"
	msgNoPrompts        = "No prompts found"
	msgPromptsFailed    = "Failed to fetch prompts"
	maxAnalyzeBodyBytes = 2 << 20
	maxFormBodyBytes    = 64 << 10
)

var invalidJSONIssues = []Issue{{Path: []string{}, Message: "Invalid JSON body", Code: "invalid_json"}}

type analysisBody struct {
	OverallVibe string   `json:"overall_vibe"`
	Insights    []string `json:"insights"`
}

type analysisMetadata struct {
	MessageCount     int            `json:"message_count"`
	Quality          domain.Quality `json:"quality"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	UsedFallback     bool           `json:"used_fallback"`
}

type analyzeResponse struct {
	Success            bool                   `json:"success"`
	Cached             bool                   `json:"cached"`
	Analysis           analysisBody           `json:"analysis"`
	Characters         []domain.Character     `json:"characters"`
	CompletenessRating *int                   `json:"completenessRating"`
	AssessmentDetails  *transcript.Assessment `json:"assessmentDetails,omitempty"`
	Metadata           *analysisMetadata      `json:"metadata,omitempty"`
}

func newAnalyzeResponse(out usecase.AnalysisOutcome) analyzeResponse {
	insights := out.Analysis.Insights
	if insights == nil {
		insights = []string{}
	}
	chars := out.Characters
	if chars == nil {
		chars = []domain.Character{}
	}
	resp := analyzeResponse{
		Success:            true,
		Cached:             out.Cached,
		Analysis:           analysisBody{OverallVibe: out.Analysis.OverallVibe, Insights: insights},
		Characters:         chars,
		CompletenessRating: out.CompletenessRating,
	}
	if !out.Cached {
		resp.AssessmentDetails = out.Assessment
		resp.Metadata = &analysisMetadata{
			MessageCount:     out.MessageCount,
			Quality:          out.Quality,
			ProcessingTimeMs: out.ProcessingTime.Milliseconds(),
			UsedFallback:     out.UsedFallback,
		}
	}
	return resp
}

// AnalyzeHandler serves POST /api/analyze-chat. The rate limit is counted
// before the body is read.
func (s *Server) AnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lg := LoggerFrom(r)
		if err := s.Analyzer.CheckRateLimit(r.Context(), ClientIdentifier(r)); err != nil {
			var rl *domain.RateLimitError
			if errors.As(err, &rl) {
				lg.Warn("analyze rate limit exceeded", slog.String("identifier", ClientIdentifier(r)))
				writeRateLimited(w, rl.ResetAt, s.clock())
				return
			}
			writePublicError(w, http.StatusInternalServerError, msgAnalysisFailed, nil)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBodyBytes)
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writePublicError(w, http.StatusBadRequest, msgInvalidRequest, invalidJSONIssues)
			return
		}
		req.ShareURL = strings.TrimSpace(req.ShareURL)
		if err := getValidator().Struct(req); err != nil {
			writePublicError(w, http.StatusBadRequest, msgInvalidRequest, validationIssues(err))
			return
		}

		out, err := s.Analyzer.Analyze(r.Context(), usecase.AnalyzeRequest{
			ShareURL:   req.ShareURL,
			Category:   domain.Category(req.Category),
			ManualText: req.ManualText,
		})
		if err != nil {
			if msg, ok := domain.UserMessage(err); ok {
				status, _ := errorStatus(err)
				writePublicError(w, status, msg, nil)
				return
			}
			lg.Error("analysis failed", slog.Any("error", err))
			writePublicError(w, http.StatusInternalServerError, msgAnalysisFailed, nil)
			return
		}
		writeJSON(w, http.StatusOK, newAnalyzeResponse(out))
	}
}

func writeRateLimited(w http.ResponseWriter, resetAt, now time.Time) {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":   msgRateLimited,
		"resetAt": resetAt.UTC().Format(time.RFC3339Nano),
	})
}

// WaitlistHandler serves POST /api/waitlist.
func (s *Server) WaitlistHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBodyBytes)
		var req waitlistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writePublicError(w, http.StatusBadRequest, msgInvalidForm, invalidJSONIssues)
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if err := getValidator().Struct(req); err != nil {
			writePublicError(w, http.StatusBadRequest, msgInvalidForm, validationIssues(err))
			return
		}

		q := r.URL.Query()
		pos, err := s.Waitlist.Join(r.Context(), usecase.JoinRequest{
			Email:               req.Email,
			Interests:           req.Interests,
			OtherInterestDetail: req.OtherInterestDetail,
			HasAIHistory:        req.HasAIHistory,
			UTMSource:           q.Get("utm_source"),
			UTMMedium:           q.Get("utm_medium"),
			UTMCampaign:         q.Get("utm_campaign"),
			Referrer:            r.Header.Get("Referer"),
			UserAgent:           r.UserAgent(),
		})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				writePublicError(w, http.StatusConflict, msgAlreadyOnList, nil)
				return
			}
			LoggerFrom(r).Error("waitlist signup failed", slog.Any("error", err))
			writePublicError(w, http.StatusInternalServerError, msgJoinFailed, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msgJoined, "position": pos})
	}
}

// WaitlistCountHandler serves GET /api/waitlist/count.
func (s *Server) WaitlistCountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := s.Waitlist.Count(r.Context())
		if err != nil {
			LoggerFrom(r).Error("waitlist count failed", slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": msgCountFailed, "count": 0})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": n})
	}
}

// PromptsHandler serves GET /api/prompts with the canonical prompts.
func (s *Server) PromptsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prompts, err := s.Prompts.CanonicalPrompts(r.Context())
		if err != nil {
			LoggerFrom(r).Error("prompt fetch failed", slog.Any("error", err))
			writePublicError(w, http.StatusInternalServerError, msgPromptsFailed, nil)
			return
		}
		if len(prompts) == 0 {
			writePublicError(w, http.StatusNotFound, msgNoPrompts, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"prompts": prompts, "cached": false})
	}
}

// HealthHandler serves the liveness probe.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": s.clock().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			"service":   ServiceName,
		})
	}
}

// ReadyzHandler probes the database, Redis and the queue.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		probes := []struct {
			name  string
			check func(context.Context) error
		}{
			{"db", s.DBCheck},
			{"redis", s.RedisCheck},
			{"queue", s.QueueCheck},
		}
		checks := make([]usecase.ReadinessCheck, 0, len(probes))
		ok := true
		for _, p := range probes {
			if p.check == nil {
				continue
			}
			c := usecase.ReadinessCheck{Name: p.name, OK: true}
			if err := p.check(ctx); err != nil {
				c.OK, c.Details, ok = false, err.Error(), false
			}
			checks = append(checks, c)
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
