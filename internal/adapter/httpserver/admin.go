package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

type promptView struct {
	ID           string                `json:"id"`
	Key          string                `json:"key"`
	Version      int                   `json:"version"`
	Content      string                `json:"content"`
	Metadata     domain.PromptMetadata `json:"metadata"`
	IsActive     bool                  `json:"is_active"`
	UsageCount   int64                 `json:"usage_count"`
	SuccessCount int64                 `json:"success_count"`
	CreatedAt    time.Time             `json:"created_at"`
}

func newPromptView(p domain.Prompt) promptView {
	return promptView{
		ID:           p.ID,
		Key:          p.Key,
		Version:      p.Version,
		Content:      p.Content,
		Metadata:     p.Metadata,
		IsActive:     p.IsActive,
		UsageCount:   p.UsageCount,
		SuccessCount: p.SuccessCount,
		CreatedAt:    p.CreatedAt,
	}
}

// AdminStatsHandler returns lead, analysis and email job counts.
func (s *Server) AdminStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := s.Stats.Collect(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// AdminListPromptsHandler lists active prompts of the category query parameter.
func (s *Server) AdminListPromptsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := strings.TrimSpace(r.URL.Query().Get("category"))
		if category == "" {
			writeError(w, r, fmt.Errorf("%w: category required", domain.ErrInvalidArgument), map[string]string{"field": "category"})
			return
		}
		prompts, err := s.Prompts.ListByCategory(r.Context(), category)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		views := make([]promptView, 0, len(prompts))
		for _, p := range prompts {
			views = append(views, newPromptView(p))
		}
		writeJSON(w, http.StatusOK, map[string]any{"prompts": views})
	}
}

// AdminPublishPromptHandler stores a new active prompt version.
func (s *Server) AdminPublishPromptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req publishPromptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationIssues(err))
			return
		}
		p, err := s.Prompts.Publish(r.Context(), req.Key, req.Content, domain.PromptMetadata{
			Title:        req.Title,
			Description:  req.Description,
			Category:     req.Category,
			Type:         req.Type,
			Placeholders: req.Placeholders,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, newPromptView(p))
	}
}
