package httpserver

import (
	"context"
	"time"

	"github.com/fairyhunter13/authentyc-landing/internal/config"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/internal/transcript"
	"github.com/fairyhunter13/authentyc-landing/internal/usecase"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "authentyc-landing-page"

// Analyzer runs chat analyses.
type Analyzer interface {
	CheckRateLimit(ctx context.Context, identifier string) error
	Analyze(ctx context.Context, req usecase.AnalyzeRequest) (usecase.AnalysisOutcome, error)
}

// Waitlist registers signups.
type Waitlist interface {
	Join(ctx context.Context, req usecase.JoinRequest) (int, error)
	Count(ctx context.Context) (int64, error)
}

// Prompts reads and publishes prompt templates.
type Prompts interface {
	CanonicalPrompts(ctx context.Context) ([]transcript.CanonicalPrompt, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Prompt, error)
	Publish(ctx context.Context, key, content string, meta domain.PromptMetadata) (domain.Prompt, error)
}

// StatsCollector summarizes the stores for the admin API.
type StatsCollector interface {
	Collect(ctx context.Context) (usecase.Stats, error)
}

// Server aggregates handlers dependencies.
type Server struct {
	Cfg        config.Config
	Analyzer   Analyzer
	Waitlist   Waitlist
	Prompts    Prompts
	Stats      StatsCollector
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	QueueCheck func(ctx context.Context) error

	now func() time.Time
}

// NewServer constructs an HTTP server with all handlers and checks wired.
// Nil checks are skipped by the readiness handler.
func NewServer(cfg config.Config, analyzer Analyzer, waitlist Waitlist, prompts Prompts, stats StatsCollector, dbCheck, redisCheck, queueCheck func(context.Context) error) *Server {
	return &Server{
		Cfg:        cfg,
		Analyzer:   analyzer,
		Waitlist:   waitlist,
		Prompts:    prompts,
		Stats:      stats,
		DBCheck:    dbCheck,
		RedisCheck: redisCheck,
		QueueCheck: queueCheck,
		now:        time.Now,
	}
}

func (s *Server) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
