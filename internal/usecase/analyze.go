// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/sharelink"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/internal/insight"
	obsctx "github.com/fairyhunter13/authentyc-landing/internal/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/transcript"
	"github.com/fairyhunter13/authentyc-landing/pkg/textx"
)

// AnalyzeEndpoint is the rate-limit bucket of the analysis route.
const AnalyzeEndpoint = "/api/analyze-chat"

// ShareFetcher downloads a share page.
type ShareFetcher interface {
	Fetch(ctx context.Context, shareURL string) sharelink.FetchResult
}

// ConversationValidator gates conversations before analysis.
type ConversationValidator interface {
	Validate(ctx context.Context, c transcript.Conversation) (transcript.Outcome, error)
}

// InsightRunner produces the analysis and characters for a conversation.
type InsightRunner interface {
	Run(ctx context.Context, category domain.Category, turns []domain.Turn, sample string) insight.Result
}

// AnalyzeRequest is a validated analysis request.
type AnalyzeRequest struct {
	ShareURL   string
	Category   domain.Category
	ManualText string
}

// AnalysisOutcome is what the analysis route returns.
type AnalysisOutcome struct {
	Cached             bool
	Analysis           domain.Analysis
	Characters         []domain.Character
	CompletenessRating *int
	Assessment         *transcript.Assessment
	MessageCount       int
	Quality            domain.Quality
	ProcessingTime     time.Duration
	UsedFallback       bool
}

// AnalyzeService runs the share-link analysis pipeline.
type AnalyzeService struct {
	Limiter   domain.RateLimiter
	Analyses  domain.AnalysisRepository
	Fetcher   ShareFetcher
	Extractor *transcript.Extractor
	Validator ConversationValidator
	Insights  InsightRunner
	Limit     int
	Window    time.Duration

	now func() time.Time
}

// NewAnalyzeService constructs an AnalyzeService. limit and window bound
// requests per client on AnalyzeEndpoint.
func NewAnalyzeService(l domain.RateLimiter, a domain.AnalysisRepository, f ShareFetcher, e *transcript.Extractor, v ConversationValidator, in InsightRunner, limit int, window time.Duration) AnalyzeService {
	if e == nil {
		e = transcript.NewExtractor()
	}
	return AnalyzeService{Limiter: l, Analyses: a, Fetcher: f, Extractor: e, Validator: v, Insights: in, Limit: limit, Window: window, now: time.Now}
}

// CheckRateLimit counts one request for identifier. It returns a
// *domain.RateLimitError when the window is exhausted. Limiter failures are
// logged and let the request through.
func (s AnalyzeService) CheckRateLimit(ctx context.Context, identifier string) error {
	if s.Limiter == nil {
		return nil
	}
	d, err := s.Limiter.Check(ctx, identifier, AnalyzeEndpoint, s.Limit, s.Window)
	if err != nil {
		obsctx.LoggerFromContext(ctx).Error("rate limit check failed", slog.String("identifier", identifier), slog.Any("error", err))
		return nil
	}
	if !d.Allowed {
		return &domain.RateLimitError{ResetAt: d.ResetAt}
	}
	return nil
}

// Analyze returns the cached analysis for the URL and category when one
// exists, otherwise runs extraction, validation and generation and stores
// the result. Once started it is not cancelled by ctx.
func (s AnalyzeService) Analyze(ctx context.Context, req AnalyzeRequest) (AnalysisOutcome, error) {
	ctx = obsctx.Detach(ctx)
	lg := obsctx.LoggerFromContext(ctx).With(slog.String("category", string(req.Category)))
	start := s.clock()()
	category := string(req.Category)

	urlHash := sharelink.HashShareURL(req.ShareURL)
	if out, ok := s.cached(ctx, urlHash, req.Category); ok {
		observability.RecordAnalysis(category, "cached")
		return out, nil
	}

	var conv transcript.Conversation
	if manual := textx.SanitizeText(req.ManualText); manual != "" {
		lg.Info("using manual transcript", slog.Int("length", len(manual)))
		conv = transcript.ParseManual(manual)
	} else {
		res := s.Fetcher.Fetch(ctx, req.ShareURL)
		if !res.Success || res.HTML == "" {
			lg.Warn("share link fetch failed", slog.String("kind", string(res.ErrorKind)), slog.String("error", res.Error))
			observability.RecordAnalysis(category, "fetch_failed")
			msg := res.Error
			if msg == "" {
				msg = "Failed to fetch"
			}
			return AnalysisOutcome{}, domain.NewUserError(domain.ErrInvalidArgument, "%s", msg)
		}
		conv = s.Extractor.Extract(res.HTML)
		observability.RecordExtraction(conv.Source())
	}

	outcome, err := s.Validator.Validate(ctx, conv)
	if err != nil {
		observability.RecordAnalysis(category, "error")
		return AnalysisOutcome{}, fmt.Errorf("op=analyze.validate: %w", err)
	}
	if !outcome.Valid {
		lg.Info("conversation rejected",
			slog.Int("message_count", conv.TurnCount()),
			slog.Bool("personality_marker", conv.HasPersonalityMarker()),
			slog.String("quality", string(conv.Quality())))
		observability.RecordAnalysis(category, "rejected")
		return AnalysisOutcome{}, domain.NewUserError(domain.ErrInvalidArgument, "%s", outcome.Reason)
	}

	out := AnalysisOutcome{MessageCount: conv.TurnCount(), Quality: conv.Quality()}
	if last, ok := conv.LastTurn(domain.RoleAssistant); ok {
		parsed := transcript.ParseResponse(last.Content)
		out.CompletenessRating = parsed.CompletenessRating
		out.Assessment = parsed.Assessment
	} else {
		lg.Warn("no assistant message in conversation")
	}
	observability.ObserveCompleteness(out.CompletenessRating)

	res := s.Insights.Run(ctx, req.Category, conv.Turns(), conv.Sample(3, 500))
	out.Analysis = res.Analysis
	out.Characters = res.Characters
	out.UsedFallback = res.UsedFallback
	out.ProcessingTime = s.clock()().Sub(start)

	if s.Analyses != nil {
		_, err := s.Analyses.Upsert(ctx, domain.ChatAnalysis{
			ShareURLHash:              urlHash,
			Category:                  req.Category,
			PersonalitySummary:        res.Analysis.OverallVibe,
			Traits:                    res.Analysis.Insights,
			Characters:                res.Characters,
			CompletenessRating:        out.CompletenessRating,
			MessageCount:              out.MessageCount,
			UsedFallbackTemplates:     res.UsedFallback,
			ProcessingTimeMs:          out.ProcessingTime.Milliseconds(),
			CharacterGenerationTimeMs: res.CharacterTime.Milliseconds(),
		})
		if err != nil {
			lg.Error("failed to store analysis", slog.Any("error", err))
		}
	}

	if res.UsedFallback {
		observability.RecordAnalysis(category, "fallback")
	} else {
		observability.RecordAnalysis(category, "fresh")
	}
	lg.Info("analysis complete",
		slog.Int("message_count", out.MessageCount),
		slog.Bool("used_fallback", out.UsedFallback),
		slog.Duration("duration", out.ProcessingTime))
	return out, nil
}

func (s AnalyzeService) cached(ctx context.Context, urlHash string, category domain.Category) (AnalysisOutcome, bool) {
	if s.Analyses == nil {
		return AnalysisOutcome{}, false
	}
	a, err := s.Analyses.FindCached(ctx, urlHash, category)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			obsctx.LoggerFromContext(ctx).Warn("analysis cache lookup failed", slog.Any("error", err))
		}
		return AnalysisOutcome{}, false
	}
	return AnalysisOutcome{
		Cached:             true,
		Analysis:           domain.Analysis{OverallVibe: a.PersonalitySummary, Insights: a.Traits},
		Characters:         a.Characters,
		CompletenessRating: a.CompletenessRating,
	}, true
}

func (s AnalyzeService) clock() func() time.Time {
	if s.now == nil {
		return time.Now
	}
	return s.now
}
