package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/authentyc-landing/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/email"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/queue/inline"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/sharelink"
	"github.com/fairyhunter13/authentyc-landing/internal/config"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/internal/insight"
	"github.com/fairyhunter13/authentyc-landing/internal/service/ratelimiter"
	"github.com/fairyhunter13/authentyc-landing/internal/transcript"
	"github.com/fairyhunter13/authentyc-landing/internal/usecase"
)

// NewRedis connects to url. An empty url means Redis is not used.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("op=app.NewRedis: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("op=app.NewRedis: %w", err)
	}
	return rdb, nil
}

// NewRateLimiter selects the analyze-chat limiter backend.
func NewRateLimiter(cfg config.Config, pool postgres.PgxPool, rdb *redis.Client) domain.RateLimiter {
	if strings.EqualFold(cfg.RateLimitBackend, "redis") && rdb != nil {
		return ratelimiter.NewRedisLuaLimiter(rdb)
	}
	return postgres.NewRateLimitRepo(pool)
}

// NewTextGenerator returns the Gemini client, or nil when no key is set.
// A nil generator makes every analysis use the template fallback.
func NewTextGenerator(ctx context.Context, cfg config.Config) (domain.TextGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, analyses will use template output")
		return nil, nil
	}
	c, err := gemini.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewEmailSender returns the Resend client, or nil when email is disabled.
func NewEmailSender(cfg config.Config) domain.EmailSender {
	if !cfg.EmailEnabled() {
		return nil
	}
	return email.New(cfg.ResendAPIKey, cfg.ResendBaseURL, cfg.ResendFrom, cfg.EmailTimeout)
}

// Services holds the wired usecases of the HTTP server.
type Services struct {
	Analyze  usecase.AnalyzeService
	Waitlist usecase.WaitlistService
	Prompts  usecase.PromptService
	Stats    usecase.StatsService
	// Queue is nil when email is disabled.
	Queue domain.EmailQueue

	closers []func(context.Context) error
}

// Close releases the email queue.
func (s *Services) Close(ctx context.Context) error {
	var first error
	for _, c := range s.closers {
		if err := c(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// BuildServices wires repositories, adapters and usecases. Email jobs go to
// Redpanda when brokers are configured and are otherwise sent in-process.
func BuildServices(ctx context.Context, cfg config.Config, pool postgres.PgxPool, rdb *redis.Client) (*Services, error) {
	analyses := postgres.NewAnalysisRepo(pool)
	leads := postgres.NewWaitlistRepo(pool)
	jobs := postgres.NewEmailJobRepo(pool)
	prompts := usecase.NewPromptService(postgres.NewPromptRepo(pool))

	llm, err := NewTextGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gen, err := insight.NewGenerator(llm, prompts,
		insight.WithPolicy(cfg.AIRetryPolicy()),
		insight.WithTokenBudget(cfg.TranscriptTokenLimit),
		insight.WithCounter(tokencount.NewCounter()),
	)
	if err != nil {
		return nil, err
	}

	svc := &Services{Prompts: prompts, Stats: usecase.NewStatsService(leads, analyses, jobs)}
	validator := transcript.NewValidator(prompts, transcript.WithDebugReasons(!cfg.IsProd()))
	svc.Analyze = usecase.NewAnalyzeService(
		NewRateLimiter(cfg, pool, rdb),
		analyses,
		sharelink.New(cfg.FetchTimeout),
		transcript.NewExtractor(),
		validator,
		gen,
		cfg.AnalyzeLimit,
		cfg.AnalyzeLimitWindow,
	)

	if cfg.EmailEnabled() {
		switch {
		case cfg.QueueEnabled():
			p, err := redpanda.NewProducer(cfg.KafkaBrokers, cfg.EmailTopic)
			if err != nil {
				return nil, err
			}
			svc.Queue = p
			svc.closers = append(svc.closers, func(context.Context) error { return p.Close() })
		default:
			delivery := usecase.NewEmailDeliveryService(jobs, NewEmailSender(cfg), cfg.EmailRetryPolicy())
			d := inline.New(delivery, 4)
			svc.Queue = d
			svc.closers = append(svc.closers, d.Close)
		}
	}
	svc.Waitlist = usecase.NewWaitlistService(leads, jobs, svc.Queue, cfg.EmailEnabled())
	return svc, nil
}
