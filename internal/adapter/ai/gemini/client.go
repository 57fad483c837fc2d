// Package gemini implements domain.TextGenerator on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/fairyhunter13/authentyc-landing/internal/config"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/internal/observability"
)

// Provider is the label used in metrics and logs.
const Provider = "gemini"

// models is the subset of *genai.Models the client calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client generates JSON text with a single Gemini model. It makes exactly
// one call per Generate; retries belong to the caller.
type Client struct {
	models      models
	model       string
	temperature float32
	maxTokens   int32
	obs         *observability.ExternalCall
}

// New constructs a Client from configuration. GEMINI_API_KEY is required.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("op=gemini.New: %w: GEMINI_API_KEY is empty", domain.ErrInvalidArgument)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("op=gemini.New: %w", err)
	}
	return newClient(gc.Models, cfg), nil
}

func newClient(m models, cfg config.Config) *Client {
	return &Client{
		models:      m,
		model:       cfg.GeminiModel,
		temperature: cfg.AITemperature,
		maxTokens:   cfg.AIMaxOutputTokens,
		// Per-attempt deadlines come from the caller's retry policy.
		obs: observability.NewExternalCall(observability.CallKindAI, Provider, 0),
	}
}

// Provider implements domain.TextGenerator.
func (c *Client) Provider() string { return Provider }

// Generate sends prompt as a single user turn and returns the reply text.
// Errors wrap a domain sentinel: ErrUpstreamBlocked for safety blocks,
// ErrUpstreamRateLimit for 429, ErrUpstreamTimeout for deadlines,
// ErrInvalidArgument for other 4xx and ErrSchemaInvalid for empty replies.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := c.obs.Do(ctx, "generate", func(ctx context.Context) error {
		resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature:      genai.Ptr(c.temperature),
			MaxOutputTokens:  c.maxTokens,
			ResponseMIMEType: "application/json",
		})
		if err != nil {
			return mapError(ctx, err)
		}
		if resp == nil {
			return fmt.Errorf("%w: nil response", domain.ErrSchemaInvalid)
		}
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return fmt.Errorf("%w: %s", domain.ErrUpstreamBlocked, fb.BlockReason)
		}
		text = strings.TrimSpace(resp.Text())
		if text == "" {
			return fmt.Errorf("%w: empty response", domain.ErrSchemaInvalid)
		}
		return nil
	})
	if err != nil {
		slog.Warn("gemini generate failed",
			slog.String("model", c.model),
			slog.Int("prompt_chars", len(prompt)),
			slog.Any("error", err))
		return "", fmt.Errorf("op=gemini.Generate: %w", err)
	}
	return text, nil
}

func mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", domain.ErrUpstreamRateLimit, err)
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return err
}
