// Package email delivers transactional email through the Resend HTTP API and
// renders the waitlist welcome message.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/authentyc-landing/internal/observability"
)

const (
	DefaultBaseURL = "https://api.resend.com"
	DefaultFrom    = "Authentyc <hello@authentyc.ai>"
)

// Client is a minimal Resend client implementing domain.EmailSender.
// It performs POST /emails with a bearer API key.
type Client struct {
	apiKey     string
	baseURL    string
	from       string
	httpClient *http.Client
	obs        *observability.ExternalCall
}

// New constructs a Resend client. Empty baseURL and from fall back to the defaults.
func New(apiKey, baseURL, from string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if from == "" {
		from = DefaultFrom
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		from:       from,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		obs:        observability.NewExternalCall(observability.CallKindHTTP, "resend", timeout),
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send delivers one message and returns the Resend message id.
func (c *Client) Send(ctx context.Context, to, subject, html string) (string, error) {
	payload, err := json.Marshal(sendRequest{From: c.from, To: []string{to}, Subject: subject, HTML: html})
	if err != nil {
		return "", fmt.Errorf("op=resend.Send: %w", err)
	}

	var id string
	err = c.obs.Do(ctx, "send", func(callCtx context.Context) error {
		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("Resend API error: %s", strings.TrimSpace(string(body)))
		}
		var out sendResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		id = out.ID
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("op=resend.Send: %w", err)
	}
	return id, nil
}
