// Package sharelink retrieves public ChatGPT share pages.
//
// Fetch never returns a Go error: every failure is folded into a FetchResult
// whose Error is a message meant for the visitor. No retries are attempted.
package sharelink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/authentyc-landing/internal/observability"
)

// User-facing messages.
const (
	MsgInvalidHost     = "Please use a valid ChatGPT share link from chatgpt.com (not a regular chat URL)"
	MsgNotShared       = "This doesn't appear to be a shared link. Make sure to click the share icon and copy the share link."
	MsgInvalidResponse = "Invalid response - not a ChatGPT share page"
	MsgConnection      = "Unable to connect to ChatGPT. This may be due to network restrictions or the share link being private. Please ensure the link is publicly accessible."
)

const (
	userAgent      = "Authentyc Bot/1.0 (https://authentyc.ai; contact@authentyc.ai)"
	acceptHeader   = "text/html,application/xhtml+xml"
	acceptLanguage = "en-US,en;q=0.9"

	// DefaultTimeout bounds the whole request.
	DefaultTimeout = 10 * time.Second
	// MaxBodyBytes caps how much of a share page is read.
	MaxBodyBytes = 5 << 20
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindInvalidURL      ErrorKind = "invalid_url"
	KindNotShared       ErrorKind = "not_shared"
	KindTimeout         ErrorKind = "timeout"
	KindHTTPStatus      ErrorKind = "http_status"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindConnection      ErrorKind = "connection"
	KindNetwork         ErrorKind = "network"
)

// DefaultHosts are the share hosts accepted by ValidateFormat.
var DefaultHosts = []string{"chatgpt.com", "chat.openai.com"}

// FetchResult is the outcome of Fetch. HTML is set only on success;
// StatusCode only when the server answered.
type FetchResult struct {
	Success    bool
	HTML       string
	StatusCode int
	Error      string
	ErrorKind  ErrorKind
}

func failure(kind ErrorKind, msg string) FetchResult {
	return FetchResult{ErrorKind: kind, Error: msg}
}

// Fetcher downloads share pages.
type Fetcher struct {
	client  *http.Client
	hosts   []string
	timeout time.Duration
	obs     *observability.ExternalCall
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the underlying client. Its transport is used as is.
func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithAllowedHosts replaces DefaultHosts.
func WithAllowedHosts(hosts ...string) Option { return func(f *Fetcher) { f.hosts = hosts } }

// New builds a Fetcher with the given timeout (DefaultTimeout when <= 0).
func New(timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Fetcher{
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		hosts:   DefaultHosts,
		timeout: timeout,
	}
	for _, o := range opts {
		o(f)
	}
	f.obs = observability.NewExternalCall(observability.CallKindHTTP, "chatgpt_share", timeout)
	return f
}

// ValidateFormat checks host and path of a share URL without any network access.
func (f *Fetcher) ValidateFormat(raw string) (ErrorKind, string) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return KindInvalidURL, MsgInvalidHost
	}
	host := strings.ToLower(u.Host)
	known := false
	for _, h := range f.hosts {
		if strings.Contains(host, h) {
			known = true
			break
		}
	}
	if !known {
		return KindInvalidURL, MsgInvalidHost
	}
	if !strings.Contains(u.Path, "/share/") {
		return KindNotShared, MsgNotShared
	}
	return KindNone, ""
}

// Fetch validates shareURL and downloads the page.
func (f *Fetcher) Fetch(ctx context.Context, shareURL string) FetchResult {
	if kind, msg := f.ValidateFormat(shareURL); kind != KindNone {
		return failure(kind, msg)
	}

	var res FetchResult
	err := f.obs.Do(ctx, "fetch", func(ctx context.Context) error {
		res = f.fetch(ctx, strings.TrimSpace(shareURL))
		if !res.Success {
			return errors.New(string(res.ErrorKind))
		}
		return nil
	})
	if err != nil {
		slog.Warn("share link fetch failed",
			slog.String("kind", string(res.ErrorKind)),
			slog.Int("status", res.StatusCode))
	}
	return res
}

func (f *Fetcher) fetch(ctx context.Context, shareURL string) FetchResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shareURL, nil)
	if err != nil {
		return failure(KindInvalidURL, MsgInvalidHost)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return f.classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r := failure(KindHTTPStatus, fmt.Sprintf("Unable to access the shared link (HTTP %d). Please make sure the link is publicly accessible.", resp.StatusCode))
		r.StatusCode = resp.StatusCode
		return r
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		r := f.classify(err)
		r.StatusCode = resp.StatusCode
		return r
	}
	if !isText(body) || !looksLikeSharePage(body) {
		r := failure(KindInvalidResponse, MsgInvalidResponse)
		r.StatusCode = resp.StatusCode
		return r
	}
	return FetchResult{Success: true, HTML: string(body), StatusCode: resp.StatusCode}
}

func (f *Fetcher) classify(err error) FetchResult {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		secs := int(f.timeout / time.Second)
		return failure(KindTimeout, fmt.Sprintf("Request timed out after %d seconds. The ChatGPT share link may be slow to respond.", secs))
	case isConnectionFailure(err):
		return failure(KindConnection, MsgConnection)
	}
	msg := err.Error()
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		msg = uerr.Err.Error()
	}
	return failure(KindNetwork, "Network error: "+msg)
}

func isConnectionFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// isText reports whether the sniffed type is in the text/* family.
func isText(body []byte) bool {
	for mt := mimetype.Detect(body); mt != nil; mt = mt.Parent() {
		if strings.HasPrefix(mt.String(), "text/") {
			return true
		}
	}
	return false
}

func looksLikeSharePage(body []byte) bool {
	s := string(body)
	return strings.Contains(s, "ChatGPT") || strings.Contains(s, "OpenAI")
}

// HashShareURL is the cache key of a share URL: lowercase hex sha256.
func HashShareURL(shareURL string) string {
	sum := sha256.Sum256([]byte(shareURL))
	return hex.EncodeToString(sum[:])
}
