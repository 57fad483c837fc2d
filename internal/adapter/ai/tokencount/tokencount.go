// Package tokencount estimates prompt sizes with tiktoken-go.
//
// Gemini has no public tiktoken encoding; cl100k_base is close enough to
// keep transcripts inside the model's context. Encodings are read from the
// offline BPE files bundled by tiktoken-go-loader, so counting never touches
// the network. When the encoding cannot be loaded the counter degrades to a
// four-characters-per-token estimate.
package tokencount

import (
	"errors"
	"log/slog"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const (
	defaultEncoding = "cl100k_base"
	charsPerToken   = 4
)

// Counter counts and truncates text by token budget. Safe for concurrent use.
type Counter struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
	load func(string) (*tiktoken.Tiktoken, error)
}

var offlineLoader sync.Once

func loadOffline(encoding string) (*tiktoken.Tiktoken, error) {
	offlineLoader.Do(func() { tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader()) })
	return tiktoken.GetEncoding(encoding)
}

// NewCounter returns a Counter using cl100k_base.
func NewCounter() *Counter {
	return &Counter{encoding: defaultEncoding, load: loadOffline}
}

// NewEstimator returns a Counter that never loads an encoding and always
// uses the character estimate.
func NewEstimator() *Counter {
	return &Counter{encoding: defaultEncoding, load: func(string) (*tiktoken.Tiktoken, error) {
		return nil, errEstimateOnly
	}}
}

var errEstimateOnly = errors.New("estimate only")

// Default is the process-wide counter.
var Default = NewCounter()

func (c *Counter) encoder() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := c.load(c.encoding)
		if errors.Is(err, errEstimateOnly) {
			return
		}
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, estimating tokens",
				slog.String("encoding", c.encoding),
				slog.Any("error", err))
			return
		}
		c.enc = enc
	})
	return c.enc
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := c.encoder(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (utf8.RuneCountInString(text) + charsPerToken - 1) / charsPerToken
}

// Truncate cuts text to at most budget tokens. The bool reports whether
// anything was removed.
func (c *Counter) Truncate(text string, budget int) (string, bool) {
	if budget <= 0 {
		return "", text != ""
	}
	if enc := c.encoder(); enc != nil {
		tokens := enc.Encode(text, nil, nil)
		if len(tokens) <= budget {
			return text, false
		}
		return enc.Decode(tokens[:budget]), true
	}
	runes := []rune(text)
	limit := budget * charsPerToken
	if len(runes) <= limit {
		return text, false
	}
	return string(runes[:limit]), true
}

// Fit joins blocks with sep while the result stays within budget tokens.
// A first block that alone exceeds the budget is truncated. The int is the
// number of blocks that made it in, counting a truncated one.
func (c *Counter) Fit(blocks []string, sep string, budget int) (string, int) {
	out := ""
	used := 0
	for i, b := range blocks {
		candidate := b
		if i > 0 {
			candidate = out + sep + b
		}
		if c.Count(candidate) <= budget {
			out = candidate
			used++
			continue
		}
		if i == 0 {
			out, _ = c.Truncate(b, budget)
			used = 1
		}
		break
	}
	return out, used
}
