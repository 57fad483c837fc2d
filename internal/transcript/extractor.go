package transcript

import (
	"log/slog"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// Strategy is one heuristic for recovering turns from a shared page.
type Strategy interface {
	Name() string
	// Attempt returns the recovered turns; ok is false when the strategy
	// found nothing usable and the next one should run.
	Attempt(doc *Document) (turns []domain.Turn, ok bool)
}

// Extractor runs strategies in order and keeps the first non-empty result.
type Extractor struct {
	strategies []Strategy
}

// NewExtractor builds an extractor; with no arguments the default chain is used.
func NewExtractor(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{strategies: strategies}
}

// DefaultStrategies is structured data, then script mining, then visible DOM.
func DefaultStrategies() []Strategy {
	return []Strategy{StructuredData{}, ScriptMining{}, VisibleDOM{}}
}

// Extract never fails: markup with nothing recoverable yields zero turns.
func (e *Extractor) Extract(raw string) Conversation {
	doc := NewDocument(raw)
	title := doc.Title()
	for _, s := range e.strategies {
		turns, ok := e.attempt(s, doc)
		if ok && len(turns) > 0 {
			slog.Debug("transcript extracted",
				slog.String("strategy", s.Name()),
				slog.Int("turns", len(turns)))
			return NewConversation(turns, title, s.Name())
		}
	}
	slog.Debug("transcript extraction found no turns", slog.Int("markup_len", len(raw)))
	return NewConversation(nil, title, "")
}

// attempt isolates a strategy so a panic inside one heuristic falls through to the next.
func (e *Extractor) attempt(s Strategy, doc *Document) (turns []domain.Turn, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("transcript strategy panicked", slog.String("strategy", s.Name()), slog.Any("panic", r))
			turns, ok = nil, false
		}
	}()
	return s.Attempt(doc)
}
