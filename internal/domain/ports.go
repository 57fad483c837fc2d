package domain

import "time"

// Repositories (ports)

type AnalysisRepository interface {
	// FindCached returns the analysis for hash+category that already carries characters.
	FindCached(ctx Context, shareURLHash string, category Category) (ChatAnalysis, error)
	Upsert(ctx Context, a ChatAnalysis) (string, error)
	Count(ctx Context) (int64, error)
}

type PromptRepository interface {
	GetActive(ctx Context, key string) (Prompt, error)
	GetActiveMany(ctx Context, keys []string) (map[string]Prompt, error)
	ListByCategory(ctx Context, category string) ([]Prompt, error)
	// Publish stores a new active version of p.Key and deactivates older ones.
	Publish(ctx Context, p Prompt) (Prompt, error)
	IncrementUsage(ctx Context, promptID string, success bool) error
}

type WaitlistRepository interface {
	// Create returns ErrConflict when the email is already present.
	Create(ctx Context, lead WaitlistLead) (string, error)
	Position(ctx Context, leadID string) (int, error)
	Count(ctx Context) (int64, error)
}

type EmailJobRepository interface {
	Create(ctx Context, j EmailJob) (string, error)
	Get(ctx Context, id string) (EmailJob, error)
	MarkSent(ctx Context, id, providerID string) error
	MarkFailed(ctx Context, id, errMsg string) error
	CountByStatus(ctx Context) (map[EmailJobStatus]int64, error)
}

// RateLimiter counts requests per identifier and endpoint within a window.
type RateLimiter interface {
	Check(ctx Context, identifier, endpoint string, limit int, window time.Duration) (RateLimitDecision, error)
}

// TextGenerator (port) produces model output for a prompt.
type TextGenerator interface {
	Generate(ctx Context, prompt string) (string, error)
	Provider() string
}

// EmailSender (port) delivers an email and returns the provider message id.
type EmailSender interface {
	Send(ctx Context, to, subject, html string) (string, error)
}

// EmailQueue (port) hands an email job to the delivery worker.
type EmailQueue interface {
	EnqueueEmail(ctx Context, payload EmailTaskPayload) error
}

// EmailTaskPayload is the message published for each email job.
type EmailTaskPayload struct {
	JobID string `json:"job_id"`
}
