package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrUpstreamBlocked   = errors.New("upstream blocked")
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrInternal          = errors.New("internal error")
)

// Category is the matching use case a visitor picks on the landing page.
type Category string

const (
	CategoryHiring  Category = "hiring"
	CategoryDating  Category = "dating"
	CategoryFounder Category = "founder"
)

// Categories lists the categories in display order.
func Categories() []Category {
	return []Category{CategoryHiring, CategoryDating, CategoryFounder}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryHiring, CategoryDating, CategoryFounder:
		return true
	}
	return false
}

// PromptCategory is the category name used by the prompt store; founder is stored as cofounder.
func (c Category) PromptCategory() string {
	if c == CategoryFounder {
		return "cofounder"
	}
	return string(c)
}

// ConversationPromptKey is the prompt-store key of the elicitation prompt for c.
func (c Category) ConversationPromptKey() string {
	return "conversation-" + c.PromptCategory()
}

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation. The role is inferred unless the
// source carried explicit author metadata.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Quality is a coarse estimate of how useful a transcript is for analysis.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Analysis is the personality summary returned by the LLM.
type Analysis struct {
	OverallVibe string   `json:"overall_vibe"`
	Insights    []string `json:"insights"`
}

// Character is an illustrative match shown to the visitor.
type Character struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	AvatarColor string   `json:"avatarColor"`
	MatchScore  int      `json:"matchScore"`
	Alignment   []string `json:"alignment"`
	Challenges  []string `json:"challenges"`
	Category    Category `json:"category"`
}

// ChatAnalysis is a persisted analysis, cached by share URL hash and category.
// Invariants: CompletenessRating in [1,10] when set; Characters has 5 entries.
type ChatAnalysis struct {
	ID                        string
	ShareURLHash              string
	Category                  Category
	PersonalitySummary        string
	Traits                    []string
	Characters                []Character
	CompletenessRating        *int
	MessageCount              int
	UsedFallbackTemplates     bool
	ProcessingTimeMs          int64
	CharacterGenerationTimeMs int64
	CreatedAt                 time.Time
}

// PromptMetadata is the free-form descriptor stored next to a prompt.
type PromptMetadata struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	Type         string   `json:"type,omitempty"`
	Placeholders []string `json:"placeholders,omitempty"`
}

// Prompt is a versioned entry of the prompt store.
type Prompt struct {
	ID           string
	Key          string
	Version      int
	Content      string
	Metadata     PromptMetadata
	IsActive     bool
	UsageCount   int64
	SuccessCount int64
	CreatedAt    time.Time
}

// Waitlist interests
const (
	InterestHiringRecruiter = "hiring_recruiter"
	InterestHiringJobseeker = "hiring_jobseeker"
	InterestDating          = "dating"
	InterestCofounder       = "cofounder"
	InterestMastermind      = "mastermind"
	InterestOther           = "other"
)

// WaitlistLead is a waitlist signup.
type WaitlistLead struct {
	ID                  string
	Email               string
	Interests           []string
	OtherInterestDetail string
	HasAIHistory        string
	UTMSource           string
	UTMMedium           string
	UTMCampaign         string
	Referrer            string
	UserAgent           string
	CreatedAt           time.Time
}

// EmailJobStatus tracks delivery of a transactional email.
type EmailJobStatus string

const (
	EmailPending EmailJobStatus = "pending"
	EmailSent    EmailJobStatus = "sent"
	EmailFailed  EmailJobStatus = "failed"
)

// EmailJob is a queued transactional email.
type EmailJob struct {
	ID         string
	LeadID     string
	Recipient  string
	Subject    string
	HTML       string
	Status     EmailJobStatus
	ProviderID string
	Error      string
	Attempts   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RateLimitDecision is the outcome of a rate-limit check.
type RateLimitDecision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Context is an alias so ports read the same across packages.
type Context = context.Context
