package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/authentyc-landing/internal/adapter/email"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	obsctx "github.com/fairyhunter13/authentyc-landing/internal/observability"
)

// JoinRequest is a validated waitlist signup.
type JoinRequest struct {
	Email               string
	Interests           []string
	OtherInterestDetail string
	HasAIHistory        string
	UTMSource           string
	UTMMedium           string
	UTMCampaign         string
	Referrer            string
	UserAgent           string
}

// WaitlistService registers leads and schedules their welcome email.
type WaitlistService struct {
	Leads     domain.WaitlistRepository
	EmailJobs domain.EmailJobRepository
	Queue     domain.EmailQueue
	// EmailEnabled turns welcome emails on; without it no job is created.
	EmailEnabled bool
}

// NewWaitlistService constructs a WaitlistService.
func NewWaitlistService(l domain.WaitlistRepository, j domain.EmailJobRepository, q domain.EmailQueue, emailEnabled bool) WaitlistService {
	return WaitlistService{Leads: l, EmailJobs: j, Queue: q, EmailEnabled: emailEnabled}
}

// Join stores the lead and returns its waitlist position. A duplicate email
// returns domain.ErrConflict. Email problems never fail the signup.
func (s WaitlistService) Join(ctx context.Context, req JoinRequest) (int, error) {
	lg := obsctx.LoggerFromContext(ctx)
	lead := domain.WaitlistLead{
		Email:               strings.TrimSpace(req.Email),
		Interests:           req.Interests,
		OtherInterestDetail: strings.TrimSpace(req.OtherInterestDetail),
		HasAIHistory:        req.HasAIHistory,
		UTMSource:           req.UTMSource,
		UTMMedium:           req.UTMMedium,
		UTMCampaign:         req.UTMCampaign,
		Referrer:            req.Referrer,
		UserAgent:           req.UserAgent,
	}
	id, err := s.Leads.Create(ctx, lead)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			observability.RecordWaitlistSignup("duplicate")
		} else {
			observability.RecordWaitlistSignup("error")
		}
		return 0, err
	}
	observability.RecordWaitlistSignup("ok")

	position, err := s.Leads.Position(ctx, id)
	if err != nil {
		lg.Warn("waitlist position lookup failed", slog.String("lead_id", id), slog.Any("error", err))
		position = 1
	}

	if s.EmailEnabled {
		if err := s.scheduleWelcome(ctx, id, lead, position); err != nil {
			lg.Error("failed to schedule welcome email", slog.String("lead_id", id), slog.Any("error", err))
		}
	}
	return position, nil
}

func (s WaitlistService) scheduleWelcome(ctx context.Context, leadID string, lead domain.WaitlistLead, position int) error {
	w, err := email.RenderWelcome(position, lead.Interests)
	if err != nil {
		return err
	}
	jobID, err := s.EmailJobs.Create(ctx, domain.EmailJob{
		LeadID:    leadID,
		Recipient: lead.Email,
		Subject:   w.Subject,
		HTML:      w.HTML,
		Status:    domain.EmailPending,
	})
	if err != nil {
		return fmt.Errorf("op=waitlist.schedule_welcome: %w", err)
	}
	if err := s.Queue.EnqueueEmail(ctx, domain.EmailTaskPayload{JobID: jobID}); err != nil {
		_ = s.EmailJobs.MarkFailed(ctx, jobID, "enqueue failed: "+err.Error())
		return fmt.Errorf("op=waitlist.schedule_welcome: %w", err)
	}
	return nil
}

// Count returns the number of leads.
func (s WaitlistService) Count(ctx context.Context) (int64, error) {
	return s.Leads.Count(ctx)
}
