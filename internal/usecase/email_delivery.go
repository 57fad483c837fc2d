package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	obsctx "github.com/fairyhunter13/authentyc-landing/internal/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/retry"
)

// EmailDeliveryService sends queued email jobs.
type EmailDeliveryService struct {
	Jobs   domain.EmailJobRepository
	Sender domain.EmailSender
	Policy retry.Policy

	retryOpts []retry.Option
}

// NewEmailDeliveryService constructs an EmailDeliveryService.
func NewEmailDeliveryService(j domain.EmailJobRepository, s domain.EmailSender, p retry.Policy, opts ...retry.Option) EmailDeliveryService {
	return EmailDeliveryService{Jobs: j, Sender: s, Policy: p, retryOpts: opts}
}

// HandleEmail sends the job's message with retries and records the result.
// Jobs already sent are skipped, so redelivered records are harmless.
func (s EmailDeliveryService) HandleEmail(ctx context.Context, payload domain.EmailTaskPayload) error {
	lg := obsctx.LoggerFromContext(ctx).With(slog.String("job_id", payload.JobID))
	job, err := s.Jobs.Get(ctx, payload.JobID)
	if err != nil {
		return fmt.Errorf("op=email.deliver: %w", err)
	}
	if job.Status == domain.EmailSent {
		lg.Info("email already sent, skipping")
		return nil
	}

	var providerID string
	err = retry.Do(ctx, s.Policy, func(ctx context.Context) error {
		id, err := s.Sender.Send(ctx, job.Recipient, job.Subject, job.HTML)
		if err != nil {
			return err
		}
		providerID = id
		return nil
	}, s.retryOpts...)
	if err != nil {
		if markErr := s.Jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			lg.Error("failed to record email failure", slog.Any("error", markErr))
		}
		return fmt.Errorf("op=email.deliver: %w", err)
	}
	if err := s.Jobs.MarkSent(ctx, job.ID, providerID); err != nil {
		return fmt.Errorf("op=email.deliver: mark sent: %w", err)
	}
	lg.Info("welcome email sent", slog.String("provider_id", providerID))
	return nil
}
