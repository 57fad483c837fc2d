package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/internal/domain/mocks"
	"github.com/fairyhunter13/authentyc-landing/internal/retry"
	"github.com/fairyhunter13/authentyc-landing/internal/usecase"
)

func quickPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Delays: []time.Duration{time.Millisecond}}
}

func pendingJob() domain.EmailJob {
	return domain.EmailJob{ID: "job-1", Recipient: "a@b.co", Subject: "Hi", HTML: "<p>hi</p>", Status: domain.EmailPending}
}

func TestHandleEmail_Sends(t *testing.T) {
	t.Parallel()
	jobs := &mocks.MockEmailJobRepository{}
	sender := &mocks.MockEmailSender{}
	jobs.On("Get", mock.Anything, "job-1").Return(pendingJob(), nil)
	sender.On("Send", mock.Anything, "a@b.co", "Hi", "<p>hi</p>").Return("re_123", nil)
	jobs.On("MarkSent", mock.Anything, "job-1", "re_123").Return(nil)

	svc := usecase.NewEmailDeliveryService(jobs, sender, quickPolicy())
	require.NoError(t, svc.HandleEmail(context.Background(), domain.EmailTaskPayload{JobID: "job-1"}))
	jobs.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleEmail_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	jobs := &mocks.MockEmailJobRepository{}
	sender := &mocks.MockEmailSender{}
	jobs.On("Get", mock.Anything, "job-1").Return(pendingJob(), nil)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("503")).Once()
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("re_9", nil).Once()
	jobs.On("MarkSent", mock.Anything, "job-1", "re_9").Return(nil)

	svc := usecase.NewEmailDeliveryService(jobs, sender, quickPolicy())
	require.NoError(t, svc.HandleEmail(context.Background(), domain.EmailTaskPayload{JobID: "job-1"}))
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestHandleEmail_ExhaustedMarksFailed(t *testing.T) {
	t.Parallel()
	jobs := &mocks.MockEmailJobRepository{}
	sender := &mocks.MockEmailSender{}
	jobs.On("Get", mock.Anything, "job-1").Return(pendingJob(), nil)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("resend down"))
	jobs.On("MarkFailed", mock.Anything, "job-1", "resend down").Return(nil)

	svc := usecase.NewEmailDeliveryService(jobs, sender, quickPolicy())
	err := svc.HandleEmail(context.Background(), domain.EmailTaskPayload{JobID: "job-1"})
	require.Error(t, err)
	sender.AssertNumberOfCalls(t, "Send", 3)
	jobs.AssertExpectations(t)
	jobs.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEmail_AlreadySent(t *testing.T) {
	t.Parallel()
	jobs := &mocks.MockEmailJobRepository{}
	sender := &mocks.MockEmailSender{}
	job := pendingJob()
	job.Status = domain.EmailSent
	jobs.On("Get", mock.Anything, "job-1").Return(job, nil)

	svc := usecase.NewEmailDeliveryService(jobs, sender, quickPolicy())
	require.NoError(t, svc.HandleEmail(context.Background(), domain.EmailTaskPayload{JobID: "job-1"}))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEmail_MissingJob(t *testing.T) {
	t.Parallel()
	jobs := &mocks.MockEmailJobRepository{}
	jobs.On("Get", mock.Anything, "nope").Return(domain.EmailJob{}, domain.ErrNotFound)

	svc := usecase.NewEmailDeliveryService(jobs, &mocks.MockEmailSender{}, quickPolicy())
	err := svc.HandleEmail(context.Background(), domain.EmailTaskPayload{JobID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
