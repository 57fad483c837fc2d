package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// MockTextGenerator is a mock of domain.TextGenerator.
type MockTextGenerator struct{ mock.Mock }

func (m *MockTextGenerator) Generate(ctx domain.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockTextGenerator) Provider() string { return "mock" }

// MockEmailSender is a mock of domain.EmailSender.
type MockEmailSender struct{ mock.Mock }

func (m *MockEmailSender) Send(ctx domain.Context, to, subject, html string) (string, error) {
	args := m.Called(ctx, to, subject, html)
	return args.String(0), args.Error(1)
}

// MockEmailQueue is a mock of domain.EmailQueue.
type MockEmailQueue struct{ mock.Mock }

func (m *MockEmailQueue) EnqueueEmail(ctx domain.Context, payload domain.EmailTaskPayload) error {
	return m.Called(ctx, payload).Error(0)
}
