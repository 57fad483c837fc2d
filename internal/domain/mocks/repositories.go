// Package mocks provides testify mocks for the domain ports.
package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// MockAnalysisRepository is a mock of domain.AnalysisRepository.
type MockAnalysisRepository struct{ mock.Mock }

func (m *MockAnalysisRepository) FindCached(ctx domain.Context, shareURLHash string, category domain.Category) (domain.ChatAnalysis, error) {
	args := m.Called(ctx, shareURLHash, category)
	return args.Get(0).(domain.ChatAnalysis), args.Error(1)
}

func (m *MockAnalysisRepository) Upsert(ctx domain.Context, a domain.ChatAnalysis) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

func (m *MockAnalysisRepository) Count(ctx domain.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockPromptRepository is a mock of domain.PromptRepository.
type MockPromptRepository struct{ mock.Mock }

func (m *MockPromptRepository) GetActive(ctx domain.Context, key string) (domain.Prompt, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.Prompt), args.Error(1)
}

func (m *MockPromptRepository) GetActiveMany(ctx domain.Context, keys []string) (map[string]domain.Prompt, error) {
	args := m.Called(ctx, keys)
	if v := args.Get(0); v != nil {
		return v.(map[string]domain.Prompt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPromptRepository) ListByCategory(ctx domain.Context, category string) ([]domain.Prompt, error) {
	args := m.Called(ctx, category)
	if v := args.Get(0); v != nil {
		return v.([]domain.Prompt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPromptRepository) Publish(ctx domain.Context, p domain.Prompt) (domain.Prompt, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Prompt), args.Error(1)
}

func (m *MockPromptRepository) IncrementUsage(ctx domain.Context, promptID string, success bool) error {
	return m.Called(ctx, promptID, success).Error(0)
}

// MockWaitlistRepository is a mock of domain.WaitlistRepository.
type MockWaitlistRepository struct{ mock.Mock }

func (m *MockWaitlistRepository) Create(ctx domain.Context, lead domain.WaitlistLead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *MockWaitlistRepository) Position(ctx domain.Context, leadID string) (int, error) {
	args := m.Called(ctx, leadID)
	return args.Int(0), args.Error(1)
}

func (m *MockWaitlistRepository) Count(ctx domain.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockEmailJobRepository is a mock of domain.EmailJobRepository.
type MockEmailJobRepository struct{ mock.Mock }

func (m *MockEmailJobRepository) Create(ctx domain.Context, j domain.EmailJob) (string, error) {
	args := m.Called(ctx, j)
	return args.String(0), args.Error(1)
}

func (m *MockEmailJobRepository) Get(ctx domain.Context, id string) (domain.EmailJob, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.EmailJob), args.Error(1)
}

func (m *MockEmailJobRepository) MarkSent(ctx domain.Context, id, providerID string) error {
	return m.Called(ctx, id, providerID).Error(0)
}

func (m *MockEmailJobRepository) MarkFailed(ctx domain.Context, id, errMsg string) error {
	return m.Called(ctx, id, errMsg).Error(0)
}

func (m *MockEmailJobRepository) CountByStatus(ctx domain.Context) (map[domain.EmailJobStatus]int64, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(map[domain.EmailJobStatus]int64), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRateLimiter is a mock of domain.RateLimiter.
type MockRateLimiter struct{ mock.Mock }

func (m *MockRateLimiter) Check(ctx domain.Context, identifier, endpoint string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	args := m.Called(ctx, identifier, endpoint, limit, window)
	return args.Get(0).(domain.RateLimitDecision), args.Error(1)
}
