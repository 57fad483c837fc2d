package usecase

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// ReadinessCheck represents a single readiness probe result used by handlers.
type ReadinessCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details,omitempty"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	WaitlistLeads int64                           `json:"waitlist_leads"`
	Analyses      int64                           `json:"analyses"`
	EmailJobs     map[domain.EmailJobStatus]int64 `json:"email_jobs"`
}

// StatsService aggregates counts for the admin API.
type StatsService struct {
	Leads     domain.WaitlistRepository
	Analyses  domain.AnalysisRepository
	EmailJobs domain.EmailJobRepository
}

// NewStatsService constructs a StatsService.
func NewStatsService(l domain.WaitlistRepository, a domain.AnalysisRepository, j domain.EmailJobRepository) StatsService {
	return StatsService{Leads: l, Analyses: a, EmailJobs: j}
}

// Collect returns the current counts.
func (s StatsService) Collect(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if st.WaitlistLeads, err = s.Leads.Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("op=stats.collect: waitlist: %w", err)
	}
	if st.Analyses, err = s.Analyses.Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("op=stats.collect: analyses: %w", err)
	}
	if st.EmailJobs, err = s.EmailJobs.CountByStatus(ctx); err != nil {
		return Stats{}, fmt.Errorf("op=stats.collect: email jobs: %w", err)
	}
	return st, nil
}
