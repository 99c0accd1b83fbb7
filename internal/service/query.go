package service

import (
	"context"
	"fmt"
	"time"

	"mailsync/internal/domain"
)

// EmailQueryService serves the read side used by the platform UI.
type EmailQueryService struct {
	candidates CandidateStore
	emails     EmailStore
	ledger     SyncLedger
	now        func() time.Time
}

func NewEmailQueryService(candidates CandidateStore, emails EmailStore, ledger SyncLedger) *EmailQueryService {
	return &EmailQueryService{
		candidates: candidates,
		emails:     emails,
		ledger:     ledger,
		now:        time.Now,
	}
}

func (s *EmailQueryService) ListEmails(ctx context.Context, candidateID string, filter domain.EmailFilter) ([]domain.CandidateEmail, error) {
	if _, err := s.candidates.Get(ctx, candidateID); err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	emails, err := s.emails.List(ctx, candidateID, filter)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	return emails, nil
}

// GetSyncStatus returns the latest ledger row, or a placeholder for which
// NeverSynced reports true.
func (s *EmailQueryService) GetSyncStatus(ctx context.Context, candidateID string) (*domain.SyncAttempt, error) {
	if _, err := s.candidates.Get(ctx, candidateID); err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	attempt, err := s.ledger.Latest(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("latest attempt: %w", err)
	}
	return attempt, nil
}

func (s *EmailQueryService) GetCategoryStats(ctx context.Context, candidateID string) (*domain.CategoryStats, error) {
	if _, err := s.candidates.Get(ctx, candidateID); err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	stats, err := s.emails.CategoryStats(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	return stats, nil
}

func (s *EmailQueryService) GetHiringPeriod(ctx context.Context, candidateID string) (*domain.HiringWindow, error) {
	candidate, err := s.candidates.Get(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	window := candidate.HiringWindow(s.now())
	return &window, nil
}
