package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mailsync/internal/config"
	"mailsync/internal/domain"
)

type CategorizationService struct {
	candidates      CandidateStore
	emails          EmailStore
	ledger          SyncLedger
	classifier      Classifier
	logger          *slog.Logger
	config          config.CategorizationConfig
	finalizeTimeout time.Duration
	now             func() time.Time
}

func NewCategorizationService(
	candidates CandidateStore,
	emails EmailStore,
	ledger SyncLedger,
	classifier Classifier,
	logger *slog.Logger,
	cfg config.CategorizationConfig,
	finalizeTimeout time.Duration,
) *CategorizationService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}

	return &CategorizationService{
		candidates:      candidates,
		emails:          emails,
		ledger:          ledger,
		classifier:      classifier,
		logger:          logger.With("component", "email_categorization"),
		config:          cfg,
		finalizeTimeout: finalizeTimeout,
		now:             time.Now,
	}
}

type PendingCategorization struct {
	AttemptID   int64
	CandidateID string
}

func (s *CategorizationService) CategorizeAllForCandidate(ctx context.Context, candidateID string) (*domain.CategorizationResult, error) {
	pending, err := s.Begin(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, pending)
}

// Begin marks the candidate's latest attempt IN_PROGRESS for categorization.
// It fails with domain.ErrCategorizationInProgress while another run holds
// the slot.
func (s *CategorizationService) Begin(ctx context.Context, candidateID string) (*PendingCategorization, error) {
	candidate, err := s.candidates.Get(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	attemptID, err := s.ledger.StartCategorization(ctx, candidateID, candidate.HiringWindow(s.now()))
	if err != nil {
		return nil, fmt.Errorf("start categorization: %w", err)
	}

	return &PendingCategorization{AttemptID: attemptID, CandidateID: candidateID}, nil
}

// Run classifies every uncategorized email of the candidate. A classifier
// error leaves that email uncategorized and does not stop the run.
func (s *CategorizationService) Run(ctx context.Context, p *PendingCategorization) (*domain.CategorizationResult, error) {
	startTime := time.Now()
	logger := s.logger.With("candidate_id", p.CandidateID, "attempt_id", p.AttemptID)
	result := &domain.CategorizationResult{}

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			s.finish(ctx, logger, p, domain.CategorizationFailed, err)
			return result, fmt.Errorf("categorization interrupted: %w", err)
		}

		batch, err := s.emails.ListUncategorized(ctx, p.CandidateID, afterID, s.config.BatchSize)
		if err != nil {
			s.finish(ctx, logger, p, domain.CategorizationFailed, err)
			return result, fmt.Errorf("list uncategorized: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].ID

		s.categorizeBatch(ctx, logger, p, batch, result)
	}

	if result.Failed > 0 && result.Categorized == 0 && result.Skipped == 0 {
		err := fmt.Errorf("all %d classifications failed", result.Failed)
		s.finish(ctx, logger, p, domain.CategorizationFailed, err)
		return result, nil
	}

	s.finish(ctx, logger, p, domain.CategorizationCompleted, nil)

	logger.Info("categorization completed",
		"categorized", result.Categorized,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"duration", time.Since(startTime),
	)

	return result, nil
}

func (s *CategorizationService) categorizeBatch(ctx context.Context, logger *slog.Logger, p *PendingCategorization, batch []domain.CandidateEmail, result *domain.CategorizationResult) {
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)

	for i := range batch {
		email := &batch[i]
		g.Go(func() error {
			outcome := s.categorizeOne(ctx, logger, p, email)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeCategorized:
				result.Categorized++
			case outcomeSkipped:
				result.Skipped++
			default:
				result.Failed++
			}
			return nil
		})
	}

	_ = g.Wait()
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeCategorized
	outcomeSkipped
)

func (s *CategorizationService) categorizeOne(ctx context.Context, logger *slog.Logger, p *PendingCategorization, email *domain.CandidateEmail) outcome {
	logger = logger.With("email_id", email.ID)

	classification, err := s.classifier.Classify(ctx, email)
	if err != nil {
		logger.Warn("classification failed", "error", err)
		return outcomeFailed
	}

	updated, err := s.emails.SetCategory(ctx, email.ID, classification, s.now())
	if err != nil {
		logger.Warn("failed to store category", "error", err)
		return outcomeFailed
	}
	if !updated {
		logger.Debug("email categorized concurrently, keeping existing category")
		return outcomeSkipped
	}

	if err := s.ledger.IncrementCategorized(ctx, p.AttemptID); err != nil {
		logger.Warn("failed to record categorization progress", "error", err)
	}

	logger.Debug("email categorized",
		"category", classification.Category,
		"confidence", classification.Confidence,
	)
	return outcomeCategorized
}

func (s *CategorizationService) finish(ctx context.Context, logger *slog.Logger, p *PendingCategorization, status domain.CategorizationStatus, cause error) {
	ctx, cancel := detached(ctx, s.finalizeTimeout)
	defer cancel()

	if cause != nil {
		logger.Error("categorization failed", "error", cause)
	}

	if err := s.ledger.FinishCategorization(ctx, p.AttemptID, status, errorMessage(cause)); err != nil {
		logger.Error("failed to record categorization outcome", "status", status, "error", err)
	}
}

// RecategorizeEmail applies a manual category chosen by actorUserID. The AI
// confidence is cleared.
func (s *CategorizationService) RecategorizeEmail(ctx context.Context, emailID int64, category string, actorUserID string) (bool, error) {
	c, ok := domain.ParseCategory(category)
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
	}

	if err := s.emails.Recategorize(ctx, emailID, c, actorUserID, s.now()); err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			return false, err
		}
		return false, fmt.Errorf("recategorize email: %w", err)
	}

	s.logger.Info("email recategorized",
		"email_id", emailID,
		"category", c,
		"actor_user_id", actorUserID,
	)
	return true, nil
}
