package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"mailsync/internal/domain"
)

type CandidateStore interface {
	Get(ctx context.Context, id string) (*domain.Candidate, error)
}

type ThreadStore interface {
	Resolve(ctx context.Context, thread *domain.EmailThread) (int64, error)
}

type EmailStore interface {
	Insert(ctx context.Context, email *domain.CandidateEmail) (int64, bool, error)
	ListUncategorized(ctx context.Context, candidateID string, afterID int64, limit int) ([]domain.CandidateEmail, error)
	SetCategory(ctx context.Context, emailID int64, c domain.Classification, at time.Time) (bool, error)
	Recategorize(ctx context.Context, emailID int64, category domain.Category, actorUserID string, at time.Time) error
	List(ctx context.Context, candidateID string, filter domain.EmailFilter) ([]domain.CandidateEmail, error)
	CategoryStats(ctx context.Context, candidateID string) (*domain.CategoryStats, error)
}

type SyncLedger interface {
	StartSync(ctx context.Context, candidateID string, window domain.HiringWindow) (*domain.SyncAttempt, error)
	FinishSync(ctx context.Context, attemptID int64, status domain.SyncStatus, result domain.SyncResult, errMsg *string) error
	TouchSync(ctx context.Context, attemptID int64) error
	StartCategorization(ctx context.Context, candidateID string, window domain.HiringWindow) (int64, error)
	IncrementCategorized(ctx context.Context, attemptID int64) error
	FinishCategorization(ctx context.Context, attemptID int64, status domain.CategorizationStatus, errMsg *string) error
	Latest(ctx context.Context, candidateID string) (*domain.SyncAttempt, error)
	ReapStale(ctx context.Context, cutoff time.Time) (domain.ReapStats, error)
}

// Connector reads the organization mailbox.
type Connector interface {
	FetchMessages(ctx context.Context, query domain.FetchQuery) ([]domain.RawMessage, error)
}

type Classifier interface {
	Classify(ctx context.Context, email *domain.CandidateEmail) (domain.Classification, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type JobQueue interface {
	Enqueue(ctx context.Context, job domain.CategorizationJob) error
}
