package domain

import (
	"errors"
	"time"
)

type SyncStatus string

const (
	SyncStatusNotStarted SyncStatus = "NOT_STARTED"
	SyncStatusInProgress SyncStatus = "IN_PROGRESS"
	SyncStatusSuccess    SyncStatus = "SUCCESS"
	SyncStatusFailed     SyncStatus = "FAILED"
)

type CategorizationStatus string

const (
	CategorizationNotStarted CategorizationStatus = "NOT_STARTED"
	CategorizationInProgress CategorizationStatus = "IN_PROGRESS"
	CategorizationCompleted  CategorizationStatus = "COMPLETED"
	CategorizationFailed     CategorizationStatus = "FAILED"
)

// SyncAttempt is one ledger row. Rows are never deleted; the latest row by
// creation time is the candidate's current status.
type SyncAttempt struct {
	ID                   int64                `db:"id" json:"id"`
	CandidateID          string               `db:"candidate_id" json:"candidateId"`
	FromDate             time.Time            `db:"from_date" json:"fromDate"`
	ToDate               time.Time            `db:"to_date" json:"toDate"`
	SyncStatus           SyncStatus           `db:"sync_status" json:"syncStatus"`
	EmailsFound          int                  `db:"emails_found" json:"emailsFound"`
	EmailsNew            int                  `db:"emails_new" json:"emailsNew"`
	EmailsFailed         int                  `db:"emails_failed" json:"emailsFailed"`
	CategorizationStatus CategorizationStatus `db:"categorization_status" json:"categorizationStatus"`
	CategorizedCount     int                  `db:"categorized_count" json:"categorizedCount"`
	ErrorMessage         *string              `db:"error_message" json:"errorMessage"`
	CategorizationError  *string              `db:"categorization_error" json:"categorizationError"`
	CreatedAt            time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time            `db:"updated_at" json:"updatedAt"`
	LastSyncAt           *time.Time           `db:"last_sync_at" json:"lastSyncAt"`
}

// NeverSynced reports whether the attempt is the placeholder returned for a
// candidate without ledger rows.
func (a SyncAttempt) NeverSynced() bool {
	return a.ID == 0
}

// SyncResult holds the counters of one sync pass.
type SyncResult struct {
	Success      bool `json:"success"`
	EmailsFound  int  `json:"emailsFound"`
	EmailsNew    int  `json:"emailsNew"`
	EmailsFailed int  `json:"emailsFailed"`
}

type CategorizationResult struct {
	Categorized int `json:"categorized"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
}

// FetchQuery selects the messages exchanged with one counterpart.
type FetchQuery struct {
	Counterpart string
	After       time.Time
	Before      time.Time
}

// CategorizationJob is the queue payload requesting categorization of a
// candidate's uncategorized mail.
type CategorizationJob struct {
	CandidateID string    `json:"candidateId"`
	AttemptID   int64     `json:"attemptId"`
	RequestedAt time.Time `json:"requestedAt"`
}

type ReapStats struct {
	Syncs           int64
	Categorizations int64
}

var (
	ErrSyncInProgress           = errors.New("email sync already in progress")
	ErrCategorizationInProgress = errors.New("email categorization already in progress")
	ErrCandidateNotFound        = errors.New("candidate not found")
	ErrEmailNotFound            = errors.New("email not found")
	ErrInvalidCategory          = errors.New("invalid category")
)
