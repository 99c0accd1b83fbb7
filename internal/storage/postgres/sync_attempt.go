package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"mailsync/internal/domain"
)

const attemptColumns = `
	id, candidate_id, from_date, to_date, sync_status, emails_found, emails_new, emails_failed,
	categorization_status, categorized_count, error_message, categorization_error,
	created_at, updated_at, last_sync_at`

// SyncAttemptStore is the append-only ledger of sync and categorization
// attempts. Partial unique indexes allow one in-progress sync and one
// in-progress categorization per candidate.
type SyncAttemptStore struct {
	db *sqlx.DB
}

func NewSyncAttemptStore(db *sqlx.DB) *SyncAttemptStore {
	return &SyncAttemptStore{db: db}
}

func (s *SyncAttemptStore) StartSync(ctx context.Context, candidateID string, window domain.HiringWindow) (*domain.SyncAttempt, error) {
	query := `
		INSERT INTO sync_attempts (candidate_id, from_date, to_date, sync_status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + attemptColumns

	var attempt domain.SyncAttempt
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &attempt, query,
		candidateID, window.Start, window.End, domain.SyncStatusInProgress,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrSyncInProgress
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FinishSync records the outcome of a running sync. A row already failed by
// the reaper is left as it is.
func (s *SyncAttemptStore) FinishSync(ctx context.Context, attemptID int64, status domain.SyncStatus, result domain.SyncResult, errMsg *string) error {
	query := `
		UPDATE sync_attempts
		SET sync_status = $2, emails_found = $3, emails_new = $4, emails_failed = $5,
			error_message = $6, last_sync_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND sync_status = $7`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		attemptID, status, result.EmailsFound, result.EmailsNew, result.EmailsFailed, errMsg,
		domain.SyncStatusInProgress,
	)
	return err
}

// TouchSync marks a running sync as alive so the reaper leaves it alone.
func (s *SyncAttemptStore) TouchSync(ctx context.Context, attemptID int64) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE sync_attempts SET updated_at = NOW() WHERE id = $1 AND sync_status = $2",
		attemptID, domain.SyncStatusInProgress,
	)
	return err
}

// StartCategorization claims the candidate's latest attempt for a
// categorization run. A candidate without attempts gets a
// categorization-only row spanning window.
func (s *SyncAttemptStore) StartCategorization(ctx context.Context, candidateID string, window domain.HiringWindow) (int64, error) {
	exec := GetExecutor(ctx, s.db)
	claim := `
		UPDATE sync_attempts
		SET categorization_status = $2, categorized_count = 0, categorization_error = NULL, updated_at = NOW()
		WHERE id = (
			SELECT id FROM sync_attempts
			WHERE candidate_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) AND categorization_status <> $2
		RETURNING id`

	var id int64
	err := exec.QueryRowxContext(ctx, claim, candidateID, domain.CategorizationInProgress).Scan(&id)
	if err == nil {
		return id, nil
	}
	if isUniqueViolation(err) {
		return 0, domain.ErrCategorizationInProgress
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	var exists bool
	err = exec.QueryRowxContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM sync_attempts WHERE candidate_id = $1)", candidateID,
	).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, domain.ErrCategorizationInProgress
	}

	insert := `
		INSERT INTO sync_attempts (candidate_id, from_date, to_date, sync_status, categorization_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err = exec.QueryRowxContext(ctx, insert,
		candidateID, window.Start, window.End, domain.SyncStatusNotStarted, domain.CategorizationInProgress,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, domain.ErrCategorizationInProgress
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SyncAttemptStore) IncrementCategorized(ctx context.Context, attemptID int64) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE sync_attempts SET categorized_count = categorized_count + 1, updated_at = NOW() WHERE id = $1",
		attemptID,
	)
	return err
}

// FinishCategorization records the outcome on the claimed row and on newer
// finished syncs that were never categorized on their own: the run covered
// their mail too, since it reads every uncategorized email of the candidate.
func (s *SyncAttemptStore) FinishCategorization(ctx context.Context, attemptID int64, status domain.CategorizationStatus, errMsg *string) error {
	query := `
		WITH finished AS (
			UPDATE sync_attempts
			SET categorization_status = $2, categorization_error = $3, updated_at = NOW()
			WHERE id = $1 AND categorization_status = $4
			RETURNING candidate_id, categorized_count
		)
		UPDATE sync_attempts a
		SET categorization_status = $2, categorization_error = $3,
			categorized_count = finished.categorized_count, updated_at = NOW()
		FROM finished
		WHERE a.candidate_id = finished.candidate_id
			AND a.id > $1
			AND a.categorization_status = $5
			AND a.sync_status <> $6`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		attemptID, status, errMsg,
		domain.CategorizationInProgress,
		domain.CategorizationNotStarted,
		domain.SyncStatusInProgress,
	)
	return err
}

// Latest returns the candidate's most recent attempt. A candidate that was
// never synced gets a placeholder with ID 0 and NOT_STARTED statuses.
func (s *SyncAttemptStore) Latest(ctx context.Context, candidateID string) (*domain.SyncAttempt, error) {
	var attempt domain.SyncAttempt
	query := `SELECT ` + attemptColumns + `
		FROM sync_attempts
		WHERE candidate_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &attempt, query, candidateID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.SyncAttempt{
			CandidateID:          candidateID,
			SyncStatus:           domain.SyncStatusNotStarted,
			CategorizationStatus: domain.CategorizationNotStarted,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if attempt.CategorizationStatus == domain.CategorizationNotStarted {
		if err := s.overlayRunningCategorization(ctx, &attempt); err != nil {
			return nil, err
		}
	}
	return &attempt, nil
}

// overlayRunningCategorization reports the progress of a categorization run
// claimed on an older row, which is working through this attempt's mail.
func (s *SyncAttemptStore) overlayRunningCategorization(ctx context.Context, attempt *domain.SyncAttempt) error {
	var running struct {
		Status domain.CategorizationStatus `db:"categorization_status"`
		Count  int                         `db:"categorized_count"`
	}
	query := `
		SELECT categorization_status, categorized_count
		FROM sync_attempts
		WHERE candidate_id = $1 AND categorization_status = $2 AND id <> $3
		LIMIT 1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &running, query,
		attempt.CandidateID, domain.CategorizationInProgress, attempt.ID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	attempt.CategorizationStatus = running.Status
	attempt.CategorizedCount = running.Count
	return nil
}

// ReapStale fails in-progress work whose row has not been touched since
// cutoff.
func (s *SyncAttemptStore) ReapStale(ctx context.Context, cutoff time.Time) (domain.ReapStats, error) {
	query := `
		WITH stale AS (
			SELECT id,
				sync_status = $1 AS sync_stale,
				categorization_status = $2 AS categorization_stale
			FROM sync_attempts
			WHERE updated_at < $3 AND (sync_status = $1 OR categorization_status = $2)
			FOR UPDATE
		)
		UPDATE sync_attempts a
		SET
			sync_status = CASE WHEN stale.sync_stale THEN $4 ELSE a.sync_status END,
			error_message = CASE WHEN stale.sync_stale THEN $5 ELSE a.error_message END,
			categorization_status = CASE WHEN stale.categorization_stale THEN $6 ELSE a.categorization_status END,
			categorization_error = CASE WHEN stale.categorization_stale THEN $7 ELSE a.categorization_error END,
			updated_at = NOW()
		FROM stale
		WHERE a.id = stale.id
		RETURNING stale.sync_stale, stale.categorization_stale`

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, query,
		domain.SyncStatusInProgress,
		domain.CategorizationInProgress,
		cutoff,
		domain.SyncStatusFailed,
		"sync abandoned: no progress before timeout",
		domain.CategorizationFailed,
		"categorization abandoned: no progress before timeout",
	)
	if err != nil {
		return domain.ReapStats{}, err
	}
	defer rows.Close()

	var stats domain.ReapStats
	for rows.Next() {
		var syncStale, categorizationStale bool
		if err := rows.Scan(&syncStale, &categorizationStale); err != nil {
			return stats, err
		}
		if syncStale {
			stats.Syncs++
		}
		if categorizationStale {
			stats.Categorizations++
		}
	}
	return stats, rows.Err()
}
