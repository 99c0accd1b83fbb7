package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"mailsync/internal/domain"
)

type ThreadStore struct {
	db *sqlx.DB
}

func NewThreadStore(db *sqlx.DB) *ThreadStore {
	return &ThreadStore{db: db}
}

// Resolve returns the id of the candidate's thread with the given key,
// creating it on first sight. The subject of an existing thread is kept.
func (s *ThreadStore) Resolve(ctx context.Context, thread *domain.EmailThread) (int64, error) {
	exec := GetExecutor(ctx, s.db)
	query := `
		INSERT INTO email_threads (candidate_id, thread_key, provider_thread_id, subject)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (candidate_id, thread_key) DO NOTHING
		RETURNING id`

	var id int64
	err := exec.QueryRowxContext(ctx, query,
		thread.CandidateID,
		thread.ThreadKey,
		thread.ProviderThreadID,
		thread.Subject,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		err = exec.QueryRowxContext(ctx,
			"SELECT id FROM email_threads WHERE candidate_id = $1 AND thread_key = $2",
			thread.CandidateID, thread.ThreadKey,
		).Scan(&id)
	}

	if err != nil {
		return 0, err
	}

	return id, nil
}
