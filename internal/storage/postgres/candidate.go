package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"mailsync/internal/domain"
)

type CandidateStore struct {
	db *sqlx.DB
}

func NewCandidateStore(db *sqlx.DB) *CandidateStore {
	return &CandidateStore{db: db}
}

func (s *CandidateStore) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	var c domain.Candidate
	query := `
		SELECT id, name, email, applied_at, started_at
		FROM candidates
		WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCandidateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
