package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mailsync/internal/domain"
)

const emailColumns = `
	id, thread_id, candidate_id, provider_message_id, direction, from_email, from_name,
	to_emails, subject, sent_at, text_body, html_body, attachments, is_in_hiring_period,
	category, category_confidence, category_source, categorized_by, categorized_at, created_at`

type emailRow struct {
	domain.CandidateEmail
	ToEmails pq.StringArray `db:"to_emails"`
}

func (r emailRow) toDomain() domain.CandidateEmail {
	e := r.CandidateEmail
	e.ToEmails = []string(r.ToEmails)
	if e.ToEmails == nil {
		e.ToEmails = []string{}
	}
	return e
}

func toDomainEmails(rows []emailRow) []domain.CandidateEmail {
	emails := make([]domain.CandidateEmail, 0, len(rows))
	for _, r := range rows {
		emails = append(emails, r.toDomain())
	}
	return emails
}

type EmailStore struct {
	db *sqlx.DB
}

func NewEmailStore(db *sqlx.DB) *EmailStore {
	return &EmailStore{db: db}
}

// Insert stores the email unless the thread already holds a message with the
// same provider id. isNew is false for such duplicates and id then refers to
// the stored row.
func (s *EmailStore) Insert(ctx context.Context, email *domain.CandidateEmail) (id int64, isNew bool, err error) {
	exec := GetExecutor(ctx, s.db)
	query := `
		INSERT INTO candidate_emails (
			thread_id, candidate_id, provider_message_id, direction, from_email, from_name,
			to_emails, subject, sent_at, text_body, html_body, attachments, is_in_hiring_period
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (thread_id, provider_message_id) DO NOTHING
		RETURNING id`

	err = exec.QueryRowxContext(ctx, query,
		email.ThreadID,
		email.CandidateID,
		email.ProviderMessageID,
		email.Direction,
		email.FromEmail,
		email.FromName,
		pq.StringArray(email.ToEmails),
		email.Subject,
		email.SentAt,
		email.TextBody,
		email.HTMLBody,
		email.Attachments,
		email.IsInHiringPeriod,
	).Scan(&id)

	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	err = exec.QueryRowxContext(ctx,
		"SELECT id FROM candidate_emails WHERE thread_id = $1 AND provider_message_id = $2",
		email.ThreadID, email.ProviderMessageID,
	).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// ListUncategorized pages through the candidate's emails without a category
// in id order, starting after afterID.
func (s *EmailStore) ListUncategorized(ctx context.Context, candidateID string, afterID int64, limit int) ([]domain.CandidateEmail, error) {
	query := `SELECT ` + emailColumns + `
		FROM candidate_emails
		WHERE candidate_id = $1 AND category IS NULL AND id > $2
		ORDER BY id
		LIMIT $3`

	var rows []emailRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, candidateID, afterID, limit); err != nil {
		return nil, err
	}
	return toDomainEmails(rows), nil
}

// SetCategory records an AI classification. It never overwrites an existing
// category, so it reports false when the email was categorized meanwhile.
func (s *EmailStore) SetCategory(ctx context.Context, emailID int64, c domain.Classification, at time.Time) (bool, error) {
	query := `
		UPDATE candidate_emails
		SET category = $2, category_confidence = $3, category_source = $4, categorized_by = NULL, categorized_at = $5
		WHERE id = $1 AND category IS NULL`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		emailID, c.Category, c.Confidence, domain.CategorySourceAI, at,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Recategorize applies a manual override and clears the AI confidence.
func (s *EmailStore) Recategorize(ctx context.Context, emailID int64, category domain.Category, actorUserID string, at time.Time) error {
	query := `
		UPDATE candidate_emails
		SET category = $2, category_confidence = NULL, category_source = $3, categorized_by = $4, categorized_at = $5
		WHERE id = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		emailID, category, domain.CategorySourceManual, actorUserID, at,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEmailNotFound
	}
	return nil
}

func (s *EmailStore) List(ctx context.Context, candidateID string, filter domain.EmailFilter) ([]domain.CandidateEmail, error) {
	var sb strings.Builder
	args := []interface{}{candidateID}

	sb.WriteString(`SELECT ` + emailColumns + ` FROM candidate_emails WHERE candidate_id = $1`)

	if filter.Category != nil {
		args = append(args, *filter.Category)
		sb.WriteString(" AND category = $" + strconv.Itoa(len(args)))
	}
	if filter.Uncategorized {
		sb.WriteString(" AND category IS NULL")
	}
	if filter.InHiringPeriod != nil {
		args = append(args, *filter.InHiringPeriod)
		sb.WriteString(" AND is_in_hiring_period = $" + strconv.Itoa(len(args)))
	}

	if filter.Ascending {
		sb.WriteString(" ORDER BY sent_at ASC, id ASC")
	} else {
		sb.WriteString(" ORDER BY sent_at DESC, id DESC")
	}

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	var rows []emailRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, sb.String(), args...); err != nil {
		return nil, err
	}
	return toDomainEmails(rows), nil
}

func (s *EmailStore) CategoryStats(ctx context.Context, candidateID string) (*domain.CategoryStats, error) {
	exec := GetExecutor(ctx, s.db)
	stats := &domain.CategoryStats{ByCategory: make(map[domain.Category]int)}

	totals := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_in_hiring_period),
			COUNT(*) FILTER (WHERE category IS NULL)
		FROM candidate_emails
		WHERE candidate_id = $1`
	err := exec.QueryRowxContext(ctx, totals, candidateID).
		Scan(&stats.Total, &stats.InHiringPeriod, &stats.Uncategorized)
	if err != nil {
		return nil, err
	}

	rows, err := exec.QueryxContext(ctx, `
		SELECT category, COUNT(*)
		FROM candidate_emails
		WHERE candidate_id = $1 AND category IS NOT NULL
		GROUP BY category`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var category domain.Category
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.ByCategory[category] = count
	}

	return stats, rows.Err()
}
