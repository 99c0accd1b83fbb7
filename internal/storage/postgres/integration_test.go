//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"mailsync/internal/domain"
	"mailsync/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(Migrate(db))
	// second run is a no-op
	s.Require().NoError(Migrate(db))
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM candidate_emails")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM email_threads")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM sync_attempts")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM candidates")

	_, err := s.db.ExecContext(s.ctx,
		"INSERT INTO candidates (id, name, email, applied_at) VALUES ($1, $2, $3, $4)",
		"cand-1", "Ada Obi", "ada@example.com", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	s.Require().NoError(err)
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) window() domain.HiringWindow {
	return domain.HiringWindow{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *PostgresIntegrationSuite) insertEmail(providerID string, sentAt time.Time) int64 {
	threadID, err := NewThreadStore(s.db).Resolve(s.ctx, &domain.EmailThread{
		CandidateID: "cand-1",
		ThreadKey:   "thread-" + providerID,
		Subject:     "Hello",
	})
	s.Require().NoError(err)

	id, isNew, err := NewEmailStore(s.db).Insert(s.ctx, &domain.CandidateEmail{
		ThreadID:          threadID,
		CandidateID:       "cand-1",
		ProviderMessageID: providerID,
		Direction:         domain.DirectionInbound,
		FromEmail:         "ada@example.com",
		ToEmails:          []string{"talent@curacel.co"},
		Subject:           "Hello",
		SentAt:            sentAt,
		IsInHiringPeriod:  true,
	})
	s.Require().NoError(err)
	s.Require().True(isNew)
	return id
}

func (s *PostgresIntegrationSuite) TestCandidateStore_Get() {
	store := NewCandidateStore(s.db)

	c, err := store.Get(s.ctx, "cand-1")
	s.NoError(err)
	s.Equal("ada@example.com", c.Email)
	s.Nil(c.StartedAt)

	_, err = store.Get(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrCandidateNotFound)
}

func (s *PostgresIntegrationSuite) TestThreadStore_Resolve_ReusesExisting() {
	store := NewThreadStore(s.db)
	thread := &domain.EmailThread{
		CandidateID:      "cand-1",
		ThreadKey:        "t-1",
		ProviderThreadID: utils.Ptr("t-1"),
		Subject:          "Interview",
	}

	id1, err := store.Resolve(s.ctx, thread)
	s.NoError(err)

	thread.Subject = "Re: Interview"
	id2, err := store.Resolve(s.ctx, thread)
	s.NoError(err)
	s.Equal(id1, id2)

	var subject string
	s.NoError(s.db.GetContext(s.ctx, &subject, "SELECT subject FROM email_threads WHERE id = $1", id1))
	s.Equal("Interview", subject)
}

func (s *PostgresIntegrationSuite) TestEmailStore_Insert_Idempotent() {
	threadID, err := NewThreadStore(s.db).Resolve(s.ctx, &domain.EmailThread{CandidateID: "cand-1", ThreadKey: "t-1"})
	s.Require().NoError(err)

	store := NewEmailStore(s.db)
	email := &domain.CandidateEmail{
		ThreadID:          threadID,
		CandidateID:       "cand-1",
		ProviderMessageID: "m-1",
		Direction:         domain.DirectionOutbound,
		FromEmail:         "talent@curacel.co",
		ToEmails:          []string{"ada@example.com", "cc@example.com"},
		SentAt:            time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
		Attachments:       domain.Attachments{{Filename: "offer.pdf", Size: 2048}},
		IsInHiringPeriod:  true,
	}

	id1, isNew, err := store.Insert(s.ctx, email)
	s.NoError(err)
	s.True(isNew)

	id2, isNew, err := store.Insert(s.ctx, email)
	s.NoError(err)
	s.False(isNew)
	s.Equal(id1, id2)

	emails, err := store.List(s.ctx, "cand-1", domain.EmailFilter{})
	s.NoError(err)
	s.Require().Len(emails, 1)
	s.Equal([]string{"ada@example.com", "cc@example.com"}, emails[0].ToEmails)
	s.Equal(domain.Attachments{{Filename: "offer.pdf", Size: 2048}}, emails[0].Attachments)
	s.Nil(emails[0].Category)
}

func (s *PostgresIntegrationSuite) TestTransaction_RollbackDiscardsThread() {
	tm := NewTransactionManager(s.db)
	threads := NewThreadStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		_, err := threads.Resolve(ctx, &domain.EmailThread{CandidateID: "cand-1", ThreadKey: "t-rollback"})
		s.Require().NoError(err)
		return domain.ErrInvalidMessage
	})
	s.ErrorIs(err, domain.ErrInvalidMessage)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM email_threads WHERE thread_key = 't-rollback'"))
	s.Equal(0, count)
}

func (s *PostgresIntegrationSuite) TestEmailStore_SetCategory_DoesNotOverrideManual() {
	store := NewEmailStore(s.db)
	id := s.insertEmail("m-1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	s.NoError(store.Recategorize(s.ctx, id, domain.CategoryOffer, "user-7", time.Now()))

	updated, err := store.SetCategory(s.ctx, id, domain.Classification{Category: domain.CategoryOther, Confidence: 0.9}, time.Now())
	s.NoError(err)
	s.False(updated)

	emails, err := store.List(s.ctx, "cand-1", domain.EmailFilter{})
	s.NoError(err)
	s.Require().Len(emails, 1)
	s.Equal(domain.CategoryOffer, *emails[0].Category)
	s.Equal(domain.CategorySourceManual, *emails[0].CategorySource)
	s.Equal("user-7", *emails[0].CategorizedBy)
	s.Nil(emails[0].CategoryConfidence)
}

func (s *PostgresIntegrationSuite) TestEmailStore_Recategorize_NotFound() {
	err := NewEmailStore(s.db).Recategorize(s.ctx, 999999, domain.CategoryOffer, "user-7", time.Now())
	s.ErrorIs(err, domain.ErrEmailNotFound)
}

func (s *PostgresIntegrationSuite) TestEmailStore_ListUncategorized_Keyset() {
	store := NewEmailStore(s.db)
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	for i, p := range []string{"m-1", "m-2", "m-3"} {
		ids = append(ids, s.insertEmail(p, base.Add(time.Duration(i)*time.Hour)))
	}
	_, err := store.SetCategory(s.ctx, ids[1], domain.Classification{Category: domain.CategoryOffer, Confidence: 0.8}, time.Now())
	s.Require().NoError(err)

	page, err := store.ListUncategorized(s.ctx, "cand-1", 0, 1)
	s.NoError(err)
	s.Require().Len(page, 1)
	s.Equal(ids[0], page[0].ID)

	page, err = store.ListUncategorized(s.ctx, "cand-1", page[0].ID, 10)
	s.NoError(err)
	s.Require().Len(page, 1)
	s.Equal(ids[2], page[0].ID)
}

func (s *PostgresIntegrationSuite) TestEmailStore_ListFiltersAndStats() {
	store := NewEmailStore(s.db)
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	first := s.insertEmail("m-1", base)
	s.insertEmail("m-2", base.Add(time.Hour))
	_, err := s.db.ExecContext(s.ctx, "UPDATE candidate_emails SET is_in_hiring_period = FALSE WHERE id = $1", first)
	s.Require().NoError(err)
	_, err = store.SetCategory(s.ctx, first, domain.Classification{Category: domain.CategoryApplication, Confidence: 0.7}, time.Now())
	s.Require().NoError(err)

	asc, err := store.List(s.ctx, "cand-1", domain.EmailFilter{Ascending: true})
	s.NoError(err)
	s.Require().Len(asc, 2)
	s.Equal("m-1", asc[0].ProviderMessageID)

	desc, err := store.List(s.ctx, "cand-1", domain.EmailFilter{Limit: 1})
	s.NoError(err)
	s.Require().Len(desc, 1)
	s.Equal("m-2", desc[0].ProviderMessageID)

	byCategory, err := store.List(s.ctx, "cand-1", domain.EmailFilter{Category: utils.Ptr(domain.CategoryApplication)})
	s.NoError(err)
	s.Len(byCategory, 1)

	inPeriod, err := store.List(s.ctx, "cand-1", domain.EmailFilter{InHiringPeriod: utils.Ptr(true), Uncategorized: true})
	s.NoError(err)
	s.Require().Len(inPeriod, 1)
	s.Equal("m-2", inPeriod[0].ProviderMessageID)

	stats, err := store.CategoryStats(s.ctx, "cand-1")
	s.NoError(err)
	s.Equal(2, stats.Total)
	s.Equal(1, stats.InHiringPeriod)
	s.Equal(1, stats.Uncategorized)
	s.Equal(map[domain.Category]int{domain.CategoryApplication: 1}, stats.ByCategory)
}

func (s *PostgresIntegrationSuite) TestSyncAttemptStore_Latest_NeverSynced() {
	attempt, err := NewSyncAttemptStore(s.db).Latest(s.ctx, "cand-1")
	s.NoError(err)
	s.True(attempt.NeverSynced())
	s.Equal(domain.SyncStatusNotStarted, attempt.SyncStatus)
	s.Equal(domain.CategorizationNotStarted, attempt.CategorizationStatus)
}

func (s *PostgresIntegrationSuite) TestSyncAttemptStore_StartSync_Guard() {
	store := NewSyncAttemptStore(s.db)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.StartSync(s.ctx, "cand-1", s.window())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, domain.ErrSyncInProgress)
	}
	s.Equal(1, succeeded)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM sync_attempts WHERE candidate_id = 'cand-1'"))
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestSyncAttemptStore_FinishSync_AllowsNextAttempt() {
	store := NewSyncAttemptStore(s.db)

	first, err := store.StartSync(s.ctx, "cand-1", s.window())
	s.Require().NoError(err)
	s.Equal(domain.SyncStatusInProgress, first.SyncStatus)

	err = store.FinishSync(s.ctx, first.ID, domain.SyncStatusSuccess, domain.SyncResult{Success: true, EmailsFound: 3, EmailsNew: 2, EmailsFailed: 1}, nil)
	s.Require().NoError(err)

	latest, err := store.Latest(s.ctx, "cand-1")
	s.NoError(err)
	s.Equal(first.ID, latest.ID)
	s.Equal(domain.SyncStatusSuccess, latest.SyncStatus)
	s.Equal(2, latest.EmailsNew)
	s.NotNil(latest.LastSyncAt)

	second, err := store.StartSync(s.ctx, "cand-1", s.window())
	s.NoError(err)
	s.NotEqual(first.ID, second.ID)
}

func (s *PostgresIntegrationSuite) TestSyncAttemptStore_StartCategorization() {
	store := NewSyncAttemptStore(s.db)

	id, err := store.StartCategorization(s.ctx, "cand-1", s.window())
	s.Require().NoError(err)

	latest, err := store.Latest(s.ctx, "cand-1")
	s.NoError(err)
	s.Equal(id, latest.ID)
	s.Equal(domain.SyncStatusNotStarted, latest.SyncStatus)
	s.Equal(domain.CategorizationInProgress, latest.CategorizationStatus)

	_, err = store.StartCategorization(s.ctx, "cand-1", s.window())
	s.ErrorIs(err, domain.ErrCategorizationInProgress)

	s.NoError(store.IncrementCategorized(s.ctx, id))
	s.NoError(store.IncrementCategorized(s.ctx, id))
	s.NoError(store.FinishCategorization(s.ctx, id, domain.CategorizationCompleted, nil))

	latest, err = store.Latest(s.ctx, "cand-1")
	s.NoError(err)
	s.Equal(2, latest.CategorizedCount)
	s.Equal(domain.CategorizationCompleted, latest.CategorizationStatus)

	again, err := store.StartCategorization(s.ctx, "cand-1", s.window())
	s.NoError(err)
	s.Equal(id, again)
}

func (s *PostgresIntegrationSuite) TestSyncAttemptStore_ReapStale() {
	store := NewSyncAttemptStore(s.db)

	stale, err := store.StartSync(s.ctx, "cand-1", s.window())
	s.Require().NoError(err)
	_, err = store.StartCategorization(s.ctx, "cand-1", s.window())
	s.Require().NoError(err)
	_, err = s.db.ExecContext(s.ctx, "UPDATE sync_attempts SET updated_at = NOW() - INTERVAL '2 hours' WHERE id = $1", stale.ID)
	s.Require().NoError(err)

	_, err = s.db.ExecContext(s.ctx,
		"INSERT INTO candidates (id, name, email, applied_at) VALUES ('cand-2', 'Bo', 'bo@example.com', NOW())")
	s.Require().NoError(err)
	fresh, err := store.StartSync(s.ctx, "cand-2", s.window())
	s.Require().NoError(err)

	stats, err := store.ReapStale(s.ctx, time.Now().Add(-time.Hour))
	s.NoError(err)
	s.Equal(domain.ReapStats{Syncs: 1, Categorizations: 1}, stats)

	latest, err := store.Latest(s.ctx, "cand-1")
	s.NoError(err)
	s.Equal(domain.SyncStatusFailed, latest.SyncStatus)
	s.Equal(domain.CategorizationFailed, latest.CategorizationStatus)
	s.Require().NotNil(latest.ErrorMessage)
	s.Contains(*latest.ErrorMessage, "abandoned")

	other, err := store.Latest(s.ctx, "cand-2")
	s.NoError(err)
	s.Equal(fresh.ID, other.ID)
	s.Equal(domain.SyncStatusInProgress, other.SyncStatus)
}

func (s *PostgresIntegrationSuite) TestSyncAttemptStore_CategorizationCarriesToNewerAttempts() {
	store := NewSyncAttemptStore(s.db)

	first, err := store.StartSync(s.ctx, "cand-1", s.window())
	s.Require().NoError(err)
	s.Require().NoError(store.FinishSync(s.ctx, first.ID, domain.SyncStatusSuccess, domain.SyncResult{Success: true, EmailsNew: 2}, nil))

	runID, err := store.StartCategorization(s.ctx, "cand-1", s.window())
	s.Require().NoError(err)
	s.Require().Equal(first.ID, runID)
	s.Require().NoError(store.IncrementCategorized(s.ctx, runID))

	second, err := store.StartSync(s.ctx, "cand-1", s.window())
	s.Require().NoError(err)

	latest, err := store.Latest(s.ctx, "cand-1")
	s.Require().NoError(err)
	s.Equal(second.ID, latest.ID)
	s.Equal(domain.SyncStatusInProgress, latest.SyncStatus)
	s.Equal(domain.CategorizationInProgress, latest.CategorizationStatus)
	s.Equal(1, latest.CategorizedCount)

	s.Require().NoError(store.FinishSync(s.ctx, second.ID, domain.SyncStatusSuccess, domain.SyncResult{Success: true, EmailsNew: 1}, nil))

	_, err = store.StartCategorization(s.ctx, "cand-1", s.window())
	s.ErrorIs(err, domain.ErrCategorizationInProgress)

	third, err := store.StartSync(s.ctx, "cand-1", s.window())
	s.Require().NoError(err)

	s.Require().NoError(store.IncrementCategorized(s.ctx, runID))
	s.Require().NoError(store.IncrementCategorized(s.ctx, runID))
	s.Require().NoError(store.FinishCategorization(s.ctx, runID, domain.CategorizationCompleted, nil))

	var rows []domain.SyncAttempt
	s.Require().NoError(s.db.SelectContext(s.ctx, &rows,
		"SELECT "+attemptColumns+" FROM sync_attempts WHERE candidate_id = 'cand-1' ORDER BY id"))
	s.Require().Len(rows, 3)

	s.Equal(domain.CategorizationCompleted, rows[0].CategorizationStatus)
	s.Equal(3, rows[0].CategorizedCount)
	s.Equal(domain.CategorizationCompleted, rows[1].CategorizationStatus)
	s.Equal(3, rows[1].CategorizedCount)
	s.Equal(third.ID, rows[2].ID)
	s.Equal(domain.CategorizationNotStarted, rows[2].CategorizationStatus)

	latest, err = store.Latest(s.ctx, "cand-1")
	s.Require().NoError(err)
	s.Equal(third.ID, latest.ID)
	s.Equal(domain.CategorizationNotStarted, latest.CategorizationStatus)

	s.Require().NoError(store.FinishSync(s.ctx, third.ID, domain.SyncStatusSuccess, domain.SyncResult{Success: true, EmailsNew: 1}, nil))
	next, err := store.StartCategorization(s.ctx, "cand-1", s.window())
	s.NoError(err)
	s.Equal(third.ID, next)
}

func (s *PostgresIntegrationSuite) TestSyncAttemptStore_ReapedAttemptKeepsFailure() {
	store := NewSyncAttemptStore(s.db)

	attempt, err := store.StartSync(s.ctx, "cand-1", s.window())
	s.Require().NoError(err)
	_, err = s.db.ExecContext(s.ctx, "UPDATE sync_attempts SET updated_at = NOW() - INTERVAL '2 hours' WHERE id = $1", attempt.ID)
	s.Require().NoError(err)

	s.Require().NoError(store.TouchSync(s.ctx, attempt.ID))
	stats, err := store.ReapStale(s.ctx, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(domain.ReapStats{}, stats)

	_, err = s.db.ExecContext(s.ctx, "UPDATE sync_attempts SET updated_at = NOW() - INTERVAL '2 hours' WHERE id = $1", attempt.ID)
	s.Require().NoError(err)
	stats, err = store.ReapStale(s.ctx, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), stats.Syncs)

	s.Require().NoError(store.FinishSync(s.ctx, attempt.ID, domain.SyncStatusSuccess, domain.SyncResult{Success: true, EmailsFound: 9}, nil))

	latest, err := store.Latest(s.ctx, "cand-1")
	s.Require().NoError(err)
	s.Equal(domain.SyncStatusFailed, latest.SyncStatus)
	s.Equal(0, latest.EmailsFound)
}
