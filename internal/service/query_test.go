package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"mailsync/internal/domain"
	"mailsync/internal/service/mocks"
	"mailsync/testdata/utils"
)

func TestEmailQueryService(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	candidate := &domain.Candidate{
		ID:        "cand-1",
		Email:     "ada@example.com",
		AppliedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	setup := func(t *testing.T) (*EmailQueryService, *mocks.MockCandidateStore, *mocks.MockEmailStore, *mocks.MockSyncLedger) {
		ctrl := gomock.NewController(t)
		candidates := mocks.NewMockCandidateStore(ctrl)
		emails := mocks.NewMockEmailStore(ctrl)
		ledger := mocks.NewMockSyncLedger(ctrl)
		svc := NewEmailQueryService(candidates, emails, ledger)
		svc.now = func() time.Time { return now }
		return svc, candidates, emails, ledger
	}

	t.Run("list emails passes filter", func(t *testing.T) {
		svc, candidates, emails, _ := setup(t)
		filter := domain.EmailFilter{Category: utils.Ptr(domain.CategoryOffer), Limit: 10}

		candidates.EXPECT().Get(ctx, "cand-1").Return(candidate, nil)
		emails.EXPECT().List(ctx, "cand-1", filter).Return([]domain.CandidateEmail{{ID: 1}}, nil)

		got, err := svc.ListEmails(ctx, "cand-1", filter)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("unknown candidate", func(t *testing.T) {
		svc, candidates, _, _ := setup(t)
		candidates.EXPECT().Get(ctx, "missing").Return(nil, domain.ErrCandidateNotFound)

		_, err := svc.GetSyncStatus(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrCandidateNotFound)
	})

	t.Run("never synced sentinel", func(t *testing.T) {
		svc, candidates, _, ledger := setup(t)
		candidates.EXPECT().Get(ctx, "cand-1").Return(candidate, nil)
		ledger.EXPECT().Latest(ctx, "cand-1").Return(&domain.SyncAttempt{
			CandidateID:          "cand-1",
			SyncStatus:           domain.SyncStatusNotStarted,
			CategorizationStatus: domain.CategorizationNotStarted,
		}, nil)

		got, err := svc.GetSyncStatus(ctx, "cand-1")
		require.NoError(t, err)
		assert.True(t, got.NeverSynced())
	})

	t.Run("category stats", func(t *testing.T) {
		svc, candidates, emails, _ := setup(t)
		stats := &domain.CategoryStats{Total: 3, ByCategory: map[domain.Category]int{domain.CategoryOffer: 1}}
		candidates.EXPECT().Get(ctx, "cand-1").Return(candidate, nil)
		emails.EXPECT().CategoryStats(ctx, "cand-1").Return(stats, nil)

		got, err := svc.GetCategoryStats(ctx, "cand-1")
		require.NoError(t, err)
		assert.Equal(t, stats, got)
	})

	t.Run("hiring period open ended", func(t *testing.T) {
		svc, candidates, _, _ := setup(t)
		candidates.EXPECT().Get(ctx, "cand-1").Return(candidate, nil)

		got, err := svc.GetHiringPeriod(ctx, "cand-1")
		require.NoError(t, err)
		assert.Equal(t, &domain.HiringWindow{Start: candidate.AppliedAt, End: now}, got)
	})
}

func TestReaper_Sweep(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockSyncLedger(ctrl)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	reaper := NewReaper(ledger, time.Hour, testLogger())
	reaper.now = func() time.Time { return now }

	ledger.EXPECT().ReapStale(gomock.Any(), now.Add(-time.Hour)).Return(domain.ReapStats{Syncs: 1}, nil)

	require.NoError(t, reaper.Sweep(context.Background()))
}
