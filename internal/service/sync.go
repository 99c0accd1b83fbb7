package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"mailsync/internal/config"
	"mailsync/internal/domain"
)

const maxErrorMessageLen = 1000

type SyncService struct {
	candidates CandidateStore
	threads    ThreadStore
	emails     EmailStore
	ledger     SyncLedger
	connector  Connector
	txManager  TransactionManager
	queue      JobQueue
	logger     *slog.Logger
	config     config.SyncConfig
	orgDomains map[string]struct{}
	now        func() time.Time
}

func NewSyncService(
	candidates CandidateStore,
	threads ThreadStore,
	emails EmailStore,
	ledger SyncLedger,
	connector Connector,
	txManager TransactionManager,
	queue JobQueue,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	domains := make(map[string]struct{}, len(cfg.OrgDomains))
	for _, d := range cfg.OrgDomains {
		domains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}

	return &SyncService{
		candidates: candidates,
		threads:    threads,
		emails:     emails,
		ledger:     ledger,
		connector:  connector,
		txManager:  txManager,
		queue:      queue,
		logger:     logger.With("component", "email_sync"),
		config:     cfg,
		orgDomains: domains,
		now:        time.Now,
	}
}

// PendingSync is an attempt that holds the candidate's sync slot in the
// ledger and is waiting to be run.
type PendingSync struct {
	AttemptID   int64
	CandidateID string

	counterpart string
	window      domain.HiringWindow
}

// SyncAllCandidateEmails claims the sync slot and runs the attempt to
// completion.
func (s *SyncService) SyncAllCandidateEmails(ctx context.Context, candidateID string) (*domain.SyncResult, error) {
	pending, err := s.Begin(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, pending)
}

// Begin records an IN_PROGRESS attempt. It fails with domain.ErrSyncInProgress
// while another attempt for the candidate is running.
func (s *SyncService) Begin(ctx context.Context, candidateID string) (*PendingSync, error) {
	candidate, err := s.candidates.Get(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	window := candidate.HiringWindow(s.now())

	attempt, err := s.ledger.StartSync(ctx, candidateID, window)
	if err != nil {
		return nil, fmt.Errorf("start sync: %w", err)
	}

	s.logger.Info("sync attempt started",
		"candidate_id", candidateID,
		"attempt_id", attempt.ID,
		"window_start", window.Start,
		"window_end", window.End,
	)

	return &PendingSync{
		AttemptID:   attempt.ID,
		CandidateID: candidateID,
		counterpart: candidate.Email,
		window:      window,
	}, nil
}

// Run fetches and reconciles the candidate's mail and writes the terminal
// ledger status. Messages reconciled before a failure stay committed.
func (s *SyncService) Run(ctx context.Context, p *PendingSync) (*domain.SyncResult, error) {
	startTime := time.Now()
	logger := s.logger.With("candidate_id", p.CandidateID, "attempt_id", p.AttemptID)
	result := &domain.SyncResult{}

	stopHeartbeat := s.heartbeat(ctx, logger, p.AttemptID)
	defer stopHeartbeat()

	fetchWindow := p.window.Expand(s.config.WindowPadding)
	messages, err := s.connector.FetchMessages(ctx, domain.FetchQuery{
		Counterpart: p.counterpart,
		After:       fetchWindow.Start,
		Before:      fetchWindow.End,
	})
	if err != nil {
		s.finish(ctx, logger, p, domain.SyncStatusFailed, result, err)
		return result, fmt.Errorf("fetch messages: %w", err)
	}

	result.EmailsFound = len(messages)
	logger.Info("fetched messages", "count", len(messages))

	for i := range messages {
		if err := ctx.Err(); err != nil {
			s.finish(ctx, logger, p, domain.SyncStatusFailed, result, err)
			return result, fmt.Errorf("sync interrupted: %w", err)
		}

		isNew, err := s.reconcile(ctx, p, &messages[i])
		if err != nil {
			result.EmailsFailed++
			logger.Warn("failed to reconcile message",
				"provider_message_id", messages[i].ProviderMessageID,
				"error", err,
			)
			continue
		}
		if isNew {
			result.EmailsNew++
		}
	}

	result.Success = true
	s.finish(ctx, logger, p, domain.SyncStatusSuccess, result, nil)

	logger.Info("sync completed",
		"found", result.EmailsFound,
		"new", result.EmailsNew,
		"failed", result.EmailsFailed,
		"duration", time.Since(startTime),
	)

	if result.EmailsNew > 0 && s.queue != nil {
		job := domain.CategorizationJob{
			CandidateID: p.CandidateID,
			AttemptID:   p.AttemptID,
			RequestedAt: s.now(),
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			logger.Error("failed to enqueue categorization", "error", err)
		}
	}

	return result, nil
}

func (s *SyncService) finish(ctx context.Context, logger *slog.Logger, p *PendingSync, status domain.SyncStatus, result *domain.SyncResult, cause error) {
	ctx, cancel := detached(ctx, s.config.FinalizeTimeout)
	defer cancel()

	if cause != nil {
		logger.Error("sync failed", "error", cause)
	}

	if err := s.ledger.FinishSync(ctx, p.AttemptID, status, *result, errorMessage(cause)); err != nil {
		logger.Error("failed to record sync outcome", "status", status, "error", err)
	}
}

// heartbeat touches the attempt every HeartbeatInterval until the returned
// stop func is called. A zero interval disables it.
func (s *SyncService) heartbeat(ctx context.Context, logger *slog.Logger, attemptID int64) func() {
	if s.config.HeartbeatInterval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.config.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.ledger.TouchSync(ctx, attemptID); err != nil && ctx.Err() == nil {
					logger.Warn("failed to record sync heartbeat", "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// reconcile stores one message and reports whether it was new.
func (s *SyncService) reconcile(ctx context.Context, p *PendingSync, msg *domain.RawMessage) (bool, error) {
	if err := msg.Validate(); err != nil {
		return false, err
	}

	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return false, fmt.Errorf("%w: from %q: %v", domain.ErrInvalidMessage, msg.From, err)
	}

	recipients, err := parseRecipients(msg.To, msg.Cc)
	if err != nil {
		return false, err
	}

	email := &domain.CandidateEmail{
		CandidateID:       p.CandidateID,
		ProviderMessageID: msg.ProviderMessageID,
		Direction:         s.direction(from.Address),
		FromEmail:         strings.ToLower(from.Address),
		FromName:          from.Name,
		ToEmails:          recipients,
		Subject:           msg.Subject,
		SentAt:            msg.SentAt,
		TextBody:          msg.TextBody,
		HTMLBody:          msg.HTMLBody,
		Attachments:       domain.Attachments(msg.Attachments),
		IsInHiringPeriod:  p.window.Contains(msg.SentAt),
	}

	thread := &domain.EmailThread{
		CandidateID: p.CandidateID,
		ThreadKey:   msg.ThreadKey(),
		Subject:     msg.Subject,
	}
	if msg.ProviderThreadID != "" {
		providerThreadID := msg.ProviderThreadID
		thread.ProviderThreadID = &providerThreadID
	}

	var isNew bool
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		threadID, err := s.threads.Resolve(txCtx, thread)
		if err != nil {
			return fmt.Errorf("resolve thread: %w", err)
		}

		email.ThreadID = threadID
		_, isNew, err = s.emails.Insert(txCtx, email)
		if err != nil {
			return fmt.Errorf("insert email: %w", err)
		}
		return nil
	})

	return isNew, err
}

// direction is OUTBOUND when the sender belongs to one of the organization's
// domains.
func (s *SyncService) direction(address string) domain.Direction {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return domain.DirectionInbound
	}
	if _, ok := s.orgDomains[strings.ToLower(address[at+1:])]; ok {
		return domain.DirectionOutbound
	}
	return domain.DirectionInbound
}

// parseRecipients merges the To and Cc headers into a lowercased set that
// keeps first-seen order.
func parseRecipients(headers ...string) ([]string, error) {
	seen := make(map[string]struct{})
	recipients := make([]string, 0)

	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		list, err := mail.ParseAddressList(h)
		if err != nil {
			return nil, fmt.Errorf("%w: recipients %q: %v", domain.ErrInvalidMessage, h, err)
		}
		for _, addr := range list {
			a := strings.ToLower(addr.Address)
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			recipients = append(recipients, a)
		}
	}

	return recipients, nil
}

// detached keeps ctx values but survives its cancellation, bounded by
// timeout.
func detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func errorMessage(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		msg = "interrupted: " + msg
	}
	if r := []rune(msg); len(r) > maxErrorMessageLen {
		msg = string(r[:maxErrorMessageLen-3]) + "..."
	}
	return &msg
}
