package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"mailsync/internal/domain"
)

// Config holds Gmail connector configuration.
type Config struct {
	ClientID         string
	ClientSecret     string
	RefreshToken     string
	User             string
	PageSize         int
	FetchConcurrency int
	Timeout          time.Duration
	MaxAttempts      int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
}

// Source reads one organization mailbox through the Gmail API.
type Source struct {
	svc            *gmailapi.Service
	user           string
	pageSize       int
	concurrency    int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	cb             *gobreaker.CircuitBreaker
	logger         *slog.Logger
}

// New authenticates with the stored refresh token of the mailbox owner.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Source, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmailapi.GmailReadonlyScope},
	}

	httpClient := oauth2.NewClient(ctx, oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}))
	httpClient.Timeout = cfg.Timeout

	return NewWithOptions(ctx, cfg, logger, option.WithHTTPClient(httpClient))
}

// NewWithOptions builds a Source on a caller supplied transport.
func NewWithOptions(ctx context.Context, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*Source, error) {
	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	logger = logger.With("source", "gmail", "mailbox", cfg.User)

	s := &Source{
		svc:            svc,
		user:           cfg.User,
		pageSize:       cfg.PageSize,
		concurrency:    cfg.FetchConcurrency,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger,
	}
	if s.user == "" {
		s.user = "me"
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 1
	}

	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		// Client errors say nothing about the health of the API.
		IsSuccessful: func(err error) bool {
			return err == nil || !isServerSide(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return s, nil
}

// FetchMessages returns every message exchanged with the counterpart inside
// the query window, oldest first.
func (s *Source) FetchMessages(ctx context.Context, query domain.FetchQuery) ([]domain.RawMessage, error) {
	q := buildQuery(query)

	ids, err := s.listMessageIDs(ctx, q)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("listed messages", "query", q, "count", len(ids))

	fetched := make([]*gmailapi.Message, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			msg, err := s.getMessage(gctx, id)
			if isNotFound(err) {
				s.logger.Warn("message vanished before fetch", "message_id", id)
				return nil
			}
			if err != nil {
				return fmt.Errorf("get message %s: %w", id, err)
			}
			fetched[i] = msg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	messages := make([]domain.RawMessage, 0, len(fetched))
	for _, m := range fetched {
		if m == nil {
			continue
		}
		messages = append(messages, parseMessage(m, s.logger))
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt)
	})

	return messages, nil
}

func (s *Source) listMessageIDs(ctx context.Context, q string) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		var resp *gmailapi.ListMessagesResponse
		err := s.call(ctx, "list", func(ctx context.Context) error {
			call := s.svc.Users.Messages.List(s.user).Q(q).Context(ctx)
			if s.pageSize > 0 {
				call = call.MaxResults(int64(s.pageSize))
			}
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			resp, err = call.Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}

		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (s *Source) getMessage(ctx context.Context, id string) (*gmailapi.Message, error) {
	var msg *gmailapi.Message
	err := s.call(ctx, "get", func(ctx context.Context) error {
		var err error
		msg, err = s.svc.Users.Messages.Get(s.user, id).Format("full").Context(ctx).Do()
		return err
	})
	return msg, err
}

// call runs fn through the circuit breaker, retrying transient failures with
// exponential backoff.
func (s *Source) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		_, err = s.cb.Execute(func() (interface{}, error) {
			return nil, fn(ctx)
		})
		if err == nil {
			return nil
		}

		if !isRetryable(err) || attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("gmail request failed, retrying",
			"operation", op,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return wrapError(err)
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

var (
	ErrUnauthorized = errors.New("gmail: mailbox authorization rejected")
	ErrRateLimited  = errors.New("gmail: rate limited")
	ErrUnavailable  = errors.New("gmail: service unavailable")
)

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case apiErr.Code == http.StatusTooManyRequests || isRateLimitReason(apiErr):
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	return err
}

func isRateLimitReason(apiErr *googleapi.Error) bool {
	if apiErr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range apiErr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}

func isServerSide(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 || isRateLimitReason(apiErr)
	}
	return !errors.Is(err, context.Canceled)
}

func isRetryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 || isRateLimitReason(apiErr)
	}
	return true
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
