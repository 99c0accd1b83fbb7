package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"mailsync/internal/classifier/openai"
	"mailsync/internal/config"
	"mailsync/internal/domain"
	"mailsync/internal/httpapi"
	"mailsync/internal/queue"
	"mailsync/internal/scheduler"
	"mailsync/internal/service"
	"mailsync/internal/source/gmail"
	"mailsync/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	syncCandidate := flag.String("sync-candidate", "", "sync and categorize one candidate, then exit")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *syncCandidate, logger); err != nil {
		logger.Error("mailsync stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, syncCandidate string, logger *slog.Logger) error {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := postgres.Migrate(db); err != nil {
		return err
	}

	candidateStore := postgres.NewCandidateStore(db)
	threadStore := postgres.NewThreadStore(db)
	emailStore := postgres.NewEmailStore(db)
	ledger := postgres.NewSyncAttemptStore(db)
	txManager := postgres.NewTransactionManager(db)

	mailbox, err := gmail.New(ctx, gmail.Config{
		ClientID:         cfg.Gmail.ClientID,
		ClientSecret:     cfg.Gmail.ClientSecret,
		RefreshToken:     cfg.Gmail.RefreshToken,
		User:             cfg.Gmail.User,
		PageSize:         cfg.Gmail.PageSize,
		FetchConcurrency: cfg.Gmail.FetchConcurrency,
		Timeout:          cfg.Gmail.Timeout,
		MaxAttempts:      cfg.Gmail.Retry.MaxAttempts,
		InitialBackoff:   cfg.Gmail.Retry.InitialBackoff,
		MaxBackoff:       cfg.Gmail.Retry.MaxBackoff,
	}, logger)
	if err != nil {
		return err
	}

	classifier := openai.New(openai.Config{
		APIKey:       cfg.Classifier.APIKey,
		BaseURL:      cfg.Classifier.BaseURL,
		Model:        cfg.Classifier.Model,
		MaxBodyChars: cfg.Classifier.MaxBodyChars,
		Timeout:      cfg.Classifier.Timeout,
	}, logger)

	categorizationService := service.NewCategorizationService(
		candidateStore,
		emailStore,
		ledger,
		classifier,
		logger,
		cfg.Categorization,
		cfg.Sync.FinalizeTimeout,
	)

	if syncCandidate != "" {
		return runOnce(ctx, cfg, syncCandidate, candidateStore, threadStore, emailStore, ledger, mailbox, txManager, categorizationService, logger)
	}

	rabbitMQ, err := queue.NewRabbitMQ(queue.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		return err
	}
	defer rabbitMQ.Close()

	syncService := service.NewSyncService(
		candidateStore,
		threadStore,
		emailStore,
		ledger,
		mailbox,
		txManager,
		rabbitMQ,
		logger,
		cfg.Sync,
	)

	queryService := service.NewEmailQueryService(candidateStore, emailStore, ledger)
	reaper := service.NewReaper(ledger, cfg.Reaper.StaleAfter, logger)

	api := httpapi.NewServer(syncService, categorizationService, queryService, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return rabbitMQ.Consume(gctx, cfg.Categorization.Workers, func(ctx context.Context, job domain.CategorizationJob) error {
			_, err := categorizationService.CategorizeAllForCandidate(ctx, job.CandidateID)
			return err
		})
	})

	g.Go(func() error {
		err := scheduler.NewScheduler("reaper", reaper, cfg.Reaper.Interval, cfg.Reaper.Interval, logger).Start(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
		if err := api.Drain(shutdownCtx); err != nil {
			logger.Warn("background runs interrupted", "error", err)
		}
		return nil
	})

	logger.Info("starting mailsync",
		"org_domains", cfg.Sync.OrgDomains,
		"categorization_workers", cfg.Categorization.Workers,
		"reaper_interval", cfg.Reaper.Interval,
	)

	return g.Wait()
}

// runOnce syncs a single candidate and categorizes inline instead of going
// through the queue.
func runOnce(
	ctx context.Context,
	cfg *config.Config,
	candidateID string,
	candidates service.CandidateStore,
	threads service.ThreadStore,
	emails service.EmailStore,
	ledger service.SyncLedger,
	connector service.Connector,
	txManager service.TransactionManager,
	categorization *service.CategorizationService,
	logger *slog.Logger,
) error {
	syncService := service.NewSyncService(candidates, threads, emails, ledger, connector, txManager, nil, logger, cfg.Sync)

	result, err := syncService.SyncAllCandidateEmails(ctx, candidateID)
	if err != nil {
		return err
	}
	logger.Info("sync finished",
		"candidate_id", candidateID,
		"emails_found", result.EmailsFound,
		"emails_new", result.EmailsNew,
		"emails_failed", result.EmailsFailed,
	)

	catResult, err := categorization.CategorizeAllForCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	logger.Info("categorization finished",
		"candidate_id", candidateID,
		"categorized", catResult.Categorized,
		"failed", catResult.Failed,
		"skipped", catResult.Skipped,
	)
	return nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
