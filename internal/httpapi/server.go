package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"mailsync/internal/domain"
	"mailsync/internal/service"
)

type SyncRunner interface {
	Begin(ctx context.Context, candidateID string) (*service.PendingSync, error)
	Run(ctx context.Context, p *service.PendingSync) (*domain.SyncResult, error)
}

type CategorizationRunner interface {
	Begin(ctx context.Context, candidateID string) (*service.PendingCategorization, error)
	Run(ctx context.Context, p *service.PendingCategorization) (*domain.CategorizationResult, error)
	RecategorizeEmail(ctx context.Context, emailID int64, category string, actorUserID string) (bool, error)
}

type EmailQueries interface {
	ListEmails(ctx context.Context, candidateID string, filter domain.EmailFilter) ([]domain.CandidateEmail, error)
	GetSyncStatus(ctx context.Context, candidateID string) (*domain.SyncAttempt, error)
	GetCategoryStats(ctx context.Context, candidateID string) (*domain.CategoryStats, error)
	GetHiringPeriod(ctx context.Context, candidateID string) (*domain.HiringWindow, error)
}

// Server exposes the sync and categorization operations. Runs started over
// HTTP outlive their request and are tracked until Drain.
type Server struct {
	engine         *gin.Engine
	sync           SyncRunner
	categorization CategorizationRunner
	queries        EmailQueries
	logger         *slog.Logger

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

func NewServer(syncRunner SyncRunner, categorization CategorizationRunner, queries EmailQueries, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	s := &Server{
		engine:         gin.New(),
		sync:           syncRunner,
		categorization: categorization,
		queries:        queries,
		logger:         logger,
		bgCtx:          bgCtx,
		bgCancel:       bgCancel,
	}

	s.engine.Use(gin.Recovery(), requestLogger(logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		candidates := api.Group("/candidates/:candidateId")
		{
			candidates.POST("/email-sync", s.startSync)
			candidates.GET("/email-sync", s.getSyncStatus)
			candidates.POST("/email-categorization", s.startCategorization)
			candidates.GET("/emails", s.listEmails)
			candidates.GET("/email-stats", s.getCategoryStats)
			candidates.GET("/hiring-period", s.getHiringPeriod)
		}

		api.PATCH("/emails/:emailId/category", s.recategorize)
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Go runs fn in the background group.
func (s *Server) Go(fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn(s.bgCtx)
	}()
}

// Drain waits for background runs. When ctx expires first the runs are
// cancelled, which makes them record an interrupted outcome, and Drain waits
// for that to finish.
func (s *Server) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.bgCancel()
		return nil
	case <-ctx.Done():
		s.logger.Warn("cancelling background runs")
		s.bgCancel()
		<-done
		return ctx.Err()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
