package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mailsync/internal/domain"
)

const maxListLimit = 500

func (s *Server) startSync(c *gin.Context) {
	candidateID := c.Param("candidateId")

	pending, err := s.sync.Begin(c.Request.Context(), candidateID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.Go(func(ctx context.Context) {
		if _, err := s.sync.Run(ctx, pending); err != nil {
			s.logger.Error("background sync failed",
				"candidate_id", candidateID,
				"attempt_id", pending.AttemptID,
				"error", err,
			)
		}
	})

	c.JSON(http.StatusAccepted, gin.H{"attemptId": pending.AttemptID})
}

func (s *Server) startCategorization(c *gin.Context) {
	candidateID := c.Param("candidateId")

	pending, err := s.categorization.Begin(c.Request.Context(), candidateID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.Go(func(ctx context.Context) {
		if _, err := s.categorization.Run(ctx, pending); err != nil {
			s.logger.Error("background categorization failed",
				"candidate_id", candidateID,
				"attempt_id", pending.AttemptID,
				"error", err,
			)
		}
	})

	c.JSON(http.StatusAccepted, gin.H{"attemptId": pending.AttemptID})
}

func (s *Server) getSyncStatus(c *gin.Context) {
	attempt, err := s.queries.GetSyncStatus(c.Request.Context(), c.Param("candidateId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	if attempt.NeverSynced() {
		c.JSON(http.StatusOK, gin.H{
			"syncStatus":           domain.SyncStatusNotStarted,
			"categorizationStatus": domain.CategorizationNotStarted,
			"lastSyncAt":           nil,
		})
		return
	}

	c.JSON(http.StatusOK, attempt)
}

func (s *Server) listEmails(c *gin.Context) {
	filter, err := parseEmailFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	emails, err := s.queries.ListEmails(c.Request.Context(), c.Param("candidateId"), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"emails": emails, "count": len(emails)})
}

func parseEmailFilter(c *gin.Context) (domain.EmailFilter, error) {
	var filter domain.EmailFilter

	if raw := c.Query("category"); raw != "" {
		category, ok := domain.ParseCategory(raw)
		if !ok {
			return filter, errors.New("unknown category " + strconv.Quote(raw))
		}
		filter.Category = &category
	}

	if raw := c.Query("uncategorized"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("uncategorized must be a boolean")
		}
		filter.Uncategorized = v
	}

	if raw := c.Query("inHiringPeriod"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("inHiringPeriod must be a boolean")
		}
		filter.InHiringPeriod = &v
	}

	switch c.DefaultQuery("order", "desc") {
	case "asc":
		filter.Ascending = true
	case "desc":
	default:
		return filter, errors.New("order must be asc or desc")
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = min(limit, maxListLimit)
	}

	return filter, nil
}

func (s *Server) getCategoryStats(c *gin.Context) {
	stats, err := s.queries.GetCategoryStats(c.Request.Context(), c.Param("candidateId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) getHiringPeriod(c *gin.Context) {
	window, err := s.queries.GetHiringPeriod(c.Request.Context(), c.Param("candidateId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, window)
}

type recategorizeRequest struct {
	Category    string `json:"category" binding:"required"`
	ActorUserID string `json:"actorUserId" binding:"required"`
}

func (s *Server) recategorize(c *gin.Context) {
	emailID, err := strconv.ParseInt(c.Param("emailId"), 10, 64)
	if err != nil || emailID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email id"})
		return
	}

	var req recategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok, err := s.categorization.RecategorizeEmail(c.Request.Context(), emailID, req.Category, req.ActorUserID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": ok})
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCandidateNotFound),
		errors.Is(err, domain.ErrEmailNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSyncInProgress),
		errors.Is(err, domain.ErrCategorizationInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCategory):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
