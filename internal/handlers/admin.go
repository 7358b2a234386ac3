package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"suumo-checker/internal/fetcher"
	"suumo-checker/internal/ratelimit"
	"suumo-checker/internal/report"
	"suumo-checker/internal/scheduler"
)

// BatchRunner triggers a batch run
type BatchRunner interface {
	RunNow(ctx context.Context) (*scheduler.BatchSummary, error)
}

// AdminHandler exposes the run history and operational state
type AdminHandler struct {
	runner     BatchRunner
	reportPath string
	limiter    *ratelimit.RateLimiter
	portal     fetcher.Options
}

// NewAdminHandler creates a new admin handler. runner may be nil, as may the
// breaker and limiter in portal.
func NewAdminHandler(runner BatchRunner, reportPath string, limiter *ratelimit.RateLimiter, portal fetcher.Options) *AdminHandler {
	return &AdminHandler{
		runner:     runner,
		reportPath: reportPath,
		limiter:    limiter,
		portal:     portal,
	}
}

// GetReport returns the run history sheet
func (h *AdminHandler) GetReport(c *gin.Context) {
	sheet, err := report.LoadSheet(h.reportPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runs": sheet.Runs,
		"rows": sheet.Rows,
	})
}

// GetChanges returns rows whose status changed in the latest run
func (h *AdminHandler) GetChanges(c *gin.Context) {
	sheet, err := report.LoadSheet(h.reportPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	changes := sheet.Changes()
	c.JSON(http.StatusOK, gin.H{
		"changes": changes,
		"count":   len(changes),
	})
}

// TriggerRun starts a batch run in the background
func (h *AdminHandler) TriggerRun(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "batch runner not available"})
		return
	}

	log.Println("[Admin] manual run requested")
	go func() {
		// the request context ends with the response
		if _, err := h.runner.RunNow(context.Background()); err != nil {
			log.Printf("[Admin] manual run failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "batch run started",
		"status":  "running",
	})
}

// GetRateLimitStats returns API limiter, portal pacer and breaker state
func (h *AdminHandler) GetRateLimitStats(c *gin.Context) {
	resp := gin.H{}
	if h.limiter != nil {
		resp["api"] = h.limiter.GetStats()
	}
	if h.portal.Limiter != nil {
		resp["portal_pacer"] = h.portal.Limiter.GetStats()
	}
	if h.portal.Breaker != nil {
		resp["portal_breaker"] = h.portal.Breaker.GetStatus()
	}
	c.JSON(http.StatusOK, resp)
}

// RateLimit rejects requests once the sliding-window limiter is exhausted
func RateLimit(limiter *ratelimit.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.AllowRequest() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
				"stats":   limiter.GetStats(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
