package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"suumo-checker/internal/models"
	"suumo-checker/internal/search"
)

// Pipeline runs listing checks
type Pipeline interface {
	Check(ctx context.Context, url string) *models.CheckResult
	CheckAll(ctx context.Context, targets []models.Target) []*models.CheckResult
}

// CheckHandler serves the check and query endpoints
type CheckHandler struct {
	pipeline     Pipeline
	builder      *search.QueryBuilder
	maxBatchSize int
}

// NewCheckHandler creates a new check handler
func NewCheckHandler(pipeline Pipeline, builder *search.QueryBuilder, maxBatchSize int) *CheckHandler {
	if maxBatchSize <= 0 {
		maxBatchSize = 50
	}
	return &CheckHandler{pipeline: pipeline, builder: builder, maxBatchSize: maxBatchSize}
}

// Check runs the pipeline for one listing URL
func (h *CheckHandler) Check(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateListingURL(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.pipeline.Check(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, result)
}

// CheckBatch runs the pipeline for several URLs, one after another
func (h *CheckHandler) CheckBatch(c *gin.Context) {
	var req struct {
		URLs []string `json:"urls" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "urls must not be empty"})
		return
	}
	if len(req.URLs) > h.maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("too many urls: %d (max %d)", len(req.URLs), h.maxBatchSize),
		})
		return
	}

	targets := make([]models.Target, 0, len(req.URLs))
	for _, u := range req.URLs {
		if err := validateListingURL(u); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		targets = append(targets, models.Target{URL: u})
	}

	log.Printf("[API] batch check of %d urls", len(targets))
	results := h.pipeline.CheckAll(c.Request.Context(), targets)

	failed := 0
	for _, r := range results {
		if r.Status.IsFailure() {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
		"failed":  failed,
	})
}

type queryRequest struct {
	Stations  []models.StationRef `json:"stations"`
	Price     *float64            `json:"price"`
	Area      *float64            `json:"area"`
	Age       *int                `json:"age"`
	FloorPlan *string             `json:"floor_plan"`
}

// BuildQuery synthesizes a search URL from conditions without fetching anything
func (h *CheckHandler) BuildQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.builder.Build(req.Stations, req.Price, req.Area, req.Age, req.FloorPlan)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, search.ErrNoStations) || errors.Is(err, search.ErrStationUnresolved) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      q.String(),
		"base_url": q.BaseURL,
		"params":   q.Params,
	})
}

// Buckets shows how values snap to the portal's filter stops
func (h *CheckHandler) Buckets(c *gin.Context) {
	resp := gin.H{}

	if v, ok, err := floatQuery(c, "price"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	} else if ok {
		resp["price"] = search.BucketPrice(v)
	}

	if v, ok, err := floatQuery(c, "area"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	} else if ok {
		resp["area"] = search.BucketArea(v)
	}

	if v, ok, err := intQuery(c, "age"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	} else if ok {
		resp["age"] = search.BucketAge(&v)
	}

	if v, ok, err := intQuery(c, "walk"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	} else if ok {
		resp["walk"] = search.BucketWalkMinutes(v)
	}

	c.JSON(http.StatusOK, resp)
}

func floatQuery(c *gin.Context, key string) (float64, bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, true, nil
}

func intQuery(c *gin.Context, key string) (int, bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, true, nil
}

func validateListingURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid listing url: %q", raw)
	}
	return nil
}
