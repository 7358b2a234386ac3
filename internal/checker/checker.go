package checker

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"suumo-checker/internal/fetcher"
	"suumo-checker/internal/models"
	"suumo-checker/internal/scraper"
	"suumo-checker/internal/search"
)

// Options configures a Checker
type Options struct {
	PortalURL   string
	Prefecture  string
	CompanyName string
}

// Checker runs the per-listing pipeline: extract, build query, match, verify.
type Checker struct {
	extractor *scraper.ConditionExtractor
	builder   *search.QueryBuilder
	matcher   *scraper.ResultMatcher
	verifier  *scraper.IdentityVerifier
	now       func() time.Time
}

// New wires every stage to the same fetcher
func New(f fetcher.Fetcher, resolver search.StationResolver, opts Options) *Checker {
	return &Checker{
		extractor: scraper.NewConditionExtractor(f),
		builder:   search.NewQueryBuilder(resolver, opts.PortalURL, opts.Prefecture),
		matcher:   scraper.NewResultMatcher(f, opts.PortalURL),
		verifier:  scraper.NewIdentityVerifier(f, opts.CompanyName),
		now:       time.Now,
	}
}

// Builder exposes the query builder for callers that only synthesize URLs
func (c *Checker) Builder() *search.QueryBuilder {
	return c.builder
}

// Check runs the pipeline for one listing URL under a fresh run id
func (c *Checker) Check(ctx context.Context, url string) *models.CheckResult {
	return c.check(ctx, uuid.New(), url)
}

// CheckAll processes targets one after another under a single run id. A failing
// listing is recorded and the run continues; cancellation stops it early.
func (c *Checker) CheckAll(ctx context.Context, targets []models.Target) []*models.CheckResult {
	runID := uuid.New()
	results := make([]*models.CheckResult, 0, len(targets))

	log.Printf("[Checker] run %s: %d targets", runID, len(targets))
	for i, t := range targets {
		if ctx.Err() != nil {
			log.Printf("[Checker] run %s cancelled after %d/%d targets", runID, i, len(targets))
			break
		}
		log.Printf("[Checker] (%d/%d) %s %s", i+1, len(targets), t.Name, t.Room)
		results = append(results, c.check(ctx, runID, t.URL))
	}

	log.Printf("[Checker] run %s finished: %v", runID, Summarize(results))
	return results
}

func (c *Checker) check(ctx context.Context, runID uuid.UUID, url string) *models.CheckResult {
	result := &models.CheckResult{RunID: runID, URL: url}
	defer func() {
		result.CheckedAt = c.now()
		log.Printf("[Checker] %s -> %s", url, result.Status)
	}()

	conditions, err := c.extractor.Extract(ctx, url)
	if err != nil {
		result.Status = models.StatusExtractionFailed
		result.Error = err.Error()
		return result
	}
	result.Conditions = conditions

	query, err := c.builder.BuildFromConditions(conditions)
	if err != nil {
		result.Status = models.StatusQueryFailed
		result.Error = err.Error()
		return result
	}
	result.SearchURL = query.String()

	match := c.matcher.Match(ctx, query, conditions)
	result.Match = &match

	switch match.Kind {
	case models.MatchNoPropertyID:
		result.Status = models.StatusNoPropertyID
		return result
	case models.MatchFetchFailed:
		result.Status = models.StatusSearchFailed
		result.Error = match.Reason
		return result
	}
	if !match.Found() {
		result.Status = models.StatusNotFound
		return result
	}

	verification := c.verifier.Verify(ctx, match.DetailURL)
	result.Verification = &verification

	switch {
	case verification.Unreachable():
		result.Status = models.StatusVerifyFailed
		result.Error = verification.FetchError
	case verification.Confirmed:
		result.Status = models.StatusFoundConfirmed
	default:
		result.Status = models.StatusFoundOtherCompany
	}
	return result
}

// Summarize counts results by status
func Summarize(results []*models.CheckResult) map[models.CheckStatus]int {
	counts := make(map[models.CheckStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
