package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"suumo-checker/internal/fetcher"
	"suumo-checker/internal/models"
)

// ResultMatcher looks for a listing on the first page of a search
type ResultMatcher struct {
	fetcher   fetcher.Fetcher
	portalURL string
}

// NewResultMatcher creates a matcher. portalURL is used to build detail URLs.
func NewResultMatcher(f fetcher.Fetcher, portalURL string) *ResultMatcher {
	return &ResultMatcher{fetcher: f, portalURL: portalURL}
}

// Match fetches the search page and checks whether the listing's id is on it.
// No fetch is made when the title carries no id.
func (m *ResultMatcher) Match(ctx context.Context, query *models.SearchQuery, conditions *models.ListingConditions) models.MatchOutcome {
	var title string
	if conditions != nil {
		title = conditions.Title
	}
	id, ok := ExtractPropertyID(title)
	if !ok {
		log.Printf("[Match] no property id in title %q", title)
		return models.MatchOutcome{Kind: models.MatchNoPropertyID}
	}

	searchURL := query.String()
	page, err := m.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		log.Printf("[Match] search fetch failed for %s: %v", searchURL, err)
		return models.MatchOutcome{Kind: models.MatchFetchFailed, PropertyID: id, Reason: err.Error()}
	}

	candidates, err := CandidateIDs(bytes.NewReader(page.Body))
	if err != nil {
		return models.MatchOutcome{Kind: models.MatchFetchFailed, PropertyID: id, Reason: err.Error()}
	}
	log.Printf("[Match] %d candidates on %s", len(candidates), searchURL)

	if _, hit := candidates[id]; !hit {
		return models.MatchOutcome{Kind: models.MatchNotFound, PropertyID: id}
	}
	return models.MatchOutcome{
		Kind:       models.MatchFound,
		PropertyID: id,
		DetailURL:  DetailURL(m.portalURL, id),
	}
}

// CandidateIDs collects every data-bukken-cd value on a result page
func CandidateIDs(r io.Reader) (map[string]struct{}, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	ids := make(map[string]struct{})
	doc.Find("[data-bukken-cd]").Each(func(_ int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.AttrOr("data-bukken-cd", "")); v != "" {
			ids[v] = struct{}{}
		}
	})
	return ids, nil
}
