package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"suumo-checker/internal/fetcher"
	"suumo-checker/internal/models"
)

// IdentityVerifier checks that a detail page names the listing company
type IdentityVerifier struct {
	fetcher     fetcher.Fetcher
	companyName string
}

// NewIdentityVerifier creates a verifier for companyName
func NewIdentityVerifier(f fetcher.Fetcher, companyName string) *IdentityVerifier {
	return &IdentityVerifier{fetcher: f, companyName: companyName}
}

// Verify fetches detailURL. A fetch failure is reported as unreachable, not as
// a negative result.
func (v *IdentityVerifier) Verify(ctx context.Context, detailURL string) models.VerificationResult {
	page, err := v.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		log.Printf("[Verify] fetch failed for %s: %v", detailURL, err)
		return models.VerificationResult{FetchError: err.Error()}
	}

	ok, err := ContainsCompany(page.Body, v.companyName)
	if err != nil {
		return models.VerificationResult{FetchError: err.Error()}
	}
	log.Printf("[Verify] %s: company %q present=%v", detailURL, v.companyName, ok)
	return models.VerificationResult{Confirmed: ok}
}

// ContainsCompany reports whether name appears in the visible text of body.
// The match is a plain substring test over the whole page.
func ContainsCompany(body []byte, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to parse detail page: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Contains(doc.Text(), name), nil
}
