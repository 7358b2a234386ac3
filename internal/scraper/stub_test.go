package scraper

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"suumo-checker/internal/fetcher"
)

// stubFetcher serves canned pages keyed by URL and records requests.
type stubFetcher struct {
	pages    map[string][]byte
	errs     map[string]error
	requests []string
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*fetcher.Page, error) {
	s.requests = append(s.requests, url)
	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	body, ok := s.pages[url]
	if !ok {
		return nil, &fetcher.StatusError{URL: url, StatusCode: http.StatusNotFound}
	}
	return &fetcher.Page{URL: url, StatusCode: http.StatusOK, Body: body}, nil
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}
