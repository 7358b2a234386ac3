package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/width"

	"suumo-checker/internal/fetcher"
	"suumo-checker/internal/models"
)

// ErrExtractionFailed wraps every failure to fetch or parse a detail page.
var ErrExtractionFailed = errors.New("condition extraction failed")

var (
	// "ＪＲ山手線/東京駅 歩10分", anchored at line start
	stationLineRe = regexp.MustCompile(`^(.+?)[/／](.+?)駅[\s　]*歩([0-9０-９]+)分`)
	numberRe      = regexp.MustCompile(`\d+(?:\.\d+)?`)
	integerRe     = regexp.MustCompile(`\d+`)
)

const (
	labelFloorPlan = "間取り"
	labelArea      = "専有面積"
	labelAge       = "築年数"
)

// ConditionExtractor reads search conditions off a listing detail page
type ConditionExtractor struct {
	fetcher fetcher.Fetcher
}

// NewConditionExtractor creates an extractor that fetches through f
func NewConditionExtractor(f fetcher.Fetcher) *ConditionExtractor {
	return &ConditionExtractor{fetcher: f}
}

// Extract fetches url once and parses it. Any failure yields an error wrapping
// ErrExtractionFailed and no partial record.
func (e *ConditionExtractor) Extract(ctx context.Context, url string) (*models.ListingConditions, error) {
	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Printf("[Extract] fetch failed for %s: %v", url, err)
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	conditions, err := ParseConditions(bytes.NewReader(page.Body))
	if err != nil {
		return nil, err
	}
	conditions.URL = url

	log.Printf("[Extract] %s: %d stations, price=%s, plan=%s, area=%s, age=%s",
		url, len(conditions.Stations),
		fmtFloat(conditions.Price), fmtString(conditions.FloorPlan),
		fmtFloat(conditions.Area), fmtInt(conditions.Age))
	return conditions, nil
}

// ParseConditions parses a detail page. Sections missing from the page are left nil.
func ParseConditions(r io.Reader) (*models.ListingConditions, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %w", ErrExtractionFailed, err)
	}

	c := &models.ListingConditions{
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Stations: extractStations(doc),
		Price:    extractPrice(doc),
	}

	if plan, ok := propertyRow(doc, labelFloorPlan); ok && plan != "" {
		c.FloorPlan = &plan
	}
	if text, ok := propertyRow(doc, labelArea); ok {
		c.Area = firstNumber(text)
	}
	if text, ok := propertyRow(doc, labelAge); ok {
		c.Age = parseAge(text)
	}

	return c, nil
}

// extractStations reads the access block. Lines that are not
// "<line>/<station>駅 歩<N>分" (bus routes, notes) are skipped.
func extractStations(doc *goquery.Document) []models.StationRef {
	stations := []models.StationRef{}

	body := doc.Find(".property_view_detail-body").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find(".property_view_detail-text").Length() > 0
	}).First()
	if body.Length() == 0 {
		return stations
	}

	var texts []string
	body.Find(".property_view_detail-text").Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, s.Text())
	})

	for _, line := range strings.Split(strings.Join(texts, "\n"), "\n") {
		if ref, ok := parseStationLine(line); ok {
			stations = append(stations, ref)
		}
	}
	return stations
}

func parseStationLine(line string) (models.StationRef, bool) {
	m := stationLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return models.StationRef{}, false
	}
	minutes, err := strconv.Atoi(width.Narrow.String(m[3]))
	if err != nil {
		return models.StationRef{}, false
	}
	return models.StationRef{
		Line:        strings.TrimSpace(m[1]),
		Station:     strings.TrimSpace(m[2]),
		WalkMinutes: minutes,
	}, true
}

func extractPrice(doc *goquery.Document) *float64 {
	el := doc.Find(".property_view_main-emphasis").First()
	if el.Length() == 0 {
		return nil
	}
	return firstNumber(el.Text())
}

// propertyRow returns the trimmed body of the first .property_data row whose
// title contains label.
func propertyRow(doc *goquery.Document, label string) (string, bool) {
	var text string
	var found bool
	doc.Find(".property_data").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Find(".property_data-title").Text(), label) {
			return true
		}
		text = strings.TrimSpace(s.Find(".property_data-body").Text())
		found = true
		return false
	})
	return text, found
}

func firstNumber(text string) *float64 {
	token := numberRe.FindString(width.Fold.String(text))
	if token == "" {
		return nil
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseAge handles "築10年" and "新築".
func parseAge(text string) *int {
	text = width.Fold.String(text)
	if strings.Contains(text, "新築") {
		zero := 0
		return &zero
	}
	token := integerRe.FindString(text)
	if token == "" {
		return nil
	}
	v, err := strconv.Atoi(token)
	if err != nil {
		return nil
	}
	return &v
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}

func fmtString(v *string) string {
	if v == nil {
		return "N/A"
	}
	return *v
}
