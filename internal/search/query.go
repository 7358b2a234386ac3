package search

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"suumo-checker/internal/models"
)

var (
	ErrNoStations        = errors.New("listing has no stations")
	ErrStationUnresolved = errors.New("station code not found")
)

// StationResolver looks up portal codes for a (line, station) pair
type StationResolver interface {
	Lookup(line, station string) (models.StationCodePair, bool)
}

// QueryBuilder assembles portal search URLs
type QueryBuilder struct {
	resolver   StationResolver
	portalURL  string
	prefecture string
}

// NewQueryBuilder creates a builder for portalURL (e.g. https://suumo.jp).
// An empty prefecture defaults to tokyo.
func NewQueryBuilder(resolver StationResolver, portalURL, prefecture string) *QueryBuilder {
	if prefecture == "" {
		prefecture = "tokyo"
	}
	return &QueryBuilder{
		resolver:   resolver,
		portalURL:  strings.TrimRight(portalURL, "/"),
		prefecture: prefecture,
	}
}

// Build creates the search for a listing. Only the first station is used.
// Nil or out-of-range filters are left out of the query.
func (b *QueryBuilder) Build(stations []models.StationRef, price, areaMax *float64, ageMax *int, floorPlan *string) (*models.SearchQuery, error) {
	if len(stations) == 0 {
		return nil, ErrNoStations
	}
	primary := stations[0]

	pair, ok := b.resolver.Lookup(primary.Line, primary.Station)
	if !ok || len(pair.StationCode) < 5 {
		return nil, fmt.Errorf("%w: %s/%s", ErrStationUnresolved, primary.Line, primary.Station)
	}
	code := pair.StationCode[len(pair.StationCode)-5:]

	q := &models.SearchQuery{
		BaseURL: fmt.Sprintf("%s/chintai/%s/ek_%s/", b.portalURL, b.prefecture, code),
	}
	add := func(key, value string) {
		q.Params = append(q.Params, models.QueryParam{Key: key, Value: value})
	}

	if price != nil {
		r := BucketPrice(*price)
		if r.Lower != nil {
			add("chinryomin", formatNumber(*r.Lower))
		}
		if r.Upper != nil {
			add("chinryomax", formatNumber(*r.Upper))
		}
	}
	if areaMax != nil {
		r := BucketArea(*areaMax)
		if r.Lower != nil {
			add("fr_senyumenmin", formatNumber(*r.Lower))
		}
		if r.Upper != nil {
			add("fr_senyumenmax", formatNumber(*r.Upper))
		}
	}
	if tier := BucketAge(ageMax); tier != nil {
		add("cn", strconv.Itoa(*tier))
	}
	if floorPlan != nil {
		if code, ok := FloorPlanCode(*floorPlan); ok {
			add("cinm[]", code)
		}
	}
	if tier := BucketWalkMinutes(primary.WalkMinutes); tier != nil {
		add("et", strconv.Itoa(*tier))
	}

	return q, nil
}

// BuildFromConditions builds the search for extracted listing conditions
func (b *QueryBuilder) BuildFromConditions(c *models.ListingConditions) (*models.SearchQuery, error) {
	if _, ok := c.PrimaryStation(); !ok {
		return nil, ErrNoStations
	}
	return b.Build(c.Stations, c.Price, c.Area, c.Age, c.FloorPlan)
}

// formatNumber drops a trailing ".0": 9.0 -> "9", 9.5 -> "9.5"
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
