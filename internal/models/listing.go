package models

// StationRef is one access line of a listing ("ＪＲ山手線/東京駅 歩10分").
type StationRef struct {
	Line        string `json:"line"`
	Station     string `json:"station"`
	WalkMinutes int    `json:"walk_minutes"`
}

// ListingConditions holds the search conditions harvested from a detail page.
// Absent sections stay nil; they are never defaulted to zero.
type ListingConditions struct {
	URL   string `json:"url"`
	Title string `json:"title"`

	// 最寄り駅 (first entry is the primary station)
	Stations []StationRef `json:"stations"`

	// 条件
	Price     *float64 `json:"price,omitempty"` // 万円
	FloorPlan *string  `json:"floor_plan,omitempty"`
	Area      *float64 `json:"area,omitempty"` // ㎡
	Age       *int     `json:"age,omitempty"`  // 築年数
}

// PrimaryStation returns the first listed station, if any.
func (c *ListingConditions) PrimaryStation() (StationRef, bool) {
	if c == nil || len(c.Stations) == 0 {
		return StationRef{}, false
	}
	return c.Stations[0], true
}

// StationCodePair is the portal-internal code pair for a (line, station).
type StationCodePair struct {
	LineCode    string `json:"line_code" yaml:"line_code"`
	StationCode string `json:"station_code" yaml:"station_code"`
}

// Target is one row of the targets file.
type Target struct {
	Name string `json:"name"`
	Room string `json:"room"`
	URL  string `json:"url"`
}

// Key identifies a target row across runs.
func (t Target) Key() string {
	return t.Name + "\x00" + t.Room + "\x00" + t.URL
}
