package search

import (
	"strings"

	"golang.org/x/text/width"
)

var floorPlanCodes = map[string]string{
	"ワンルーム": "01",
	"1R":    "01",
	"1K":    "02",
	"1DK":   "03",
	"1LDK":  "04",
	"2K":    "05",
	"2DK":   "06",
	"2LDK":  "07",
	"3K":    "08",
	"3DK":   "09",
	"3LDK":  "10",
	"4K":    "11",
	"4DK":   "12",
	"4LDK":  "13",
	"5K以上":  "14",
}

// FloorPlanCode returns the portal code for a floor plan such as "1LDK".
// Full-width letters and digits are folded first; anything else must match exactly.
func FloorPlanCode(plan string) (string, bool) {
	code, ok := floorPlanCodes[width.Fold.String(strings.TrimSpace(plan))]
	return code, ok
}
