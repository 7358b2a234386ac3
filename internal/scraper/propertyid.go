package scraper

import (
	"fmt"
	"regexp"
	"strings"
)

// Title patterns for the portal's property id, tried in order:
//  1. "bc_100449536656" (detail URL fragment carried into the title)
//  2. "（100446479749）" full-width parentheses around 9+ digits
//
// Title format changes only need updating here.
var propertyIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`bc_(\d+)`),
	regexp.MustCompile(`（(\d{9,})）`),
}

// ExtractPropertyID returns the first id any pattern finds in title
func ExtractPropertyID(title string) (string, bool) {
	for _, re := range propertyIDPatterns {
		if m := re.FindStringSubmatch(title); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// DetailURL builds the canonical detail page URL for a property id
func DetailURL(portalURL, propertyID string) string {
	return fmt.Sprintf("%s/chintai/bc_%s/", strings.TrimRight(portalURL, "/"), propertyID)
}
