package models

// MatchKind tags a MatchOutcome.
type MatchKind int

const (
	MatchNoPropertyID MatchKind = iota
	MatchFetchFailed
	MatchNotFound
	MatchFound
)

func (k MatchKind) String() string {
	switch k {
	case MatchNoPropertyID:
		return "no_property_id"
	case MatchFetchFailed:
		return "fetch_failed"
	case MatchNotFound:
		return "not_found"
	case MatchFound:
		return "found"
	default:
		return "unknown"
	}
}

// MarshalText lets the kind render as a string in JSON.
func (k MatchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MatchOutcome is the result of looking for a listing in a search result page.
type MatchOutcome struct {
	Kind       MatchKind `json:"kind"`
	PropertyID string    `json:"property_id,omitempty"`
	DetailURL  string    `json:"detail_url,omitempty"` // set for MatchFound
	Reason     string    `json:"reason,omitempty"`     // set for MatchFetchFailed
}

// Found reports whether the target listing was present.
func (m MatchOutcome) Found() bool {
	return m.Kind == MatchFound
}

// VerificationResult is the company-name check on a matched detail page.
type VerificationResult struct {
	Confirmed  bool   `json:"confirmed"`
	FetchError string `json:"fetch_error,omitempty"`
}

// Unreachable reports whether the page could not be fetched, as opposed to
// being fetched and not naming the company.
func (v VerificationResult) Unreachable() bool {
	return v.FetchError != ""
}
