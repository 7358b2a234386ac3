package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckStatus is the per-listing status token handed to the report layer.
type CheckStatus string

const (
	StatusFoundConfirmed    CheckStatus = "found-confirmed"
	StatusFoundOtherCompany CheckStatus = "found-other-company"
	StatusNotFound          CheckStatus = "not-found"
	StatusExtractionFailed  CheckStatus = "extraction-failed"
	StatusQueryFailed       CheckStatus = "query-failed"
	StatusNoPropertyID      CheckStatus = "no-property-id"
	StatusSearchFailed      CheckStatus = "search-failed"
	StatusVerifyFailed      CheckStatus = "verify-failed"
)

// IsFailure reports whether the status records a pipeline failure rather than a finding.
func (s CheckStatus) IsFailure() bool {
	switch s {
	case StatusFoundConfirmed, StatusFoundOtherCompany, StatusNotFound:
		return false
	default:
		return true
	}
}

// CheckResult is the outcome of running the full pipeline for one listing.
type CheckResult struct {
	RunID        uuid.UUID           `json:"run_id"`
	URL          string              `json:"url"`
	Conditions   *ListingConditions  `json:"conditions,omitempty"`
	SearchURL    string              `json:"search_url,omitempty"`
	Match        *MatchOutcome       `json:"match,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
	Status       CheckStatus         `json:"status"`
	Error        string              `json:"error,omitempty"`
	CheckedAt    time.Time           `json:"checked_at"`
}
