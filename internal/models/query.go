package models

import (
	"net/url"
	"strings"
)

// BucketRange is a quantized lower/upper pair. Either side may be nil.
type BucketRange struct {
	Lower *float64 `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`
}

// QueryParam is a single key/value pair of a search query.
type QueryParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SearchQuery is an assembled portal search. Params keep insertion order.
type SearchQuery struct {
	BaseURL string       `json:"base_url"`
	Params  []QueryParam `json:"params"`
}

// Encode serializes the parameters in order, escaping keys and values.
func (q *SearchQuery) Encode() string {
	parts := make([]string, 0, len(q.Params))
	for _, p := range q.Params {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

// String returns the full search URL. With no params the base URL is returned as-is.
func (q *SearchQuery) String() string {
	if q == nil {
		return ""
	}
	if len(q.Params) == 0 {
		return q.BaseURL
	}
	return q.BaseURL + "?" + q.Encode()
}
