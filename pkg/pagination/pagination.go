// Package pagination extracts limit/offset paging parameters from query
// strings, matching the backend's wire contract.
package pagination

import (
	"net/http"
	"strconv"
)

// Params holds paging parameters extracted from a query string.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FromRequest extracts limit and offset from the request query, falling back
// to defaultLimit and clamping limit to [1, maxLimit]. Invalid or negative
// values fall back to the defaults.
func FromRequest(r *http.Request, defaultLimit, maxLimit int) Params {
	p := Params{Limit: defaultLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 && v <= maxLimit {
			p.Limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			p.Offset = v
		}
	}
	return p
}
