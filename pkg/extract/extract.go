// Package extract classifies HAR entries as API traffic and summarizes them
// as endpoint records. It is a pure, stateless, single-pass filter: no I/O,
// no state across calls, safe for concurrent use.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/usetrace/harmcp/pkg/har"
)

// Endpoint is a classified, summarized API call extracted from a HAR entry.
// The ID is derived from the entry's zero-based position in the original
// input sequence, not the filtered output, so IDs stay stable when the
// classification rules change.
type Endpoint struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Status int    `json:"status"`
}

// EntryIndex returns the zero-based input position encoded in the ID.
// Returns -1 when the ID is not of the "endpoint-<n>" form.
func (e Endpoint) EntryIndex() int {
	var n int
	if _, err := fmt.Sscanf(e.ID, "endpoint-%d", &n); err != nil || n < 0 {
		return -1
	}
	return n
}

// Result holds the ordered endpoint list plus a count of entries dropped
// because their request URL could not be parsed as an absolute URL. The
// count exists for caller visibility only; skipped entries never fail the
// batch.
type Result struct {
	Endpoints []Endpoint `json:"endpoints"`
	Skipped   int        `json:"skipped,omitempty"`
}

// Extract filters a HAR document down to its API-like entries, preserving
// entry order. An entry is kept when, in order and short-circuiting:
//
//  1. its request URL path contains "/api/", or
//  2. any request content-type header contains "application/json", or
//  3. any response content-type header contains "application/json".
//
// Entries with unparseable request URLs are skipped individually. A document
// without a log.entries array fails the whole call with har.ErrInvalidFormat
// and no partial result.
func Extract(doc *har.Document) (*Result, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Endpoints: []Endpoint{}}
	for i := range doc.Log.Entries {
		entry := &doc.Log.Entries[i]

		u, ok := parseAbsoluteURL(entry.Request.URL)
		if !ok {
			res.Skipped++
			continue
		}
		if !isAPICall(entry, u) {
			continue
		}

		res.Endpoints = append(res.Endpoints, Endpoint{
			ID:     fmt.Sprintf("endpoint-%d", i),
			Method: entry.Request.Method,
			Path:   pathWithQuery(u),
			Status: entry.Response.Status,
		})
	}
	return res, nil
}

// ExtractJSON parses raw HAR JSON and extracts its endpoints.
func ExtractJSON(data []byte) (*Result, error) {
	doc, err := har.Parse(data)
	if err != nil {
		return nil, err
	}
	return Extract(doc)
}

// parseAbsoluteURL parses a request URL, accepting only absolute URLs with
// a host. Anything else ("not a url", relative paths, empty strings) marks
// the entry as unparseable.
func parseAbsoluteURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, false
	}
	return u, true
}

// isAPICall applies the classification rules in order, short-circuiting on
// the first match.
func isAPICall(entry *har.Entry, u *url.URL) bool {
	if strings.Contains(u.EscapedPath(), "/api/") {
		return true
	}
	if anyHeaderContains(entry.Request.Headers, "content-type", "application/json") {
		return true
	}
	return anyHeaderContains(entry.Response.Headers, "content-type", "application/json")
}

// anyHeaderContains reports whether any header with the given name
// (case-insensitive) has a value containing substr.
func anyHeaderContains(headers har.Headers, name, substr string) bool {
	for _, v := range headers.Values(name) {
		if strings.Contains(strings.ToLower(v), substr) {
			return true
		}
	}
	return false
}

// pathWithQuery reconstructs pathname plus query string. The path of a bare
// host URL is "/", and there is no trailing "?" when the query is empty,
// matching how browser URL parsing splits pathname and search.
func pathWithQuery(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
