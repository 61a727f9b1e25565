// Package har defines the HTTP Archive (HAR) 1.2 data model and parsing.
//
// A HAR document is an externally produced, immutable input: browsers,
// proxies, and capture backends all emit the same log/entries shape. This
// package only models the fields the rest of the system reads; unknown
// fields are ignored during decoding.
package har

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for malformed input. Callers match with errors.Is.
var (
	// ErrMalformedJSON indicates the input is not valid JSON at all.
	ErrMalformedJSON = errors.New("malformed JSON")

	// ErrInvalidFormat indicates valid JSON that is not a HAR document
	// (missing the log.entries array).
	ErrInvalidFormat = errors.New("invalid HAR format")
)

// Document is the top-level HAR container.
type Document struct {
	Log Log `json:"log"`
}

// Log holds the captured entries plus creator metadata.
type Log struct {
	Version string  `json:"version,omitempty"`
	Creator Creator `json:"creator,omitempty"`
	Entries []Entry `json:"entries"`
}

// Creator identifies the tool that produced the capture.
type Creator struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// Entry is one captured request/response pair.
type Entry struct {
	StartedDateTime string   `json:"startedDateTime,omitempty"`
	Time            float64  `json:"time,omitempty"`
	Request         Request  `json:"request"`
	Response        Response `json:"response"`
	Timings         Timings  `json:"timings,omitempty"`
}

// Timings breaks an entry's elapsed time into phases, in milliseconds.
// Phases that did not apply are -1 per the HAR spec.
type Timings struct {
	Blocked float64 `json:"blocked,omitempty"`
	DNS     float64 `json:"dns,omitempty"`
	Connect float64 `json:"connect,omitempty"`
	Send    float64 `json:"send,omitempty"`
	Wait    float64 `json:"wait,omitempty"`
	Receive float64 `json:"receive,omitempty"`
	SSL     float64 `json:"ssl,omitempty"`
}

// Request is the request half of an entry.
type Request struct {
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	HTTPVersion string    `json:"httpVersion,omitempty"`
	Headers     Headers   `json:"headers"`
	QueryString []NVPair  `json:"queryString,omitempty"`
	PostData    *PostData `json:"postData,omitempty"`
	HeadersSize int       `json:"headersSize,omitempty"`
	BodySize    int       `json:"bodySize,omitempty"`
}

// Response is the response half of an entry.
type Response struct {
	Status      int     `json:"status"`
	StatusText  string  `json:"statusText,omitempty"`
	HTTPVersion string  `json:"httpVersion,omitempty"`
	Headers     Headers `json:"headers"`
	Content     Content `json:"content"`
	RedirectURL string  `json:"redirectURL,omitempty"`
	HeadersSize int     `json:"headersSize,omitempty"`
	BodySize    int     `json:"bodySize,omitempty"`
}

// NVPair is a HAR name/value record (headers, query params, cookies).
type NVPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered header list with case-insensitive lookup.
type Headers []NVPair

// Get returns the value of the first header with the given name,
// compared case-insensitively. Returns "" when absent.
func (h Headers) Get(name string) string {
	for _, p := range h {
		if strings.EqualFold(p.Name, name) {
			return p.Value
		}
	}
	return ""
}

// Values returns all values for the given header name, compared
// case-insensitively.
func (h Headers) Values(name string) []string {
	var values []string
	for _, p := range h {
		if strings.EqualFold(p.Name, name) {
			values = append(values, p.Value)
		}
	}
	return values
}

// PostData carries a request body.
type PostData struct {
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Content carries a response body. Encoding is "base64" for binary bodies.
type Content struct {
	Size     int    `json:"size,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

// Decode returns the body bytes, base64-decoding when the HAR marks the
// content as encoded. Returns nil for an empty body.
func (c *Content) Decode() ([]byte, error) {
	if c == nil || c.Text == "" {
		return nil, nil
	}
	if c.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(c.Text)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 body: %w", err)
		}
		return decoded, nil
	}
	return []byte(c.Text), nil
}

// Parse decodes a HAR document from raw JSON and validates its shape.
// Invalid JSON yields ErrMalformedJSON; valid JSON that is not a HAR
// document yields ErrInvalidFormat. Both fail the whole call, never
// partially.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks that the document carries a log.entries array.
// An empty array is valid; a missing one is not.
func (d *Document) Validate() error {
	if d == nil || d.Log.Entries == nil {
		return fmt.Errorf("%w: missing log.entries", ErrInvalidFormat)
	}
	return nil
}
