// Package search provides filtered and free-text search over the entries
// of a HAR trace, backed by Roaring bitmap inverted indexes.
package search

import (
	"net/url"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usetrace/harmcp/pkg/har"
)

// EntrySummary is the search-facing view of one HAR entry. EntryIndex is
// the zero-based position in the trace, matching extractor endpoint IDs.
type EntrySummary struct {
	EntryIndex int    `json:"entry_index"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	Path       string `json:"path,omitempty"`
	Status     int    `json:"status"`
	MimeType   string `json:"mime_type,omitempty"`
	StartedAt  string `json:"started_at,omitempty"`
}

// Index holds inverted indexes over one trace. Traces are immutable, so an
// Index is built once and never updated.
type Index struct {
	entries []EntrySummary

	all           *roaring.Bitmap
	idxMethod     map[string]*roaring.Bitmap
	idxStatus     map[int]*roaring.Bitmap
	idxHost       map[string]*roaring.Bitmap
	idxHeaderName map[string]*roaring.Bitmap
	idxToken      map[string]*roaring.Bitmap
}

// Build indexes every entry of the document.
func Build(doc *har.Document) *Index {
	ix := &Index{
		all:           roaring.New(),
		idxMethod:     make(map[string]*roaring.Bitmap),
		idxStatus:     make(map[int]*roaring.Bitmap),
		idxHost:       make(map[string]*roaring.Bitmap),
		idxHeaderName: make(map[string]*roaring.Bitmap),
		idxToken:      make(map[string]*roaring.Bitmap),
	}

	for i := range doc.Log.Entries {
		entry := &doc.Log.Entries[i]
		docID := uint32(i)
		ix.all.Add(docID)

		summary := EntrySummary{
			EntryIndex: i,
			Method:     entry.Request.Method,
			URL:        entry.Request.URL,
			Status:     entry.Response.Status,
			MimeType:   entry.Response.Content.MimeType,
			StartedAt:  entry.StartedDateTime,
		}
		if u, err := url.Parse(entry.Request.URL); err == nil {
			summary.Path = u.Path
			if host := strings.ToLower(u.Host); host != "" {
				addToBitmap(ix.idxHost, host, docID)
			}
		}
		ix.entries = append(ix.entries, summary)

		if entry.Request.Method != "" {
			addToBitmap(ix.idxMethod, strings.ToUpper(entry.Request.Method), docID)
		}
		if entry.Response.Status != 0 {
			addToIntBitmap(ix.idxStatus, entry.Response.Status, docID)
		}

		for _, h := range entry.Request.Headers {
			addToBitmap(ix.idxHeaderName, strings.ToLower(h.Name), docID)
			ix.indexTokens(h.Value, docID)
		}
		for _, h := range entry.Response.Headers {
			addToBitmap(ix.idxHeaderName, strings.ToLower(h.Name), docID)
			ix.indexTokens(h.Value, docID)
		}
		ix.indexTokens(entry.Request.URL, docID)
	}

	return ix
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entry returns the summary at the given entry index.
func (ix *Index) Entry(i int) (EntrySummary, bool) {
	if i < 0 || i >= len(ix.entries) {
		return EntrySummary{}, false
	}
	return ix.entries[i], true
}

func (ix *Index) indexTokens(text string, docID uint32) {
	for _, tok := range tokenize(text) {
		addToBitmap(ix.idxToken, tok, docID)
	}
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping
// single-character tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func addToBitmap(m map[string]*roaring.Bitmap, key string, docID uint32) {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	bm.Add(docID)
}

func addToIntBitmap(m map[int]*roaring.Bitmap, key int, docID uint32) {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	bm.Add(docID)
}
