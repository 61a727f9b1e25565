package search

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usetrace/harmcp/internal/store"
)

// Filters are structured search criteria, AND-composed.
type Filters struct {
	Method       string `json:"method,omitempty"`
	Status       int    `json:"status,omitempty"`
	Host         string `json:"host,omitempty"`
	HeaderName   string `json:"header_name,omitempty"`
	PathContains string `json:"path_contains,omitempty"`
}

// Request is one search over a trace.
type Request struct {
	Query   string
	Filters *Filters
	Limit   int
	Offset  int
}

// Response carries the paginated results plus the pre-pagination count.
type Response struct {
	Results   []EntrySummary `json:"results"`
	TotalHint int            `json:"total_hint"`
}

// Engine searches traces from the store, caching built indexes per trace.
// Indexes are immutable so the cache needs no invalidation.
type Engine struct {
	store   *store.Store
	indexes *lru.Cache[string, *Index]
}

// NewEngine creates a search engine caching at most maxIndexes built
// indexes.
func NewEngine(st *store.Store, maxIndexes int) (*Engine, error) {
	c, err := lru.New[string, *Index](maxIndexes)
	if err != nil {
		return nil, err
	}
	return &Engine{store: st, indexes: c}, nil
}

// IndexFor returns the index for a trace, building it on first use.
func (e *Engine) IndexFor(traceID string) (*Index, bool) {
	if ix, ok := e.indexes.Get(traceID); ok {
		return ix, true
	}
	tr, ok := e.store.Get(traceID)
	if !ok {
		return nil, false
	}
	ix := Build(tr.Doc)
	e.indexes.Add(traceID, ix)
	return ix, true
}

// Search runs a request against a trace. The bool result is false when the
// trace is unknown.
func (e *Engine) Search(traceID string, req *Request) (*Response, bool) {
	ix, ok := e.IndexFor(traceID)
	if !ok {
		return nil, false
	}
	return ix.Search(req), true
}

// Search applies the request's filters and free-text query, in entry order.
func (ix *Index) Search(req *Request) *Response {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	candidates := ix.planFilters(req.Filters, req.Query)

	// PathContains needs a metadata scan; everything else is bitmap AND.
	var matched []EntrySummary
	needle := ""
	if req.Filters != nil {
		needle = strings.ToLower(req.Filters.PathContains)
	}
	it := candidates.Iterator()
	for it.HasNext() {
		summary := ix.entries[it.Next()]
		if needle != "" && !strings.Contains(strings.ToLower(summary.Path), needle) {
			continue
		}
		matched = append(matched, summary)
	}

	total := len(matched)
	start := min(req.Offset, total)
	end := min(start+limit, total)

	results := matched[start:end]
	if results == nil {
		results = []EntrySummary{}
	}
	return &Response{Results: results, TotalHint: total}
}

// planFilters AND-composes the bitmap-backed criteria into a candidate set.
func (ix *Index) planFilters(filters *Filters, query string) *roaring.Bitmap {
	result := ix.all.Clone()

	if filters != nil {
		if filters.Method != "" {
			result = andWith(result, ix.idxMethod[strings.ToUpper(filters.Method)])
		}
		if filters.Status != 0 {
			result = andWith(result, ix.idxStatus[filters.Status])
		}
		if filters.Host != "" {
			result = andWith(result, ix.idxHost[strings.ToLower(filters.Host)])
		}
		if filters.HeaderName != "" {
			result = andWith(result, ix.idxHeaderName[strings.ToLower(filters.HeaderName)])
		}
	}

	// Query tokens are ANDed: every term must match somewhere.
	for _, tok := range tokenize(query) {
		result = andWith(result, ix.idxToken[tok])
	}

	return result
}

func andWith(base, bm *roaring.Bitmap) *roaring.Bitmap {
	if bm == nil {
		return roaring.New()
	}
	return roaring.And(base, bm)
}
