package tools

import (
	"fmt"

	"github.com/usetrace/harmcp/internal/agent"
	"github.com/usetrace/harmcp/internal/config"
	"github.com/usetrace/harmcp/internal/query"
	"github.com/usetrace/harmcp/internal/search"
	"github.com/usetrace/harmcp/internal/store"
	"github.com/usetrace/harmcp/pkg/har"
)

// MimeJSON is the MIME type used for JSON tool and resource payloads.
const MimeJSON = "application/json"

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Store  *store.Store
	Search *search.Engine
	Query  *query.Engine
	Agent  *agent.Service
	Config *config.Config
}

// ResolveTrace looks up a trace by ID, returning a coded not-found error
// when it is absent.
func (d *Deps) ResolveTrace(traceID string) (*store.Trace, error) {
	if traceID == "" {
		return nil, ErrInvalidInput("trace_id is required")
	}
	t, ok := d.Store.Get(traceID)
	if !ok {
		return nil, ErrNotFound("trace", traceID)
	}
	return t, nil
}

// ResolveEntry returns the HAR entry at the given index of a trace.
func (d *Deps) ResolveEntry(traceID string, index int) (*store.Trace, *har.Entry, error) {
	t, err := d.ResolveTrace(traceID)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(t.Doc.Log.Entries) {
		return nil, nil, ErrNotFound("entry", fmt.Sprintf("%s[%d]", traceID, index))
	}
	return t, &t.Doc.Log.Entries[index], nil
}
