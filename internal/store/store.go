// Package store keeps parsed HAR traces in memory, LRU-bounded, keyed by a
// content-derived trace ID. Traces are immutable once added.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/usetrace/harmcp/pkg/har"
)

// Trace is one parsed HAR document plus provenance.
type Trace struct {
	ID       string
	Name     string
	Path     string // on-disk HAR path, empty for raw uploads
	Doc      *har.Document
	LoadedAt time.Time
}

// EntryCount returns the number of captured entries in the trace.
func (t *Trace) EntryCount() int {
	return len(t.Doc.Log.Entries)
}

// Store is a thread-safe LRU registry of traces with an upload directory
// for HAR files that arrive as raw bytes.
type Store struct {
	traces    *lru.Cache[string, *Trace]
	loadGroup singleflight.Group
	uploadDir string
}

// New creates a store retaining at most maxItems traces. The upload
// directory is created lazily on first use.
func New(maxItems int, uploadDir string) (*Store, error) {
	c, err := lru.New[string, *Trace](maxItems)
	if err != nil {
		return nil, err
	}
	return &Store{traces: c, uploadDir: uploadDir}, nil
}

// Add parses raw HAR bytes and registers the trace. The ID is derived from
// the content hash, so adding the same capture twice returns the same ID.
func (s *Store) Add(name string, data []byte) (*Trace, error) {
	doc, err := har.Parse(data)
	if err != nil {
		return nil, err
	}
	return s.register(name, "", data, doc), nil
}

// AddUpload parses raw HAR bytes, persists them under the upload directory,
// and registers the trace with its on-disk path. Bytes that fail to parse
// are never written to disk.
func (s *Store) AddUpload(name string, data []byte) (*Trace, error) {
	doc, err := har.Parse(data)
	if err != nil {
		return nil, err
	}
	path, err := s.SaveUpload(name, data)
	if err != nil {
		return nil, err
	}
	return s.register(name, path, data, doc), nil
}

// register publishes a parsed trace to the cache. The Trace is fully
// built, path included, before publication; once other goroutines can see
// it, it never changes. Re-registering the same content returns the
// existing trace, which keeps its original provenance.
func (s *Store) register(name, path string, data []byte, doc *har.Document) *Trace {
	id := traceID(data)
	if existing, ok := s.traces.Get(id); ok {
		return existing
	}

	t := &Trace{
		ID:       id,
		Name:     name,
		Path:     path,
		Doc:      doc,
		LoadedAt: time.Now(),
	}
	s.traces.Add(id, t)

	slog.Info("trace added",
		slog.String("trace_id", id),
		slog.String("name", name),
		slog.Int("entries", t.EntryCount()),
	)
	return t
}

// Load reads and registers a HAR file. Concurrent loads of the same path
// are deduplicated.
func (s *Store) Load(path string) (*Trace, error) {
	v, err, _ := s.loadGroup.Do(path, func() (any, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading HAR file: %w", err)
		}
		doc, err := har.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return s.register(filepath.Base(path), path, data, doc), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Trace), nil
}

// Get returns a trace by ID.
func (s *Store) Get(id string) (*Trace, bool) {
	return s.traces.Get(id)
}

// List returns all retained traces, most recently loaded first.
func (s *Store) List() []*Trace {
	keys := s.traces.Keys()
	out := make([]*Trace, 0, len(keys))
	for _, k := range keys {
		if t, ok := s.traces.Peek(k); ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LoadedAt.After(out[j].LoadedAt)
	})
	return out
}

// Len returns the number of retained traces.
func (s *Store) Len() int {
	return s.traces.Len()
}

// SaveUpload persists raw HAR bytes under the upload directory and returns
// the written path. The name is sanitized to its base and forced to a .har
// extension.
func (s *Store) SaveUpload(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "capture"
	}
	if !strings.HasSuffix(base, ".har") {
		base += ".har"
	}

	path := filepath.Join(s.uploadDir, fmt.Sprintf("%s-%s", traceID(data), base))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return path, nil
}

// traceID derives a short stable identifier from the capture content.
func traceID(data []byte) string {
	sum := sha256.Sum256(data)
	return "trace-" + hex.EncodeToString(sum[:6])
}
