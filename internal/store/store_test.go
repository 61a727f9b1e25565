package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usetrace/harmcp/pkg/har"
)

func harJSON(urls ...string) []byte {
	entries := ""
	for i, u := range urls {
		if i > 0 {
			entries += ","
		}
		entries += fmt.Sprintf(`{"request": {"method": "GET", "url": %q, "headers": []},
			"response": {"status": 200, "headers": [], "content": {}}}`, u)
	}
	return []byte(`{"log": {"entries": [` + entries + `]}}`)
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(16, filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func TestAddAndGet(t *testing.T) {
	s := newStore(t)

	tr, err := s.Add("shop.har", harJSON("https://x.test/api/a", "https://x.test/api/b"))
	require.NoError(t, err)
	assert.Equal(t, 2, tr.EntryCount())
	assert.Contains(t, tr.ID, "trace-")

	got, ok := s.Get(tr.ID)
	require.True(t, ok)
	assert.Same(t, tr, got)

	_, ok = s.Get("trace-missing")
	assert.False(t, ok)
}

func TestAddDeduplicatesByContent(t *testing.T) {
	s := newStore(t)

	data := harJSON("https://x.test/api/a")
	first, err := s.Add("one.har", data)
	require.NoError(t, err)
	second, err := s.Add("two.har", data)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, s.Len())
}

func TestAddRejectsMalformed(t *testing.T) {
	s := newStore(t)

	_, err := s.Add("bad.har", []byte(`not json`))
	assert.ErrorIs(t, err, har.ErrMalformedJSON)

	_, err = s.Add("bad.har", []byte(`{}`))
	assert.ErrorIs(t, err, har.ErrInvalidFormat)
	assert.Equal(t, 0, s.Len())
}

func TestAddUpload(t *testing.T) {
	s := newStore(t)

	tr, err := s.AddUpload("capture.har", harJSON("https://x.test/api/a"))
	require.NoError(t, err)
	require.NotEmpty(t, tr.Path)

	written, err := os.ReadFile(tr.Path)
	require.NoError(t, err)
	assert.Equal(t, harJSON("https://x.test/api/a"), written)

	_, err = s.AddUpload("bad.har", []byte(`not json`))
	assert.ErrorIs(t, err, har.ErrMalformedJSON)
	entries, err := os.ReadDir(filepath.Dir(tr.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rejected bytes are not written to disk")
}

func TestLoadPublishesCompleteTrace(t *testing.T) {
	s := newStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.har")
	require.NoError(t, os.WriteFile(path, harJSON("https://a.test/api/x"), 0o644))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := s.Load(path)
			assert.NoError(t, err)
			assert.Equal(t, path, tr.Path)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, tr := range s.List() {
				assert.Equal(t, path, tr.Path)
			}
		}()
	}
	wg.Wait()
}

func TestLoadAndLoadDir(t *testing.T) {
	s := newStore(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.har"), harJSON("https://a.test/api/x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.har"), harJSON("https://b.test/api/y"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.har"), []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	count, err := s.LoadDir(context.Background(), dir, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "broken and non-.har files are skipped")
	assert.Equal(t, 2, s.Len())

	tr, err := s.Load(filepath.Join(dir, "a.har"))
	require.NoError(t, err)
	assert.Equal(t, "a.har", tr.Name)
	assert.NotEmpty(t, tr.Path)

	_, err = s.LoadDir(context.Background(), filepath.Join(dir, "missing"), 4)
	assert.Error(t, err)
}

func TestSaveUpload(t *testing.T) {
	s := newStore(t)

	data := harJSON("https://x.test/api/a")
	path, err := s.SaveUpload("../sneaky/capture.har", data)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, written)
	assert.NotContains(t, filepath.Base(path), "..")

	path2, err := s.SaveUpload("", data)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path2), "capture.har")
}

func TestListOrder(t *testing.T) {
	s := newStore(t)

	a, err := s.Add("a.har", harJSON("https://a.test/api/1"))
	require.NoError(t, err)
	b, err := s.Add("b.har", harJSON("https://b.test/api/2"))
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.Contains(t, ids, a.ID)
	assert.Contains(t, ids, b.ID)
}
