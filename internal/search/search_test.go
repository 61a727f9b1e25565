package search

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usetrace/harmcp/internal/store"
	"github.com/usetrace/harmcp/pkg/har"
)

func testDoc() *har.Document {
	return &har.Document{Log: har.Log{Entries: []har.Entry{
		{
			Request: har.Request{Method: "GET", URL: "https://shop.test/api/products", Headers: har.Headers{
				{Name: "Accept", Value: "application/json"},
			}},
			Response: har.Response{Status: 200, Headers: har.Headers{
				{Name: "Content-Type", Value: "application/json"},
			}, Content: har.Content{MimeType: "application/json"}},
		},
		{
			Request:  har.Request{Method: "POST", URL: "https://shop.test/api/login"},
			Response: har.Response{Status: 401},
		},
		{
			Request: har.Request{Method: "GET", URL: "https://cdn.test/static/app.js", Headers: har.Headers{
				{Name: "Authorization", Value: "Bearer abc123"},
			}},
			Response: har.Response{Status: 200},
		},
	}}}
}

func TestBuildAndFilters(t *testing.T) {
	ix := Build(testDoc())
	require.Equal(t, 3, ix.Len())

	tests := []struct {
		name string
		req  *Request
		want []int // expected entry indexes, in order
	}{
		{"no filters", &Request{}, []int{0, 1, 2}},
		{"method", &Request{Filters: &Filters{Method: "post"}}, []int{1}},
		{"status", &Request{Filters: &Filters{Status: 200}}, []int{0, 2}},
		{"host", &Request{Filters: &Filters{Host: "shop.test"}}, []int{0, 1}},
		{"header name", &Request{Filters: &Filters{HeaderName: "authorization"}}, []int{2}},
		{"path contains", &Request{Filters: &Filters{PathContains: "/api/"}}, []int{0, 1}},
		{"combined", &Request{Filters: &Filters{Method: "GET", Host: "shop.test"}}, []int{0}},
		{"no match", &Request{Filters: &Filters{Method: "DELETE"}}, nil},
		{"free text", &Request{Query: "login"}, []int{1}},
		{"free text anded", &Request{Query: "shop products"}, []int{0}},
		{"token from header value", &Request{Query: "abc123"}, []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ix.Search(tt.req)
			var got []int
			for _, r := range resp.Results {
				got = append(got, r.EntryIndex)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), resp.TotalHint)
		})
	}
}

func TestSearchPagination(t *testing.T) {
	ix := Build(testDoc())

	resp := ix.Search(&Request{Limit: 2})
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, 3, resp.TotalHint)

	resp = ix.Search(&Request{Limit: 2, Offset: 2})
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.Results[0].EntryIndex)

	resp = ix.Search(&Request{Offset: 99})
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
}

func TestEngineCachesIndexes(t *testing.T) {
	st, err := store.New(8, filepath.Join(t.TempDir(), "up"))
	require.NoError(t, err)
	tr, err := st.Add("t.har", []byte(`{"log": {"entries": [
		{"request": {"method": "GET", "url": "https://x.test/api/a", "headers": []},
		 "response": {"status": 200, "headers": [], "content": {}}}
	]}}`))
	require.NoError(t, err)

	eng, err := NewEngine(st, 4)
	require.NoError(t, err)

	first, ok := eng.IndexFor(tr.ID)
	require.True(t, ok)
	second, ok := eng.IndexFor(tr.ID)
	require.True(t, ok)
	assert.Same(t, first, second)

	_, ok = eng.Search("trace-unknown", &Request{})
	assert.False(t, ok)

	resp, ok := eng.Search(tr.ID, &Request{Filters: &Filters{Method: "GET"}})
	require.True(t, ok)
	assert.Equal(t, 1, resp.TotalHint)
}

func TestEntryLookup(t *testing.T) {
	ix := Build(testDoc())

	e, ok := ix.Entry(1)
	require.True(t, ok)
	assert.Equal(t, "POST", e.Method)
	assert.Equal(t, "/api/login", e.Path)

	_, ok = ix.Entry(-1)
	assert.False(t, ok)
	_, ok = ix.Entry(3)
	assert.False(t, ok)
}
