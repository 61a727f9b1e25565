package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usetrace/harmcp/pkg/extract"
	"github.com/usetrace/harmcp/pkg/har"
)

func TestSynthesize(t *testing.T) {
	spec := Synthesize([]extract.Endpoint{
		{ID: "endpoint-0", Method: "GET", Path: "/api/products?category=Food", Status: 200},
		{ID: "endpoint-1", Method: "POST", Path: "/api/products", Status: 201},
		{ID: "endpoint-2", Method: "POST", Path: "/api/login", Status: 401},
	})

	assert.Equal(t, "3.0.0", spec.OpenAPI)
	require.Len(t, spec.Paths, 2, "query string stripped before grouping")

	products := spec.Paths["/api/products"]
	require.Contains(t, products, "get")
	require.Contains(t, products, "post")
	assert.Equal(t, "GET /api/products", products["get"].Summary)
	assert.Equal(t, "Success", products["get"].Responses["200"].Description)
	assert.Equal(t, "Success", products["post"].Responses["201"].Description)

	login := spec.Paths["/api/login"]["post"]
	assert.Equal(t, "Error", login.Responses["401"].Description)
}

func TestSynthesizeLastWriteWins(t *testing.T) {
	spec := Synthesize([]extract.Endpoint{
		{ID: "endpoint-0", Method: "GET", Path: "/api/items", Status: 200},
		{ID: "endpoint-1", Method: "GET", Path: "/api/items?page=2", Status: 500},
	})

	op := spec.Paths["/api/items"]["get"]
	require.Len(t, op.Responses, 1, "no array accumulation")
	assert.Equal(t, "Error", op.Responses["500"].Description)
}

func TestSynthesizeEmpty(t *testing.T) {
	spec := Synthesize(nil)
	assert.NotNil(t, spec.Paths)
	assert.Empty(t, spec.Paths)
}

func TestSynthesizeWithBodies(t *testing.T) {
	doc := &har.Document{Log: har.Log{Entries: []har.Entry{
		{
			Request: har.Request{Method: "GET", URL: "https://x.test/api/products"},
			Response: har.Response{
				Status:  200,
				Content: har.Content{MimeType: "application/json", Text: `{"products": [{"id": 1}]}`},
			},
		},
		{
			Request: har.Request{Method: "GET", URL: "https://x.test/api/page"},
			Response: har.Response{
				Status:  200,
				Content: har.Content{MimeType: "text/html", Text: "<html></html>"},
			},
		},
	}}}

	spec := SynthesizeWithBodies(doc, []extract.Endpoint{
		{ID: "endpoint-0", Method: "GET", Path: "/api/products", Status: 200},
		{ID: "endpoint-1", Method: "GET", Path: "/api/page", Status: 200},
	})

	withSchema := spec.Paths["/api/products"]["get"].Responses["200"]
	require.NotNil(t, withSchema.Schema)
	assert.Equal(t, "object", withSchema.Schema.Type)

	noSchema := spec.Paths["/api/page"]["get"].Responses["200"]
	assert.Nil(t, noSchema.Schema, "non-JSON bodies get no schema")
}
