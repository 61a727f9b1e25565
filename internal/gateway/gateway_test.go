package gateway

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usetrace/harmcp/internal/agent"
	"github.com/usetrace/harmcp/internal/config"
	"github.com/usetrace/harmcp/internal/query"
	"github.com/usetrace/harmcp/internal/search"
	"github.com/usetrace/harmcp/internal/store"
	"github.com/usetrace/harmcp/pkg/client"
)

const sampleHAR = `{
  "log": {
    "entries": [
      {
        "request": {
          "method": "GET",
          "url": "https://shop.example.com/api/products?page=2",
          "headers": []
        },
        "response": {
          "status": 200,
          "headers": [{"name": "Content-Type", "value": "application/json"}],
          "content": {"mimeType": "application/json", "text": "{\"items\":[]}"}
        }
      },
      {
        "request": {
          "method": "GET",
          "url": "https://shop.example.com/index.html",
          "headers": []
        },
        "response": {
          "status": 200,
          "headers": [{"name": "Content-Type", "value": "text/html"}],
          "content": {"mimeType": "text/html"}
        }
      }
    ]
  }
}`

func testGateway(t *testing.T, captureURL string) (*Gateway, *store.Store) {
	t.Helper()

	cfg := config.Load()
	cfg.UploadDir = t.TempDir()

	st, err := store.New(16, cfg.UploadDir)
	require.NoError(t, err)
	se, err := search.NewEngine(st, 8)
	require.NoError(t, err)

	opts := []client.Option{}
	if captureURL != "" {
		opts = append(opts, client.WithBaseURL(captureURL))
	}

	return New(cfg, st, se, query.NewEngine(), agent.New(cfg), client.New(opts...)), st
}

func doJSON(t *testing.T, g *Gateway, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	g.Engine().ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func TestHealth(t *testing.T) {
	g, _ := testGateway(t, "")

	w, body := doJSON(t, g, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestUploadAndListTraces(t *testing.T) {
	g, _ := testGateway(t, "")

	w, body := doJSON(t, g, http.MethodPost, "/api/traces?name=shop", sampleHAR)
	require.Equal(t, http.StatusCreated, w.Code)
	traceID, _ := body["trace_id"].(string)
	require.NotEmpty(t, traceID)
	assert.Equal(t, float64(2), body["entry_count"])
	endpoints := body["endpoints"].([]any)
	require.Len(t, endpoints, 1)

	w, body = doJSON(t, g, http.MethodGet, "/api/traces", "")
	require.Equal(t, http.StatusOK, w.Code)
	traces := body["traces"].([]any)
	require.Len(t, traces, 1)
	assert.Equal(t, traceID, traces[0].(map[string]any)["trace_id"])
}

func TestUploadMultipart(t *testing.T) {
	g, _ := testGateway(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "session.har")
	require.NoError(t, err)
	_, err = fw.Write([]byte(sampleHAR))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/traces", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	g.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "session.har", body["name"])
	assert.Equal(t, float64(2), body["entry_count"])
}

func TestUploadMalformed(t *testing.T) {
	g, _ := testGateway(t, "")

	w, body := doJSON(t, g, http.MethodPost, "/api/traces", "not a har")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "malformed")
}

func TestUploadTooLarge(t *testing.T) {
	g, _ := testGateway(t, "")
	g.cfg.MaxUploadBytes = 10

	w, _ := doJSON(t, g, http.MethodPost, "/api/traces", sampleHAR)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestEndpoints(t *testing.T) {
	g, st := testGateway(t, "")
	trace, err := st.Add("shop.har", []byte(sampleHAR))
	require.NoError(t, err)

	w, body := doJSON(t, g, http.MethodGet, "/api/traces/"+trace.ID+"/endpoints", "")
	require.Equal(t, http.StatusOK, w.Code)
	endpoints := body["endpoints"].([]any)
	require.Len(t, endpoints, 1)
	ep := endpoints[0].(map[string]any)
	assert.Equal(t, "endpoint-0", ep["id"])
	assert.Equal(t, "/api/products?page=2", ep["path"])
}

func TestEndpointsUnknownTrace(t *testing.T) {
	g, _ := testGateway(t, "")

	w, body := doJSON(t, g, http.MethodGet, "/api/traces/trace-nope/endpoints", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, body["error"], "trace not found")
}

func TestOpenAPI(t *testing.T) {
	g, st := testGateway(t, "")
	trace, err := st.Add("shop.har", []byte(sampleHAR))
	require.NoError(t, err)

	w, body := doJSON(t, g, http.MethodGet, "/api/traces/"+trace.ID+"/openapi", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3.0.0", body["openapi"])
	paths := body["paths"].(map[string]any)
	_, ok := paths["/api/products"]
	assert.True(t, ok)
}

func TestSearchEntries(t *testing.T) {
	g, st := testGateway(t, "")
	trace, err := st.Add("shop.har", []byte(sampleHAR))
	require.NoError(t, err)

	w, body := doJSON(t, g, http.MethodGet, "/api/traces/"+trace.ID+"/entries?method=GET&path_contains=/api/", "")
	require.Equal(t, http.StatusOK, w.Code)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, float64(0), results[0].(map[string]any)["entry_index"])
}

func TestCapture(t *testing.T) {
	harDir := t.TempDir()
	harPath := harDir + "/recorded.har"

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/browser/execute-with-recording", r.URL.Path)
		// Simulate the backend writing the recording before replying.
		require.NoError(t, writeFile(harPath, sampleHAR))
		json.NewEncoder(w).Encode(client.RecordingResult{
			Success:      true,
			FinalMessage: "recorded 2 requests",
			HarPath:      harPath,
		})
	}))
	defer backend.Close()

	g, st := testGateway(t, backend.URL)

	reqBody, _ := json.Marshal(map[string]string{
		"url":         "https://shop.example.com",
		"instruction": "browse the catalog",
		"har_path":    harPath,
	})
	w, body := doJSON(t, g, http.MethodPost, "/api/capture", string(reqBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["trace_id"])
	assert.Equal(t, 1, st.Len())
}

func TestCaptureValidation(t *testing.T) {
	g, _ := testGateway(t, "")

	w, _ := doJSON(t, g, http.MethodPost, "/api/capture", `{"url": "https://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateValidation(t *testing.T) {
	g, _ := testGateway(t, "")

	w, body := doJSON(t, g, http.MethodPost, "/api/generate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "required")

	w, _ = doJSON(t, g, http.MethodPost, "/api/generate", `{"trace_ids": ["trace-nope"]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
