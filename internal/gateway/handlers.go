package gateway

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/usetrace/harmcp/internal/agent"
	"github.com/usetrace/harmcp/internal/search"
	"github.com/usetrace/harmcp/internal/store"
	"github.com/usetrace/harmcp/pkg/client"
	"github.com/usetrace/harmcp/pkg/extract"
	"github.com/usetrace/harmcp/pkg/har"
	"github.com/usetrace/harmcp/pkg/openapi"
)

// traceResponse is the JSON view of a stored trace.
type traceResponse struct {
	TraceID    string `json:"trace_id"`
	Name       string `json:"name"`
	Path       string `json:"path,omitempty"`
	EntryCount int    `json:"entry_count"`
	LoadedAt   string `json:"loaded_at"`
}

func (g *Gateway) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"traces": g.store.Len(),
	})
}

// handleUploadTrace accepts a HAR document as the request body (raw JSON
// or a multipart "file" field), persists it to the upload directory, and
// registers it as a trace. The response inlines the extracted endpoints
// so a single round trip covers the common upload-then-extract flow.
func (g *Gateway) handleUploadTrace(c *gin.Context) {
	name := c.Query("name")
	data, uploadName, err := g.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if int64(len(data)) > g.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
		return
	}
	if name == "" {
		name = uploadName
	}
	if name == "" {
		name = "upload"
	}

	t, err := g.store.AddUpload(name, data)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, har.ErrMalformedJSON) && !errors.Is(err, har.ErrInvalidFormat) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	result, err := extract.Extract(t.Doc)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"trace_id":    t.ID,
		"name":        t.Name,
		"path":        t.Path,
		"entry_count": t.EntryCount(),
		"endpoints":   result.Endpoints,
		"skipped":     result.Skipped,
	})
}

// readUpload returns the HAR bytes from a multipart "file" field when the
// request is multipart, otherwise the raw request body.
func (g *Gateway) readUpload(c *gin.Context) ([]byte, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("reading multipart file: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", fmt.Errorf("opening upload: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, g.cfg.MaxUploadBytes+1))
		if err != nil {
			return nil, "", fmt.Errorf("reading upload: %w", err)
		}
		return data, fh.Filename, nil
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, g.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading request body: %w", err)
	}
	return data, "", nil
}

func (g *Gateway) handleListTraces(c *gin.Context) {
	traces := g.store.List()
	out := make([]traceResponse, len(traces))
	for i, t := range traces {
		out[i] = toTraceResponse(t)
	}
	c.JSON(http.StatusOK, gin.H{"traces": out})
}

func (g *Gateway) handleEndpoints(c *gin.Context) {
	t, ok := g.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "trace not found: " + c.Param("id")})
		return
	}

	result, err := extract.Extract(t.Doc)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, har.ErrInvalidFormat) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trace_id":  t.ID,
		"endpoints": result.Endpoints,
		"skipped":   result.Skipped,
	})
}

func (g *Gateway) handleOpenAPI(c *gin.Context) {
	t, ok := g.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "trace not found: " + c.Param("id")})
		return
	}

	result, err := extract.Extract(t.Doc)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var spec *openapi.Spec
	if c.Query("infer_schemas") == "true" {
		spec = openapi.SynthesizeWithBodies(t.Doc, result.Endpoints)
	} else {
		spec = openapi.Synthesize(result.Endpoints)
	}
	c.JSON(http.StatusOK, spec)
}

func (g *Gateway) handleSearchEntries(c *gin.Context) {
	traceID := c.Param("id")

	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = g.cfg.DefaultSearchLimit
	}
	offset, _ := strconv.Atoi(c.Query("offset"))
	status, _ := strconv.Atoi(c.Query("status"))

	req := &search.Request{
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	}
	if c.Query("method") != "" || status != 0 || c.Query("host") != "" || c.Query("path_contains") != "" {
		req.Filters = &search.Filters{
			Method:       c.Query("method"),
			Status:       status,
			Host:         c.Query("host"),
			PathContains: c.Query("path_contains"),
		}
	}

	resp, ok := g.search.Search(traceID, req)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "trace not found: " + traceID})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// captureRequest asks the capture backend to record a browsing session
// and registers the resulting HAR as a trace.
type captureRequest struct {
	URL         string `json:"url" binding:"required"`
	Instruction string `json:"instruction" binding:"required"`
	HarPath     string `json:"har_path" binding:"required"`
	CookiesPath string `json:"cookies_path,omitempty"`
}

func (g *Gateway) handleCapture(c *gin.Context) {
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := g.capture.ExecuteWithRecording(c.Request.Context(), &client.RecordingRequest{
		URL:         req.URL,
		Instruction: req.Instruction,
		HarPath:     req.HarPath,
		CookiesPath: req.CookiesPath,
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"success":       result.Success,
		"final_message": result.FinalMessage,
		"har_path":      result.HarPath,
	}
	if result.Success && result.HarPath != "" {
		// Register the recording so it is immediately queryable.
		if t, err := g.store.Load(result.HarPath); err == nil {
			resp["trace_id"] = t.ID
		}
	}
	if result.Error != "" {
		resp["error"] = result.Error
	}
	c.JSON(http.StatusOK, resp)
}

// generateRequest triggers MCP server generation from stored traces or
// HAR paths.
type generateRequest struct {
	TraceIDs   []string `json:"trace_ids,omitempty"`
	HarPaths   []string `json:"har_paths,omitempty"`
	ServerName string   `json:"server_name,omitempty"`
	Port       int      `json:"port,omitempty"`
	OutputDir  string   `json:"output_dir,omitempty"`
	AllowBash  bool     `json:"allow_bash,omitempty"`
	MaxTurns   int      `json:"max_turns,omitempty"`
}

func (g *Gateway) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	harPaths := req.HarPaths
	for _, id := range req.TraceIDs {
		t, ok := g.store.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "trace not found: " + id})
			return
		}
		if t.Path == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "trace " + id + " has no backing HAR file"})
			return
		}
		harPaths = append(harPaths, t.Path)
	}
	if len(harPaths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trace_ids or har_paths is required"})
		return
	}

	result, err := g.agent.Generate(c.Request.Context(), &agent.Request{
		HarPaths:   harPaths,
		ServerName: req.ServerName,
		Port:       req.Port,
		OutputDir:  req.OutputDir,
		AllowBash:  req.AllowBash,
		MaxTurns:   req.MaxTurns,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Agent failures are data, not HTTP errors: the caller inspects
	// success and the passed-through message.
	c.JSON(http.StatusOK, result)
}

func toTraceResponse(t *store.Trace) traceResponse {
	return traceResponse{
		TraceID:    t.ID,
		Name:       t.Name,
		Path:       t.Path,
		EntryCount: t.EntryCount(),
		LoadedAt:   t.LoadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
