package mcp

import (
	"context"
	"errors"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddlewarePassThrough(t *testing.T) {
	want := &sdkmcp.CallToolResult{}
	var gotMethod string
	inner := func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		gotMethod = method
		return want, nil
	}

	wrapped := LoggingMiddleware()(inner)
	result, err := wrapped(context.Background(), "tools/call", &sdkmcp.CallToolRequest{
		Params: &sdkmcp.CallToolParamsRaw{Name: "har_list_traces"},
	})
	require.NoError(t, err)
	assert.Same(t, want, result)
	assert.Equal(t, "tools/call", gotMethod)
}

func TestLoggingMiddlewareError(t *testing.T) {
	wantErr := errors.New("trace not found")
	inner := func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		return nil, wantErr
	}

	wrapped := LoggingMiddleware()(inner)
	result, err := wrapped(context.Background(), "resources/read", &sdkmcp.ReadResourceRequest{
		Params: &sdkmcp.ReadResourceParams{URI: "har://traces/trace-missing/endpoints"},
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, wantErr)
}

func TestRequestAttrs(t *testing.T) {
	tests := []struct {
		name string
		req  sdkmcp.Request
		want string
	}{
		{
			"tool call carries tool name",
			&sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "har_extract_endpoints"}},
			"tool",
		},
		{
			"resource read carries uri",
			&sdkmcp.ReadResourceRequest{Params: &sdkmcp.ReadResourceParams{URI: "har://traces/trace-abc/openapi"}},
			"uri",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := requestAttrs(tt.req)
			require.Len(t, attrs, 1)
			assert.Equal(t, tt.want, attrs[0].Key)
		})
	}

	assert.Nil(t, requestAttrs(&sdkmcp.CallToolRequest{}), "nil params log nothing extra")
	assert.Nil(t, requestAttrs(&sdkmcp.ReadResourceRequest{}), "nil params log nothing extra")
	assert.Nil(t, requestAttrs(nil), "other request types log nothing extra")
}
