package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usetrace/harmcp/internal/config"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-agent.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func writeHar(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.har")
	require.NoError(t, os.WriteFile(path, []byte(`{"log":{"entries":[]}}`), 0o644))
	return path
}

func testService(t *testing.T, command string) *Service {
	t.Helper()
	cfg := config.Load()
	cfg.AgentCommand = command
	return New(cfg)
}

func TestGenerateSuccess(t *testing.T) {
	port := 8111
	script := writeScript(t, fmt.Sprintf(
		`echo "reading HAR"
echo "done MCP created and running on http://127.0.0.1:%d"`, port))
	svc := testService(t, script)

	res, err := svc.Generate(context.Background(), &Request{
		HarPaths:  []string{writeHar(t)},
		Port:      port,
		OutputDir: "mcp",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, fmt.Sprintf("done MCP created and running on http://127.0.0.1:%d", port), res.FinalMessage)
	assert.Equal(t, filepath.Join("mcp", "har_api_server.py"), res.ServerPath)
	assert.Contains(t, res.RunCommand, "fastmcp run")
	assert.Contains(t, res.RunCommand, fmt.Sprintf("--port %d", port))
	assert.Contains(t, res.Logs, "reading HAR")
	assert.Empty(t, res.Error)
}

func TestGenerateNoMarker(t *testing.T) {
	script := writeScript(t, `echo "did some work but never finished"`)
	svc := testService(t, script)

	res, err := svc.Generate(context.Background(), &Request{HarPaths: []string{writeHar(t)}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "completion marker")
	assert.Contains(t, res.Logs, "did some work but never finished")
}

func TestGenerateAgentExitError(t *testing.T) {
	script := writeScript(t, `echo "boom" >&2
exit 3`)
	svc := testService(t, script)

	res, err := svc.Generate(context.Background(), &Request{HarPaths: []string{writeHar(t)}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "exited with error")
	assert.Contains(t, res.Logs, "boom")
}

func TestGenerateMissingHarFile(t *testing.T) {
	svc := testService(t, "claude")

	res, err := svc.Generate(context.Background(), &Request{HarPaths: []string{"/does/not/exist.har"}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "HAR file not found")
}

func TestGenerateNoHarFiles(t *testing.T) {
	svc := testService(t, "claude")

	res, err := svc.Generate(context.Background(), &Request{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no HAR files provided", res.Error)
}

func TestGenerateCommandNotFound(t *testing.T) {
	svc := testService(t, "definitely-not-a-real-binary-name")

	res, err := svc.Generate(context.Background(), &Request{HarPaths: []string{writeHar(t)}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "agent command not available")
}

func TestGenerateLogTail(t *testing.T) {
	script := writeScript(t, `i=0
while [ $i -lt 150 ]; do
  echo "line $i"
  i=$((i+1))
done`)
	svc := testService(t, script)
	svc.cfg.AgentLogTail = 100

	res, err := svc.Generate(context.Background(), &Request{HarPaths: []string{writeHar(t)}})
	require.NoError(t, err)
	assert.Len(t, res.Logs, 100)
	assert.Equal(t, "line 149", res.Logs[len(res.Logs)-1])
}

func TestBuildPromptContract(t *testing.T) {
	prompt := buildPrompt([]string{"/tmp/a.har", "/tmp/b.har"}, "Shop API", "mcp/har_api_server.py", "mcp", 9001)
	assert.Contains(t, prompt, "/tmp/a.har")
	assert.Contains(t, prompt, "/tmp/b.har")
	assert.Contains(t, prompt, "Shop API")
	assert.Contains(t, prompt, "mcp/har_api_server.py")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(prompt), "done MCP created and running on http://127.0.0.1:9001"))
}
