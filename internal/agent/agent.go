// Package agent drives the external AI coding-agent CLI that synthesizes
// an MCP server from HAR captures. The agent is an opaque collaborator:
// this package builds its prompt, streams its output, and reports whatever
// it says without interpreting anything beyond the completion marker.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/usetrace/harmcp/internal/config"
)

// successMarker is the exact line the agent is instructed to emit when the
// generated server is in place. Generation succeeds iff it appears.
const successMarker = "done MCP created and running on http://127.0.0.1:"

// serverFileName is the file the agent is asked to write.
const serverFileName = "har_api_server.py"

// defaultAllowedTools is the tool allowlist handed to the agent when the
// request does not specify one. Bash is opt-in.
var defaultAllowedTools = []string{"Read", "Write", "Grep", "WebSearch", "WebFetch"}

// Request describes one generation run.
type Request struct {
	HarPaths       []string `json:"har_paths"`
	ServerName     string   `json:"server_name,omitempty"`
	Port           int      `json:"port,omitempty"`
	OutputDir      string   `json:"output_dir,omitempty"`
	AllowedTools   []string `json:"allowed_tools,omitempty"`
	AllowBash      bool     `json:"allow_bash,omitempty"`
	PermissionMode string   `json:"permission_mode,omitempty"`
	MaxTurns       int      `json:"max_turns,omitempty"`
}

// Result is the pass-through outcome of a generation run. Failures carry
// the collaborator's message verbatim in Error.
type Result struct {
	Success      bool     `json:"success"`
	FinalMessage string   `json:"final_message,omitempty"`
	Logs         []string `json:"logs,omitzero"`
	ServerPath   string   `json:"mcp_server_path,omitempty"`
	RunCommand   string   `json:"run_command,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Service runs the agent CLI.
type Service struct {
	cfg *config.Config

	// lookPath is swappable for tests.
	lookPath func(string) (string, error)
}

// New creates an agent service.
func New(cfg *config.Config) *Service {
	return &Service{cfg: cfg, lookPath: exec.LookPath}
}

// Generate asks the agent to build an MCP server from the request's HAR
// files. The returned Result reports failure in-band; the error return is
// reserved for setup problems like an unstartable command.
func (s *Service) Generate(ctx context.Context, req *Request) (*Result, error) {
	if len(req.HarPaths) == 0 {
		return &Result{Error: "no HAR files provided"}, nil
	}
	for _, p := range req.HarPaths {
		if _, err := os.Stat(p); err != nil {
			return &Result{Error: fmt.Sprintf("HAR file not found: %s", p)}, nil
		}
	}

	port := req.Port
	if port <= 0 {
		port = s.cfg.AgentServerPort
	}
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = s.cfg.AgentOutputDir
	}
	serverName := req.ServerName
	if serverName == "" {
		serverName = "HAR MCP Server"
	}
	maxTurns := req.MaxTurns
	if maxTurns <= 0 {
		maxTurns = s.cfg.AgentMaxTurns
	}
	permissionMode := req.PermissionMode
	if permissionMode == "" {
		permissionMode = s.cfg.AgentPermissionMode
	}

	tools := req.AllowedTools
	if tools == nil {
		tools = defaultAllowedTools
	}
	if (req.AllowBash || s.cfg.AgentAllowBash) && !contains(tools, "Bash") {
		tools = append(tools, "Bash")
	}

	serverPath := filepath.Join(outputDir, serverFileName)
	prompt := buildPrompt(req.HarPaths, serverName, serverPath, outputDir, port)

	if _, err := s.lookPath(s.cfg.AgentCommand); err != nil {
		return &Result{Error: fmt.Sprintf("agent command not available: %v", err)}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.AgentTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.cfg.AgentCommand,
		"-p", prompt,
		"--allowedTools", strings.Join(tools, ","),
		"--permission-mode", permissionMode,
		"--max-turns", strconv.Itoa(maxTurns),
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("getting agent stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("getting agent stderr: %w", err)
	}

	slog.Info("starting generation agent",
		slog.String("command", s.cfg.AgentCommand),
		slog.Int("har_files", len(req.HarPaths)),
		slog.Int("port", port),
	)
	if err := cmd.Start(); err != nil {
		return &Result{Error: fmt.Sprintf("starting agent: %v", err)}, nil
	}

	collector := newLogCollector(s.cfg.AgentLogTail)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		streamLines(stdout, "stdout", collector)
	}()
	go func() {
		defer wg.Done()
		streamLines(stderr, "stderr", collector)
	}()
	wg.Wait()

	waitErr := cmd.Wait()

	result := &Result{Logs: collector.tail()}
	if final := collector.finalMessage(); final != "" {
		result.Success = true
		result.FinalMessage = final
		result.ServerPath = serverPath
		result.RunCommand = runCommand(serverPath, port)
		result.Instructions = fmt.Sprintf(
			"MCP server generated. To run it locally, execute:\n%s\nThen connect your MCP client to http://127.0.0.1:%d.",
			result.RunCommand, port,
		)
		slog.Info("generation succeeded", slog.String("server_path", serverPath))
		return result, nil
	}

	switch {
	case runCtx.Err() != nil:
		result.Error = fmt.Sprintf("agent timed out: %v", runCtx.Err())
	case waitErr != nil:
		result.Error = fmt.Sprintf("agent exited with error: %v", waitErr)
	default:
		result.Error = "agent finished without the completion marker"
	}
	slog.Warn("generation failed", slog.String("error", result.Error))
	return result, nil
}

// runCommand is the suggested command to start the generated server.
func runCommand(serverPath string, port int) string {
	return fmt.Sprintf("fastmcp run %s:mcp --transport http --port %d", serverPath, port)
}

// streamLines forwards subprocess output lines to the collector and the
// process log as they arrive.
func streamLines(r io.Reader, stream string, collector *logCollector) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		collector.add(line)
		slog.Info("[agent] "+line, slog.String("stream", stream))
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

// logCollector keeps a bounded tail of output lines and watches for the
// completion marker.
type logCollector struct {
	mu    sync.Mutex
	lines []string
	max   int
	final string
}

func newLogCollector(max int) *logCollector {
	if max <= 0 {
		max = 100
	}
	return &logCollector{max: max}
}

func (c *logCollector) add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	if len(c.lines) > c.max {
		c.lines = c.lines[len(c.lines)-c.max:]
	}
	if strings.Contains(line, successMarker) {
		c.final = strings.TrimSpace(line)
	}
}

func (c *logCollector) tail() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *logCollector) finalMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.final
}
