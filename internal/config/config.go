// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Tool output limit defaults.
const (
	DefaultSearchLimitValue = 20
	DefaultQueryLimitValue  = 50
)

// Config holds all configuration for the harmcp binaries.
type Config struct {
	// Capture backend (browser automation service)
	CaptureBaseURL    string        // CAPTURE_BASE_URL, default "http://localhost:8070"
	HTTPClientTimeout time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 120000ms (captures are slow)

	// HTTP gateway
	GatewayAddr    string // GATEWAY_ADDR, default ":8080"
	UploadDir      string // UPLOAD_DIR, default "hars"
	MaxUploadBytes int64  // MAX_UPLOAD_BYTES, default 50MB
	HarDir         string // HAR_DIR, optional directory of .har files loaded at startup

	// Trace store and search
	TraceCacheMaxItems int // TRACE_CACHE_MAX_ITEMS, default 64
	IndexCacheMaxItems int // INDEX_CACHE_MAX_ITEMS, default 32
	LoadWorkers        int // LOAD_WORKERS, default 8
	DefaultSearchLimit int // DEFAULT_SEARCH_LIMIT
	DefaultQueryLimit  int // DEFAULT_QUERY_LIMIT
	ToolMaxBodyBytes   int // TOOL_MAX_BODY_BYTES, default 65536

	// Generation agent (external coding-agent CLI)
	AgentCommand        string        // AGENT_COMMAND, default "claude"
	AgentOutputDir      string        // AGENT_OUTPUT_DIR, default "mcp"
	AgentServerPort     int           // AGENT_SERVER_PORT, default 8111
	AgentMaxTurns       int           // AGENT_MAX_TURNS, default 20
	AgentPermissionMode string        // AGENT_PERMISSION_MODE, default "bypassPermissions"
	AgentAllowBash      bool          // AGENT_ALLOW_BASH, default false
	AgentTimeout        time.Duration // AGENT_TIMEOUT_MS, default 600000ms (10m)
	AgentLogTail        int           // AGENT_LOG_TAIL, default 100

	// Logging
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		CaptureBaseURL:    getEnvString("CAPTURE_BASE_URL", "http://localhost:8070"),
		HTTPClientTimeout: getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 120000),

		GatewayAddr:    getEnvString("GATEWAY_ADDR", ":8080"),
		UploadDir:      getEnvString("UPLOAD_DIR", "hars"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 50*1024*1024)),
		HarDir:         getEnvString("HAR_DIR", ""),

		TraceCacheMaxItems: getEnvInt("TRACE_CACHE_MAX_ITEMS", 64),
		IndexCacheMaxItems: getEnvInt("INDEX_CACHE_MAX_ITEMS", 32),
		LoadWorkers:        getEnvInt("LOAD_WORKERS", 8),
		DefaultSearchLimit: getEnvInt("DEFAULT_SEARCH_LIMIT", DefaultSearchLimitValue),
		DefaultQueryLimit:  getEnvInt("DEFAULT_QUERY_LIMIT", DefaultQueryLimitValue),
		ToolMaxBodyBytes:   getEnvInt("TOOL_MAX_BODY_BYTES", 65536),

		AgentCommand:        getEnvString("AGENT_COMMAND", "claude"),
		AgentOutputDir:      getEnvString("AGENT_OUTPUT_DIR", "mcp"),
		AgentServerPort:     getEnvInt("AGENT_SERVER_PORT", 8111),
		AgentMaxTurns:       getEnvInt("AGENT_MAX_TURNS", 20),
		AgentPermissionMode: getEnvString("AGENT_PERMISSION_MODE", "bypassPermissions"),
		AgentAllowBash:      getEnvBool("AGENT_ALLOW_BASH", false),
		AgentTimeout:        getEnvDurationMs("AGENT_TIMEOUT_MS", 600000),
		AgentLogTail:        getEnvInt("AGENT_LOG_TAIL", 100),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMs)) * time.Millisecond
}
