// Package config loads settings for the creative CLI and the mock backend.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/creative-go/internal/chat"
)

// Config holds all configuration values.
type Config struct {
	// Session gateway
	APIBaseURL    string
	ClientTimeout time.Duration
	PollInterval  time.Duration

	// Reveal pacing
	Timings chat.Timings

	// Mock backend
	ServerPort  int
	Store       string // "memory" or "surrealdb"
	TurnStep    time.Duration
	CORSOrigins []string

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	defaults := chat.DefaultTimings()

	return Config{
		APIBaseURL:    getEnv("CREATIVE_API_BASE_URL", "http://localhost:8585"),
		ClientTimeout: parseDuration(getEnv("CREATIVE_CLIENT_TIMEOUT", ""), 30*time.Second),
		PollInterval:  parseDuration(getEnv("CREATIVE_POLL_INTERVAL", ""), 2*time.Second),

		Timings: chat.Timings{
			Typing:     parseDuration(getEnv("CREATIVE_TYPING_SPEED", ""), defaults.Typing),
			MessageGap: parseDuration(getEnv("CREATIVE_MESSAGE_DELAY", ""), defaults.MessageGap),
			ImageDelay: parseDuration(getEnv("CREATIVE_IMAGE_DELAY", ""), defaults.ImageDelay),
			ReplyDelay: parseDuration(getEnv("CREATIVE_REPLY_DELAY", ""), defaults.ReplyDelay),
		},

		ServerPort:  parseInt(getEnv("CREATIVE_SERVER_PORT", ""), 8585),
		Store:       strings.ToLower(getEnv("CREATIVE_STORE", "memory")),
		TurnStep:    parseDuration(getEnv("CREATIVE_TURN_STEP", ""), 1500*time.Millisecond),
		CORSOrigins: splitList(getEnv("CREATIVE_CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "creative"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "sessions"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LogFile:  getEnv("CREATIVE_LOG_FILE", "/tmp/creative.log"),
		LogLevel: parseLogLevel(getEnv("CREATIVE_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	// Bare integers are milliseconds.
	if ms, err := strconv.Atoi(s); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}

func parseInt(s string, defaultVal int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
