package config

import (
	"log/slog"
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	DatabaseURL     string
	LogLevel        slog.Level
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays
// lean. An empty ROSTER_DATABASE_URL selects the in-memory store.
func FromEnv() Server {
	addr := os.Getenv("ROSTER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	level := slog.LevelInfo
	if os.Getenv("ROSTER_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	return Server{
		Addr:            addr,
		DatabaseURL:     os.Getenv("ROSTER_DATABASE_URL"),
		LogLevel:        level,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}
