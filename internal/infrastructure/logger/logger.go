package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/LavaJover/shvark-p2p-service/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger. A file output is rotated by size.
func New(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}
	out := Output(cfg)

	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

func Output(cfg config.LogConfig) io.Writer {
	if cfg.LogOutput == "" || cfg.LogOutput == "stdout" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   cfg.LogOutput,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
