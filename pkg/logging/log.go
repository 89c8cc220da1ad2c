package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logMutex sync.Mutex
)

// Init replaces the package logger. Output below level is dropped.
func Init(level slog.Level, output io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))
}

// OpenFile opens path for appending log lines, creating it if needed.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

func log(level slog.Level, msg string, attrs ...slog.Attr) {
	logMutex.Lock()
	l := logger
	logMutex.Unlock()
	l.LogAttrs(context.Background(), level, msg, attrs...)
}

func LogDebug(format string, args ...interface{}) {
	log(slog.LevelDebug, fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...interface{}) {
	log(slog.LevelInfo, fmt.Sprintf(format, args...))
}

func LogWarn(format string, args ...interface{}) {
	log(slog.LevelWarn, fmt.Sprintf(format, args...))
}

// LogError logs msg at error level with err attached as an attribute.
func LogError(err error, format string, args ...interface{}) {
	var attrs []slog.Attr
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	log(slog.LevelError, fmt.Sprintf(format, args...), attrs...)
}
