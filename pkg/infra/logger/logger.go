// Package logger provides structured logging for pipelayer. It wraps
// log/slog behind a small Init/Default surface so the CLI configures
// logging once and every package logs through the same handler.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

type contextKey int

const (
	pipelineKey contextKey = iota
	deploymentKey
)

var (
	defaultLogger *slog.Logger
	once          sync.Once
	mu            sync.RWMutex
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, text).
	Format string
	// Output is the writer to log to (defaults to os.Stderr).
	Output io.Writer
}

// Init initializes the default logger. It is safe to call multiple
// times; only the first call takes effect. Use Reset() followed by
// Init() to reconfigure.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	once.Do(func() {
		initLogger(cfg)
	})
}

// Reset resets the default logger so Init can be called again.
// Primarily for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	once = sync.Once{}
	defaultLogger = nil
}

func initLogger(cfg Config) {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the default logger instance. If Init() has not been
// called, returns the process-wide slog default.
func Default() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		return slog.Default()
	}
	return l
}

// WithContext returns a logger enriched with the pipeline name and
// deployment ID when they are present on the context.
func WithContext(ctx context.Context) *slog.Logger {
	l := Default()

	if name, ok := ctx.Value(pipelineKey).(string); ok && name != "" {
		l = l.With("pipeline", name)
	}
	if id, ok := ctx.Value(deploymentKey).(string); ok && id != "" {
		l = l.With("deployment_id", id)
	}

	return l
}

// SetPipeline adds the pipeline name to the context.
func SetPipeline(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, pipelineKey, name)
}

// SetDeploymentID adds the remote deployment ID to the context.
func SetDeploymentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deploymentKey, id)
}

// Convenience functions that delegate to the default logger.

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
