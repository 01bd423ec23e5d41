package deploy

import (
	"log/slog"
	"sync"

	"github.com/jguan/pipelayer/pkg/infra/logger"
)

// Reporter receives validation findings, one call per message, tagged
// with the definition object the remote service attributed it to.
// Injecting it keeps warning/error emission out of process-wide
// logging state so tests can capture output directly.
type Reporter interface {
	Warning(objectID, message string)
	Error(objectID, message string)
}

// LogReporter routes findings to a structured logger.
type LogReporter struct {
	// Log defaults to the package-wide logger when nil.
	Log *slog.Logger
}

var _ Reporter = (*LogReporter)(nil)

func (r *LogReporter) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logger.Default()
}

func (r *LogReporter) Warning(objectID, message string) {
	r.logger().Warn("validation warning", "object", objectID, "message", message)
}

func (r *LogReporter) Error(objectID, message string) {
	r.logger().Error("validation error", "object", objectID, "message", message)
}

// CaptureReporter collects findings in memory for tests.
type CaptureReporter struct {
	mu       sync.Mutex
	Warnings []Finding
	Errors   []Finding
}

type Finding struct {
	ObjectID string
	Message  string
}

var _ Reporter = (*CaptureReporter)(nil)

func (r *CaptureReporter) Warning(objectID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, Finding{ObjectID: objectID, Message: message})
}

func (r *CaptureReporter) Error(objectID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, Finding{ObjectID: objectID, Message: message})
}
