// Package corelog provides a minimal file-backed debug logger shared
// across the five pipeline stages. It deliberately avoids a structured
// logging framework: the teacher repo's own orchestrator package logs
// this way, and the core's log volume (one line per stage decision per
// request) does not warrant more.
package corelog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes timestamped lines to a file. The zero value (and a nil
// *Logger) are safe to call Log/Close on and simply discard output.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// Open creates a logger writing to path, creating parent directories
// as needed. An empty path returns a no-op logger.
func Open(path string) (*Logger, error) {
	if path == "" {
		return &Logger{}, nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := &Logger{file: f}
	l.Log("=== deskmind core log started at %s ===", time.Now().Format(time.RFC3339))
	return l, nil
}

// Nop returns a logger that discards everything, for tests and
// contexts where file logging is disabled.
func Nop() *Logger {
	return &Logger{}
}

// Log writes one timestamped line. Safe on a nil receiver.
func (l *Logger) Log(format string, args ...any) {
	if l == nil || l.file == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %s\n", ts, msg)
	_ = l.file.Sync()
}

// Close closes the underlying file. Safe on a nil receiver or a
// file-less logger.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
