// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Routes CLI logs to stderr or to a debug log file so stdout stays clean.

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options selects level, format and destination for the default logger
type Options struct {
	Level  string // debug, info, warn, error (default: info)
	Format string // text, json (default: text)

	// DebugDir, when set, sends output to DebugDir/debug.log instead of Writer
	DebugDir string
	Writer   io.Writer
}

// Init configures the default slog logger and returns a close function for
// any log file it opened. The close function is always safe to call.
func Init(opts Options) (func(), error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	closeFn := func() {}

	if opts.DebugDir != "" {
		f, err := openDebugLog(opts.DebugDir)
		if err != nil {
			return closeFn, err
		}
		w = f
		closeFn = func() { f.Close() }
	}

	slog.SetDefault(New(w, opts.Level, opts.Format))
	return closeFn, nil
}

// New builds a logger writing to w
func New(w io.Writer, level, format string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openDebugLog(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
