package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup configures a JSONL slog logger writing to w and, when logFile is set,
// also appending to that file. Returns a cleanup function that closes the
// file handle.
func Setup(w io.Writer, logFile string, level slog.Level) (*slog.Logger, func(), error) {
	cleanup := func() {}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}

		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}

		w = io.MultiWriter(w, f)
		cleanup = func() {
			_ = f.Close()
		}
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), cleanup, nil
}
