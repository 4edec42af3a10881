package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup returns a JSONL slog logger writing to w and, when logFile is not
// empty, also appending to logFile. The cleanup function closes the file.
func Setup(w io.Writer, logFile string, level slog.Level) (*slog.Logger, func(), error) {
	cleanup := func() {}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, nil, err
		}

		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}

		w = io.MultiWriter(w, f)
		cleanup = func() {
			_ = f.Close()
		}
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("app", "sbmlannot")

	return logger, cleanup, nil
}
