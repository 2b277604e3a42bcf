package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Services receive it via their WithLogger
// options; nothing reads the slog default.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
