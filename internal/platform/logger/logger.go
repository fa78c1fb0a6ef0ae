// Package logger builds the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger at the given level. Registry rejections are
// legally meaningful, so logs must stay machine-parseable.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Nop returns a logger that discards everything; used in tests.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
