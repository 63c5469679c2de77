package bysant

import (
	"io"
	"log/slog"
)

// logger is the package-level *slog.Logger every codec op logs frame
// pushes/pops through at Debug level. It discards output by default,
// exactly like cmd/hiveexplorer/logger: a caller that wants the trace
// enables it via SetLogger rather than the codec assuming a destination.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger overrides the package-level logger, e.g. to route Debug-level
// frame tracing to a CLI's configured output.
func SetLogger(l *slog.Logger) { logger = l }
