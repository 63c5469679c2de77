package stagedb

import (
	"io"
	"log/slog"
)

// logger is the package-level *slog.Logger the staging engine logs chunk
// growth and consolidation progress through at Debug level. Discards by
// default; a caller wanting the trace overrides it with SetLogger, the same
// pattern internal/bysant uses for frame tracing.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger overrides the package-level logger.
func SetLogger(l *slog.Logger) { logger = l }
