package main

import (
	"fmt"
	"log/slog"
	"os"
)

// verboseLogger returns a text slog logger on stderr when --verbose is set,
// nil otherwise. A *slog.Logger satisfies the remote backend's Logger
// interface directly.
func verboseLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// logfAdapter bridges a slog logger to the Logf-style interfaces of the
// dispatcher and the local backend.
type logfAdapter struct {
	l *slog.Logger
}

func (a logfAdapter) Logf(format string, args ...any) {
	a.l.Info(fmt.Sprintf(format, args...))
}
