// Package common holds process-wide helpers shared by the subport binaries.
package common

import (
	"io"
	"log/slog"
	"os"
)

// PackageName is used as the metrics namespace and default log service tag.
const PackageName = "subport"

// Version is overwritten at build time with -ldflags "-X ...common.Version=...".
var Version = "dev"

// LoggingOpts configures the process logger.
type LoggingOpts struct {
	Debug   bool
	JSON    bool
	Service string
	Version string

	// Output defaults to stderr so stdout stays reserved for command results.
	Output io.Writer
}

// SetupLogger builds the structured logger used by every component.
func SetupLogger(opts *LoggingOpts) (log *slog.Logger) {
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	if opts.JSON {
		log = slog.New(slog.NewJSONHandler(out, handlerOpts))
	} else {
		log = slog.New(slog.NewTextHandler(out, handlerOpts))
	}

	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
