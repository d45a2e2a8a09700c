// Package common holds shared service metadata and logging setup.
package common

import (
	"log/slog"
	"os"
)

// PackageName identifies this service in metrics and logs.
const PackageName = "workload-encryption"

// Version is overridden at build time via -ldflags.
var Version = "dev"

// LoggingOpts configures the structured logger.
type LoggingOpts struct {
	// Debug enables debug-level logging.
	Debug bool

	// JSON switches the output format from text to JSON.
	JSON bool

	// Service is attached to every log line as the service name.
	Service string

	// Version is attached to every log line.
	Version string
}

// SetupLogger creates a structured logger writing to stderr.
func SetupLogger(opts *LoggingOpts) (log *slog.Logger) {
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}

	log = slog.New(handler)
	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
