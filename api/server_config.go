package api

import (
	"log/slog"
	"time"
)

const (
	// DefaultShutdownMargin is added to the finality timeout to form the
	// graceful shutdown window.
	DefaultShutdownMargin = 30 * time.Second

	// DefaultMaxBodySize bounds onboarding request bodies. Payloads travel
	// as references, not inline blobs.
	DefaultMaxBodySize = 1024 * 1024

	// DefaultReadTimeout bounds reading a whole request.
	DefaultReadTimeout = 60 * time.Second
)

// HTTPServerConfig configures the onboarding API server.
//
// Responses have no write deadline: an onboarding request is answered only
// after the batch is finalized or the finality timeout expires.
type HTTPServerConfig struct {
	ListenAddr string

	// MetricsAddr is the address of the metrics listener. Empty disables it.
	MetricsAddr string

	EnablePprof bool
	Log         *slog.Logger

	// DrainDuration is how long the server reports not ready before it
	// stops accepting requests, so load balancers can notice.
	DrainDuration time.Duration

	// FinalityTimeout is the longest a run waits for its batch to be
	// finalized. Shutdown waits for it plus ShutdownMargin, so a run in
	// flight still reports its outcome.
	FinalityTimeout time.Duration

	// ShutdownMargin covers signing, submission and payload loading on top
	// of the finality wait. Zero means DefaultShutdownMargin.
	ShutdownMargin time.Duration

	// MaxBodySize bounds request bodies in bytes. Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// ReadTimeout bounds reading a whole request. Zero means DefaultReadTimeout.
	ReadTimeout time.Duration
}

// ShutdownWindow is the time in-flight requests get to complete on shutdown.
func (c *HTTPServerConfig) ShutdownWindow() time.Duration {
	margin := c.ShutdownMargin
	if margin <= 0 {
		margin = DefaultShutdownMargin
	}
	return c.FinalityTimeout + margin
}

// BodyLimit returns MaxBodySize or its default.
func (c *HTTPServerConfig) BodyLimit() int64 {
	if c.MaxBodySize <= 0 {
		return DefaultMaxBodySize
	}
	return c.MaxBodySize
}

// RequestReadTimeout returns ReadTimeout or its default.
func (c *HTTPServerConfig) RequestReadTimeout() time.Duration {
	if c.ReadTimeout <= 0 {
		return DefaultReadTimeout
	}
	return c.ReadTimeout
}
