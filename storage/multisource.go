package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/paritytech/subport/interfaces"
)

// MultiSource serves a payload from the first of several mirrors that has it.
type MultiSource struct {
	sources []interfaces.ContentSource
	log     *slog.Logger
}

// NewMultiSource creates a source falling back across sources in order.
func NewMultiSource(sources []interfaces.ContentSource, logger *slog.Logger) *MultiSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiSource{
		sources: sources,
		log:     logger,
	}
}

// Fetch tries each available source in order. The error wraps every
// per-source failure, so ErrContentNotFound is detectable when all mirrors
// agree the content is missing.
func (m *MultiSource) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, source := range m.sources {
		if !source.Available(ctx) {
			m.log.Debug("Source unavailable", slog.String("source", source.Name()))
			errs = append(errs, fmt.Errorf("%s: %w", source.Name(), interfaces.ErrBackendUnavailable))
			continue
		}

		data, err := source.Fetch(ctx)
		if err == nil {
			m.log.Info("Fetched content",
				slog.String("source", source.Name()),
				slog.Int("size", len(data)),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
		m.log.Debug("Failed to fetch from source",
			slog.String("source", source.Name()),
			"err", err)

		if ctx.Err() != nil {
			break
		}
	}

	m.log.Error("All sources failed to fetch content",
		slog.String("location", m.LocationURI()),
		slog.Int("failed_sources", len(errs)),
		slog.Duration("duration", time.Since(start)))

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", interfaces.ErrContentNotFound)
	}
	return nil, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
}

// Available returns true if any source is available.
func (m *MultiSource) Available(ctx context.Context) bool {
	for _, source := range m.sources {
		if source.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns a unique identifier for this source.
func (m *MultiSource) Name() string {
	names := make([]string, len(m.sources))
	for i, source := range m.sources {
		names[i] = source.Name()
	}
	return "multi-" + strings.Join(names, ",")
}

// LocationURI returns the mirror references joined by commas.
func (m *MultiSource) LocationURI() string {
	uris := make([]string, len(m.sources))
	for i, source := range m.sources {
		uris[i] = source.LocationURI()
	}
	return strings.Join(uris, ",")
}
