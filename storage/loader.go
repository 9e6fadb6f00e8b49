package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paritytech/subport/interfaces"
)

// Loader resolves reference strings into payloads.
type Loader struct {
	factory interfaces.ContentSourceFactory
	log     *slog.Logger
}

// NewLoader creates a loader over factory.
func NewLoader(factory interfaces.ContentSourceFactory, log *slog.Logger) *Loader {
	return &Loader{factory: factory, log: log}
}

// Fetch loads one payload from refs, which are mirrors tried in order.
func (l *Loader) Fetch(ctx context.Context, refs ...string) ([]byte, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no reference given", interfaces.ErrInvalidLocationURI)
	}

	locs := make([]interfaces.ContentLocation, 0, len(refs))
	for _, ref := range refs {
		loc, err := interfaces.NewContentLocation(ref)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}

	source, err := l.factory.MultiSource(locs)
	if err != nil {
		return nil, err
	}

	data, err := source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", source.LocationURI(), err)
	}
	l.log.Debug("Loaded payload", slog.String("source", source.Name()), slog.Int("size", len(data)))
	return data, nil
}
