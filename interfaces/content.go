package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ContentLocation is a parsed reference to a genesis or validation code payload.
type ContentLocation struct {
	Raw    string     // Original reference
	Scheme string     // Protocol, "inline" for literal hex and "file" for bare paths
	Host   string     // Hostname or bucket
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewContentLocation parses a content reference. Literal 0x-prefixed hex is
// an inline location and scheme-less references are local file paths.
func NewContentLocation(ref string) (ContentLocation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ContentLocation{}, fmt.Errorf("%w: empty reference", ErrInvalidLocationURI)
	}

	if strings.HasPrefix(ref, "0x") || strings.HasPrefix(ref, "0X") {
		return ContentLocation{Raw: ref, Scheme: "inline"}, nil
	}

	if !strings.Contains(ref, "://") {
		return ContentLocation{Raw: ref, Scheme: "file", Path: ref}, nil
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return ContentLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "file", "http", "https", "s3", "ipfs", "github", "vault", "onchain":
	default:
		return ContentLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return ContentLocation{
		Raw:    ref,
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original reference.
func (loc ContentLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc ContentLocation) GetParam(name string) string {
	if loc.Query == nil {
		return ""
	}
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc ContentLocation) GetParamBool(name string) bool {
	value := loc.GetParam(name)
	return value == "true" || value == "1" || value == "yes"
}

var (
	// ErrContentNotFound is returned when the referenced content does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a content source is not accessible.
	ErrBackendUnavailable = errors.New("content source unavailable")

	// ErrInvalidLocationURI is returned when a content reference is malformed or unsupported.
	ErrInvalidLocationURI = errors.New("invalid content location")
)

// ContentSource fetches one payload.
type ContentSource interface {
	// Fetch retrieves the payload.
	Fetch(ctx context.Context) ([]byte, error)

	// Available checks if the source is reachable.
	Available(ctx context.Context) bool

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the reference this source was built from.
	LocationURI() string
}

// ContentSourceFactory creates content sources.
type ContentSourceFactory interface {
	// SourceFor creates a source for a single location.
	SourceFor(loc ContentLocation) (ContentSource, error)

	// MultiSource creates a source that falls back across mirrors in order.
	MultiSource(locs []ContentLocation) (ContentSource, error)
}
