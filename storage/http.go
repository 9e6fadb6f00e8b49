package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/paritytech/subport/interfaces"
)

// maxPayloadSize caps downloads; relay chains reject validation code above a few MiB anyway.
const maxPayloadSize = 64 << 20

// HTTPSource downloads a payload over HTTP(S).
type HTTPSource struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

// NewHTTPSource creates a source for url.
func NewHTTPSource(url string, log *slog.Logger) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 60 * time.Second},
		log:    log,
	}
}

// Fetch downloads the payload.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	data, err := httpGet(ctx, s.client, s.url, nil)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Fetched content over HTTP",
		slog.String("url", s.url),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return data, nil
}

// Available checks that the server answers a HEAD request for the payload.
func (s *HTTPSource) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("HTTP source unavailable", "err", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// Name returns a unique identifier for this source.
func (s *HTTPSource) Name() string {
	return "http-" + s.url
}

// LocationURI returns the URI that identifies this source.
func (s *HTTPSource) LocationURI() string {
	return s.url
}

// httpGet performs a GET and maps 404 to ErrContentNotFound and connection
// failures to ErrBackendUnavailable.
func httpGet(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrContentNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected response from %s: %s, %s", url, resp.Status, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxPayloadSize {
		return nil, fmt.Errorf("payload at %s exceeds %d bytes", url, maxPayloadSize)
	}
	return data, nil
}
