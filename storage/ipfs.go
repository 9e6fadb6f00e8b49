package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/paritytech/subport/interfaces"
)

// DefaultIPFSAPI is the API address of a local IPFS node.
const DefaultIPFSAPI = "localhost:5001"

// IPFSSource reads a payload from IPFS through a node's HTTP API.
type IPFSSource struct {
	shell       *shell.Shell
	api         string
	path        string
	log         *slog.Logger
	locationURI string
}

// NewIPFSSource creates a source for cid, optionally followed by a path
// inside a directory, resolved through the node at api.
func NewIPFSSource(api, cid string, log *slog.Logger) *IPFSSource {
	if api == "" {
		api = DefaultIPFSAPI
	}
	cid = strings.Trim(cid, "/")
	return &IPFSSource{
		shell:       shell.NewShell(api),
		api:         api,
		path:        "/ipfs/" + cid,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s?api=%s", cid, api),
	}
}

// Fetch retrieves the payload with `cat`.
func (s *IPFSSource) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()

	resp, err := s.shell.Request("cat", s.path).Send(ctx)
	if err != nil {
		s.log.Warn("IPFS node unavailable", slog.String("api", s.api), "err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer resp.Close()

	if resp.Error != nil {
		if strings.Contains(resp.Error.Message, "no link named") || strings.Contains(resp.Error.Message, "not found") {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrContentNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to fetch %s from IPFS: %w", s.path, resp.Error)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Output, maxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}
	if len(data) > maxPayloadSize {
		return nil, fmt.Errorf("payload at %s exceeds %d bytes", s.path, maxPayloadSize)
	}

	s.log.Debug("Fetched content from IPFS",
		slog.String("path", s.path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Available checks if the IPFS node is accessible.
func (s *IPFSSource) Available(ctx context.Context) bool {
	return s.shell.IsUp()
}

// Name returns a unique identifier for this source.
func (s *IPFSSource) Name() string {
	return "ipfs-" + s.api
}

// LocationURI returns the URI that identifies this source.
func (s *IPFSSource) LocationURI() string {
	return s.locationURI
}
