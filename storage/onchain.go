package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/paritytech/subport/chainstate"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/scale"
)

// ChainItem selects what a ChainSource reads.
type ChainItem string

const (
	// ChainHead is the para's current head data.
	ChainHead ChainItem = "head"
	// ChainCode is the para's current validation code.
	ChainCode ChainItem = "code"
)

// ChainSource copies a para's head or validation code from a chain where it
// is already live, e.g. to onboard a Kusama parachain onto Rococo.
type ChainSource struct {
	chain  string
	reader chainstate.StorageReader
	paraID interfaces.ParaID
	item   ChainItem
	log    *slog.Logger
}

// NewChainSource creates a source reading item of paraID through reader.
func NewChainSource(chain string, reader chainstate.StorageReader, paraID interfaces.ParaID, item ChainItem, log *slog.Logger) (*ChainSource, error) {
	switch item {
	case ChainHead, ChainCode:
	default:
		return nil, fmt.Errorf("%w: unknown onchain item %q", interfaces.ErrInvalidLocationURI, item)
	}
	return &ChainSource{chain: chain, reader: reader, paraID: paraID, item: item, log: log}, nil
}

func (s *ChainSource) paraKey() []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(s.paraID))
}

// Fetch reads Paras.Heads for the head, or Paras.CurrentCodeHash followed by
// Paras.CodeByHash for the code. The result is the raw payload without its length prefix.
func (s *ChainSource) Fetch(ctx context.Context) ([]byte, error) {
	var (
		raw []byte
		err error
	)

	switch s.item {
	case ChainHead:
		raw, err = s.reader.ReadStorage(ctx, "Paras", "Heads", s.paraKey())
	case ChainCode:
		var hash []byte
		hash, err = s.reader.ReadStorage(ctx, "Paras", "CurrentCodeHash", s.paraKey())
		if err != nil || hash == nil {
			break
		}
		raw, err = s.reader.ReadStorage(ctx, "Paras", "CodeByHash", hash)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", interfaces.ErrBackendUnavailable, s.chain, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s of para %d on %s", interfaces.ErrContentNotFound, s.item, s.paraID, s.chain)
	}

	data, err := scale.NewDecoder(raw).ByteVec()
	if err != nil {
		return nil, fmt.Errorf("malformed %s of para %d on %s: %w", s.item, s.paraID, s.chain, err)
	}

	s.log.Debug("Fetched content from chain",
		slog.String("chain", s.chain),
		slog.Any("para_id", s.paraID),
		slog.String("item", string(s.item)),
		slog.Int("size", len(data)))
	return data, nil
}

// Available reports whether a reader is configured. Reachability is only known by reading.
func (s *ChainSource) Available(ctx context.Context) bool {
	return s.reader != nil
}

// Name returns a unique identifier for this source.
func (s *ChainSource) Name() string {
	return fmt.Sprintf("onchain-%s-%d", s.chain, s.paraID)
}

// LocationURI returns the URI that identifies this source.
func (s *ChainSource) LocationURI() string {
	return fmt.Sprintf("onchain://%s/%d/%s", s.chain, s.paraID, s.item)
}
