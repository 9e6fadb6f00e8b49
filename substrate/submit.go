package substrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"golang.org/x/time/rate"
)

type inclusion struct {
	blockHash   common.Hash
	blockNumber uint64
	index       uint32
}

// SubmitAndWatch signs op with signer, submits it and blocks until it is
// included in a finalized block or ctx ends. The receipt lists the events
// emitted by the extrinsic; interpreting them is left to the caller.
func (c *Client) SubmitAndWatch(ctx context.Context, op interfaces.Operation, signer interfaces.Signer) (*interfaces.Receipt, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}

	xt, err := c.prepare(ctx, op, signer)
	if err != nil {
		return nil, err
	}

	_, startNumber, err := c.FinalizedHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrTransport, err)
	}

	var txHash common.Hash
	if err := c.call(ctx, &txHash, "author_submitExtrinsic", hexutil.Bytes(xt)); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrRejected, err)
		}
		return nil, fmt.Errorf("%w: %v", interfaces.ErrTransport, err)
	}
	c.log.Info("extrinsic submitted", "tx_hash", txHash.Hex(), "finalized_at_submit", startNumber)

	found, err := c.awaitFinalized(ctx, xt, startNumber+1)
	if err != nil {
		return nil, err
	}
	c.log.Info("extrinsic finalized", "tx_hash", txHash.Hex(), "block", found.blockNumber, "block_hash", found.blockHash.Hex(), "index", found.index)

	events, err := c.extrinsicEvents(ctx, found.blockHash, found.index)
	if err != nil {
		return nil, fmt.Errorf("%w: reading events of finalized extrinsic: %v", interfaces.ErrTransport, err)
	}

	return &interfaces.Receipt{
		TxHash:         txHash.Hex(),
		BlockHash:      found.blockHash.Hex(),
		BlockNumber:    found.blockNumber,
		ExtrinsicIndex: found.index,
		Events:         events,
	}, nil
}

// prepare gathers the signing context and builds the signed extrinsic.
func (c *Client) prepare(ctx context.Context, op interfaces.Operation, signer interfaces.Signer) ([]byte, error) {
	meta, err := c.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrTransport, err)
	}

	call, err := EncodeCall(meta, op)
	if err != nil {
		return nil, fmt.Errorf("encode call: %w", err)
	}

	version, err := c.RuntimeVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrTransport, err)
	}
	genesis, err := c.GenesisHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrTransport, err)
	}
	address, err := cryptoutils.SS58Encode(signer.AccountID(), c.chain.SS58Format)
	if err != nil {
		return nil, err
	}
	nonce, err := c.AccountNextIndex(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrTransport, err)
	}

	c.log.Debug("signing extrinsic",
		"signer", address,
		"nonce", nonce,
		"spec_version", version.SpecVersion,
		"call_size", len(call),
	)

	return buildSignedExtrinsic(signingContext{
		meta:               meta,
		specVersion:        version.SpecVersion,
		transactionVersion: version.TransactionVersion,
		genesis:            genesis,
		nonce:              nonce,
	}, signer, call)
}

// awaitFinalized scans finalized blocks from number next onwards until xt is
// found. Polling errors are logged and retried until ctx ends, since the
// extrinsic is already in flight.
func (c *Client) awaitFinalized(ctx context.Context, xt []byte, next uint64) (*inclusion, error) {
	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	start := time.Now()

	for {
		if err := limiter.Wait(ctx); err != nil {
			// Wait gives up early when the next poll would land past the
			// deadline.
			if ctx.Err() == nil {
				if found := c.finalPoll(ctx, xt, next); found != nil {
					return found, nil
				}
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, fmt.Errorf("%w: %v", interfaces.ErrTransport, context.Canceled)
			}
			return nil, fmt.Errorf("%w after %s", interfaces.ErrFinalityTimeout, time.Since(start).Round(time.Second))
		}

		var found *inclusion
		if found, next = c.scanFinalized(ctx, xt, next); found != nil {
			return found, nil
		}
		c.log.Debug("waiting for finality", "next_block", next, slog.Duration("elapsed", time.Since(start)))
	}
}

// finalPollLead is how long before the deadline the last poll starts, at most.
const finalPollLead = time.Second

// finalPoll scans once more shortly before ctx's deadline and, when xt is
// still not finalized, returns only once ctx has ended.
func (c *Client) finalPoll(ctx context.Context, xt []byte, next uint64) *inclusion {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		timer := time.NewTimer(remaining - min(remaining/10, finalPollLead))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}

	if found, _ := c.scanFinalized(ctx, xt, next); found != nil {
		return found
	}
	<-ctx.Done()
	return nil
}

// scanFinalized looks for xt in the finalized blocks from next onwards and
// returns the first block number still to scan.
func (c *Client) scanFinalized(ctx context.Context, xt []byte, next uint64) (*inclusion, uint64) {
	_, finalized, err := c.FinalizedHead(ctx)
	if err != nil {
		c.log.Warn("polling finalized head failed", "err", err)
		return nil, next
	}

	for ; next <= finalized; next++ {
		found, err := c.findExtrinsic(ctx, next, xt)
		if err != nil {
			c.log.Warn("reading finalized block failed", "block", next, "err", err)
			return nil, next
		}
		if found != nil {
			return found, next
		}
	}
	return nil, next
}

func (c *Client) findExtrinsic(ctx context.Context, number uint64, xt []byte) (*inclusion, error) {
	hash, err := c.blockHash(ctx, number)
	if err != nil {
		return nil, err
	}
	block, err := c.block(ctx, hash)
	if err != nil {
		return nil, err
	}

	for i, candidate := range block.Block.Extrinsics {
		if bytes.Equal(candidate, xt) {
			return &inclusion{blockHash: hash, blockNumber: number, index: uint32(i)}, nil
		}
	}
	return nil, nil
}
