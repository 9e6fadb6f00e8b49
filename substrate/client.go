// Package substrate connects to Substrate relay chain nodes over JSON-RPC.
//
// The Client reads storage at the latest finalized block, encodes onboarding
// operations into runtime calls using the chain's own metadata, signs and
// submits extrinsics and watches for their inclusion in a finalized block.
// Transport is go-ethereum's rpc client, which speaks plain JSON-RPC 2.0
// over websocket and HTTP.
package substrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/metadata"
)

// DefaultPollInterval is how often finalized heads are polled while waiting
// for an extrinsic. Relay chains produce a block every six seconds.
const DefaultPollInterval = 3 * time.Second

// ErrNoSigner is returned when a submission is attempted without a signer.
var ErrNoSigner = errors.New("no signer available")

// Client is a connection to one chain node.
type Client struct {
	rpc          *rpc.Client
	chain        interfaces.Chain
	log          *slog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	meta    *metadata.Metadata
	genesis *common.Hash
}

// Dial connects to a node, retrying with exponential backoff up to attempts times.
func Dial(ctx context.Context, url string, chain interfaces.Chain, attempts uint64, log *slog.Logger) (*Client, error) {
	log = log.With("chain", chain.Name, "url", url)

	var client *rpc.Client
	dial := func() error {
		var err error
		client, err = rpc.DialContext(ctx, url)
		return err
	}
	notify := func(err error, next time.Duration) {
		log.Warn("could not connect to node, retrying", "err", err, "retry_in", next)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), attempts), ctx)
	if err := backoff.RetryNotify(dial, policy, notify); err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", interfaces.ErrTransport, url, err)
	}

	log.Debug("connected to node")
	return NewClient(client, chain, log), nil
}

// NewClient wraps an established rpc connection.
func NewClient(client *rpc.Client, chain interfaces.Chain, log *slog.Logger) *Client {
	return &Client{
		rpc:          client,
		chain:        chain,
		log:          log,
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval changes how often finality is polled.
func (c *Client) SetPollInterval(d time.Duration) {
	c.pollInterval = d
}

// Chain returns the chain tag of the node.
func (c *Client) Chain() interfaces.Chain {
	return c.chain
}

// Close terminates the connection.
func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	start := time.Now()
	err := c.rpc.CallContext(ctx, result, method, args...)
	c.log.Debug("rpc call", "method", method, "err", err, slog.Duration("duration", time.Since(start)))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// Metadata returns the runtime metadata, fetched once per client.
func (c *Client) Metadata(ctx context.Context) (*metadata.Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.meta != nil {
		return c.meta, nil
	}

	var raw hexutil.Bytes
	if err := c.call(ctx, &raw, "state_getMetadata"); err != nil {
		return nil, err
	}
	meta, err := metadata.Decode(raw)
	if err != nil {
		return nil, err
	}
	c.meta = meta
	return meta, nil
}

// GenesisHash returns the hash of block zero, fetched once per client.
func (c *Client) GenesisHash(ctx context.Context) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.genesis != nil {
		return *c.genesis, nil
	}

	var hash common.Hash
	if err := c.call(ctx, &hash, "chain_getBlockHash", 0); err != nil {
		return common.Hash{}, err
	}
	c.genesis = &hash
	return hash, nil
}

// RuntimeVersion is the subset of state_getRuntimeVersion used for signing.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// RuntimeVersion returns the version of the current runtime.
func (c *Client) RuntimeVersion(ctx context.Context) (*RuntimeVersion, error) {
	var v RuntimeVersion
	if err := c.call(ctx, &v, "state_getRuntimeVersion"); err != nil {
		return nil, err
	}
	return &v, nil
}

// AccountNextIndex returns the next nonce of account, including pending pool transactions.
func (c *Client) AccountNextIndex(ctx context.Context, account string) (uint64, error) {
	var nonce uint64
	if err := c.call(ctx, &nonce, "system_accountNextIndex", account); err != nil {
		return 0, err
	}
	return nonce, nil
}

// blockNumber decodes the hex quantities used in Substrate headers.
type blockNumber uint64

func (n *blockNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid block number %s: %w", b, err)
	}
	*n = blockNumber(v)
	return nil
}

type header struct {
	ParentHash common.Hash `json:"parentHash"`
	Number     blockNumber `json:"number"`
}

type signedBlock struct {
	Block struct {
		Header     header          `json:"header"`
		Extrinsics []hexutil.Bytes `json:"extrinsics"`
	} `json:"block"`
}

// FinalizedHead returns the hash and number of the latest finalized block.
func (c *Client) FinalizedHead(ctx context.Context) (common.Hash, uint64, error) {
	var hash common.Hash
	if err := c.call(ctx, &hash, "chain_getFinalizedHead"); err != nil {
		return common.Hash{}, 0, err
	}

	var h header
	if err := c.call(ctx, &h, "chain_getHeader", hash); err != nil {
		return common.Hash{}, 0, err
	}
	return hash, uint64(h.Number), nil
}

func (c *Client) blockHash(ctx context.Context, number uint64) (common.Hash, error) {
	var hash *common.Hash
	if err := c.call(ctx, &hash, "chain_getBlockHash", number); err != nil {
		return common.Hash{}, err
	}
	if hash == nil {
		return common.Hash{}, fmt.Errorf("block %d not found", number)
	}
	return *hash, nil
}

func (c *Client) block(ctx context.Context, hash common.Hash) (*signedBlock, error) {
	var b *signedBlock
	if err := c.call(ctx, &b, "chain_getBlock", hash); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("block %s not found", hash)
	}
	return b, nil
}
