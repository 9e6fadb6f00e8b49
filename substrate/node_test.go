package substrate

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/metadata/metadatatest"
	"github.com/stretchr/testify/require"
)

var errDropped = errors.New("dropped by test node")

// submitHook decides what happens to a submitted extrinsic. Returning
// errDropped accepts it into the pool but never includes it; any other error
// rejects it.
type submitHook func(xt []byte) ([]metadatatest.EventRecord, error)

type fakeBlock struct {
	hash       common.Hash
	extrinsics [][]byte
	events     []byte
}

// fakeNode is an in-process relay chain node that finalizes every accepted
// extrinsic in a new block at index 1, behind a timestamp inherent.
type fakeNode struct {
	mu        sync.Mutex
	relay     *metadatatest.Relay
	blocks    []fakeBlock
	storage   map[string][]byte
	nonce     uint64
	submitted [][]byte
	onSubmit  submitHook
}

func newFakeNode(relay *metadatatest.Relay) *fakeNode {
	n := &fakeNode{relay: relay, storage: map[string][]byte{}}
	n.appendBlock(nil, nil)
	return n
}

func blockHashOf(number int) common.Hash {
	var h common.Hash
	h[0] = 0xbb
	h[31] = byte(number)
	h[30] = byte(number >> 8)
	return h
}

func (n *fakeNode) appendBlock(extrinsics [][]byte, events []byte) {
	n.blocks = append(n.blocks, fakeBlock{
		hash:       blockHashOf(len(n.blocks)),
		extrinsics: extrinsics,
		events:     events,
	})
}

// includeDropped finalizes the last extrinsic the hook dropped.
func (n *fakeNode) includeDropped(records ...metadatatest.EventRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	xt := n.submitted[len(n.submitted)-1]
	n.nonce++
	n.appendBlock([][]byte{{0x04, 0x00}, xt}, metadatatest.EncodeEvents(records...))
}

func (n *fakeNode) setStorage(key []byte, value []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.storage[string(key)] = value
}

func (n *fakeNode) findBlock(hash common.Hash) (int, bool) {
	for i, b := range n.blocks {
		if b.hash == hash {
			return i, true
		}
	}
	return 0, false
}

type rpcHeader struct {
	ParentHash common.Hash `json:"parentHash"`
	Number     string      `json:"number"`
}

type rpcBlock struct {
	Block struct {
		Header     rpcHeader       `json:"header"`
		Extrinsics []hexutil.Bytes `json:"extrinsics"`
	} `json:"block"`
}

type chainAPI struct{ n *fakeNode }

func (a *chainAPI) GetBlockHash(number uint64) *common.Hash {
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	if number >= uint64(len(a.n.blocks)) {
		return nil
	}
	h := a.n.blocks[number].hash
	return &h
}

func (a *chainAPI) GetFinalizedHead() common.Hash {
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	return a.n.blocks[len(a.n.blocks)-1].hash
}

func (a *chainAPI) GetHeader(hash common.Hash) (*rpcHeader, error) {
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	i, ok := a.n.findBlock(hash)
	if !ok {
		return nil, nil
	}
	return &rpcHeader{Number: hexutil.EncodeUint64(uint64(i))}, nil
}

func (a *chainAPI) GetBlock(hash common.Hash) (*rpcBlock, error) {
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	i, ok := a.n.findBlock(hash)
	if !ok {
		return nil, nil
	}
	b := &rpcBlock{}
	b.Block.Header.Number = hexutil.EncodeUint64(uint64(i))
	for _, xt := range a.n.blocks[i].extrinsics {
		b.Block.Extrinsics = append(b.Block.Extrinsics, xt)
	}
	return b, nil
}

type stateAPI struct{ n *fakeNode }

func (a *stateAPI) GetMetadata() hexutil.Bytes {
	return a.n.relay.Raw
}

func (a *stateAPI) GetRuntimeVersion() RuntimeVersion {
	return RuntimeVersion{SpecName: "rococo", SpecVersion: 1_014_000, TransactionVersion: 26}
}

func (a *stateAPI) GetStorage(key hexutil.Bytes, at common.Hash) *hexutil.Bytes {
	a.n.mu.Lock()
	defer a.n.mu.Unlock()

	if string(key) == string(systemEventsKey) {
		i, ok := a.n.findBlock(at)
		if !ok || a.n.blocks[i].events == nil {
			return nil
		}
		v := hexutil.Bytes(a.n.blocks[i].events)
		return &v
	}

	v, ok := a.n.storage[string(key)]
	if !ok {
		return nil
	}
	out := hexutil.Bytes(v)
	return &out
}

type systemAPI struct{ n *fakeNode }

func (a *systemAPI) AccountNextIndex(address string) uint64 {
	a.n.mu.Lock()
	defer a.n.mu.Unlock()
	return a.n.nonce
}

type authorAPI struct{ n *fakeNode }

func (a *authorAPI) SubmitExtrinsic(xt hexutil.Bytes) (common.Hash, error) {
	a.n.mu.Lock()
	defer a.n.mu.Unlock()

	var records []metadatatest.EventRecord
	if a.n.onSubmit != nil {
		var err error
		records, err = a.n.onSubmit(xt)
		if errors.Is(err, errDropped) {
			a.n.submitted = append(a.n.submitted, xt)
			return common.Hash{0x01}, nil
		}
		if err != nil {
			return common.Hash{}, err
		}
	}

	a.n.submitted = append(a.n.submitted, xt)
	a.n.nonce++
	// empty block, so inclusion is not found in the first block scanned
	a.n.appendBlock([][]byte{{0x04, 0x00}}, nil)
	a.n.appendBlock([][]byte{{0x04, 0x00}, xt}, metadatatest.EncodeEvents(records...))
	return common.Hash{0x01}, nil
}

var systemEventsKey = mustKey(StorageKey("System", "Events", nil))

func mustKey(k []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return k
}

// startNode serves n over an in-process rpc connection.
func startNode(t *testing.T, n *fakeNode) *Client {
	t.Helper()

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("chain", &chainAPI{n}))
	require.NoError(t, server.RegisterName("state", &stateAPI{n}))
	require.NoError(t, server.RegisterName("system", &systemAPI{n}))
	require.NoError(t, server.RegisterName("author", &authorAPI{n}))
	t.Cleanup(server.Stop)

	client := NewClient(rpc.DialInProc(server), interfaces.Rococo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.SetPollInterval(5 * time.Millisecond)
	t.Cleanup(client.Close)
	return client
}
