package substrate

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ReadStorage reads pallet.item at the latest finalized block. It returns
// nil for absent entries and fails when the runtime lacks the item.
func (c *Client) ReadStorage(ctx context.Context, pallet, item string, keys ...[]byte) ([]byte, error) {
	key, err := c.storageKey(ctx, pallet, item, keys...)
	if err != nil {
		return nil, err
	}

	head, _, err := c.FinalizedHead(ctx)
	if err != nil {
		return nil, err
	}
	return c.storageAt(ctx, key, head)
}

func (c *Client) storageKey(ctx context.Context, pallet, item string, keys ...[]byte) ([]byte, error) {
	meta, err := c.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	p, err := meta.PalletByName(pallet)
	if err != nil {
		return nil, err
	}
	entry, err := meta.StorageEntry(pallet, item)
	if err != nil {
		return nil, err
	}
	return StorageKey(p.StoragePrefix, item, entry.Hashers, keys...)
}

func (c *Client) storageAt(ctx context.Context, key []byte, at common.Hash) ([]byte, error) {
	var raw *hexutil.Bytes
	if err := c.call(ctx, &raw, "state_getStorage", hexutil.Bytes(key), at); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return *raw, nil
}
