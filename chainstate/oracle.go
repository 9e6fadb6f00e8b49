// Package chainstate answers the onboarding workflow's questions about a
// relay chain: whether a para holds a lease, where it is in its registration
// lifecycle and which para id the registrar hands out next.
//
// Every read happens at the latest finalized block and every failure is
// reported as interfaces.ErrQueryFailed. An unreadable value is never
// treated as "absent".
package chainstate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/scale"
)

// LowestPublicID is the smallest para id the registrar hands out to public reservations.
const LowestPublicID interfaces.ParaID = 2000

// StorageReader reads raw storage values from a chain's latest finalized state.
type StorageReader interface {
	// ReadStorage returns the SCALE-encoded value of pallet.item under the
	// given SCALE-encoded map keys, or nil when the entry is absent. It fails
	// when the runtime has no such storage item.
	ReadStorage(ctx context.Context, pallet, item string, keys ...[]byte) ([]byte, error)
}

// Oracle implements interfaces.ChainState over a StorageReader.
type Oracle struct {
	chain  interfaces.Chain
	reader StorageReader
	log    *slog.Logger
}

// NewOracle creates an oracle for chain.
func NewOracle(chain interfaces.Chain, reader StorageReader, log *slog.Logger) *Oracle {
	return &Oracle{
		chain:  chain,
		reader: reader,
		log:    log.With("chain", chain.Name),
	}
}

// Chain returns the chain tag of this oracle.
func (o *Oracle) Chain() interfaces.Chain {
	return o.chain
}

func paraKey(id interfaces.ParaID) []byte {
	return scale.NewEncoder().U32(uint32(id)).Bytes()
}

func (o *Oracle) read(ctx context.Context, pallet, item string, keys ...[]byte) ([]byte, error) {
	start := time.Now()
	raw, err := o.reader.ReadStorage(ctx, pallet, item, keys...)
	if err != nil {
		o.log.Warn("storage read failed", "item", pallet+"."+item, "err", err)
		return nil, fmt.Errorf("%w: %s %s.%s: %v", interfaces.ErrQueryFailed, o.chain.Name, pallet, item, err)
	}
	o.log.Debug("storage read", "item", pallet+"."+item, "present", raw != nil, slog.Duration("duration", time.Since(start)))
	return raw, nil
}

func (o *Oracle) decodeFailed(item string, err error) error {
	return fmt.Errorf("%w: %s %s: decode: %v", interfaces.ErrQueryFailed, o.chain.Name, item, err)
}

// HasLease reports whether Slots.Leases holds any entry for id. Leading
// empty entries mark lease periods that start in the future and count as a lease.
func (o *Oracle) HasLease(ctx context.Context, id interfaces.ParaID) (bool, error) {
	raw, err := o.read(ctx, "Slots", "Leases", paraKey(id))
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}

	n, err := scale.NewDecoder(raw).CompactU32()
	if err != nil {
		return false, o.decodeFailed("Slots.Leases", err)
	}
	return n > 0, nil
}

// Lifecycle returns Paras.ParaLifecycles for id, Unregistered when absent.
func (o *Oracle) Lifecycle(ctx context.Context, id interfaces.ParaID) (interfaces.Lifecycle, error) {
	raw, err := o.read(ctx, "Paras", "ParaLifecycles", paraKey(id))
	if err != nil {
		return interfaces.Unregistered, err
	}
	if raw == nil {
		return interfaces.Unregistered, nil
	}
	if len(raw) != 1 {
		return interfaces.Unregistered, o.decodeFailed("Paras.ParaLifecycles", fmt.Errorf("unexpected length %d", len(raw)))
	}

	lifecycle, err := interfaces.LifecycleFromIndex(raw[0])
	if err != nil {
		return interfaces.Unregistered, o.decodeFailed("Paras.ParaLifecycles", err)
	}
	return lifecycle, nil
}

// NextFreeParaID returns the id the next Registrar.reserve call would assign.
func (o *Oracle) NextFreeParaID(ctx context.Context) (interfaces.ParaID, error) {
	raw, err := o.read(ctx, "Registrar", "NextFreeParaId")
	if err != nil {
		return 0, err
	}

	var next uint32
	if raw != nil {
		d := scale.NewDecoder(raw)
		if next, err = d.U32(); err != nil {
			return 0, o.decodeFailed("Registrar.NextFreeParaId", err)
		}
		if d.Remaining() != 0 {
			return 0, o.decodeFailed("Registrar.NextFreeParaId", fmt.Errorf("%d trailing bytes", d.Remaining()))
		}
	}

	return max(interfaces.ParaID(next), LowestPublicID), nil
}

// IsRegistered reports whether Registrar.Paras holds an entry for id. A
// reserved but not yet registered id has an entry too.
func (o *Oracle) IsRegistered(ctx context.Context, id interfaces.ParaID) (bool, error) {
	raw, err := o.read(ctx, "Registrar", "Paras", paraKey(id))
	if err != nil {
		return false, err
	}
	return raw != nil, nil
}

var _ interfaces.ChainState = (*Oracle)(nil)
