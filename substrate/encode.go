package substrate

import (
	"fmt"

	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/metadata"
	"github.com/paritytech/subport/scale"
)

// schedulePriority is the Scheduler priority of onboarding calls (0 is highest).
const schedulePriority uint8 = 0

// callEncoder encodes operation trees into runtime calls, resolving pallet
// and call indices from metadata.
type callEncoder struct {
	meta *metadata.Metadata
}

// EncodeCall returns the SCALE-encoded RuntimeCall for op.
func EncodeCall(meta *metadata.Metadata, op interfaces.Operation) ([]byte, error) {
	e := scale.NewEncoder()
	if err := (callEncoder{meta: meta}).encode(e, op); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func (c callEncoder) header(e *scale.Encoder, pallet, call string, args int) (*metadata.Variant, error) {
	palletIndex, variant, err := c.meta.Call(pallet, call)
	if err != nil {
		return nil, err
	}
	if len(variant.Fields) != args {
		return nil, fmt.Errorf("%s.%s: runtime expects %d arguments, encoder provides %d", pallet, call, len(variant.Fields), args)
	}
	e.U8(palletIndex).U8(variant.Index)
	return variant, nil
}

func (c callEncoder) encode(e *scale.Encoder, op interfaces.Operation) error {
	switch o := op.(type) {
	case interfaces.ForceTransfer:
		v, err := c.header(e, "Balances", "force_transfer", 3)
		if err != nil {
			return err
		}
		if err := c.account(e, v.Fields[0].Type, o.Source); err != nil {
			return err
		}
		if err := c.account(e, v.Fields[1].Type, o.Dest); err != nil {
			return err
		}
		e.CompactBig(o.Amount)

	case interfaces.ForceRegister:
		if _, err := c.header(e, "Registrar", "force_register", 5); err != nil {
			return err
		}
		e.Raw(o.Manager[:]).U128(o.Deposit).U32(uint32(o.ParaID)).ByteVec(o.GenesisHead).ByteVec(o.ValidationCode)

	case interfaces.ReserveParaID:
		v, err := c.header(e, "Utility", "dispatch_as", 2)
		if err != nil {
			return err
		}
		if err := c.signedOrigin(e, v.Fields[0].Type, o.Manager); err != nil {
			return err
		}
		if _, err := c.header(e, "Registrar", "reserve", 0); err != nil {
			return err
		}

	case interfaces.AssignSlot:
		if o.Kind == interfaces.PermanentSlot {
			if _, err := c.header(e, "AssignedSlots", "assign_perm_parachain_slot", 1); err != nil {
				return err
			}
			e.U32(uint32(o.ParaID))
			return nil
		}
		v, err := c.header(e, "AssignedSlots", "assign_temp_parachain_slot", 2)
		if err != nil {
			return err
		}
		start, err := c.meta.VariantByName(v.Fields[1].Type, "Current")
		if err != nil {
			return err
		}
		e.U32(uint32(o.ParaID)).U8(start.Index)

	case interfaces.RemoveLock:
		if _, err := c.header(e, "Registrar", "remove_lock", 1); err != nil {
			return err
		}
		e.U32(uint32(o.ParaID))

	case interfaces.Schedule:
		if _, err := c.header(e, "Scheduler", "schedule_after", 4); err != nil {
			return err
		}
		e.U32(o.After).None().U8(schedulePriority)
		return c.encode(e, o.Call)

	case interfaces.Batch:
		if _, err := c.header(e, "Utility", "batch_all", 1); err != nil {
			return err
		}
		e.Compact(uint64(len(o.Calls)))
		for _, call := range o.Calls {
			if err := c.encode(e, call); err != nil {
				return err
			}
		}

	case interfaces.Sudo:
		if _, err := c.header(e, "Sudo", "sudo", 1); err != nil {
			return err
		}
		return c.encode(e, o.Call)

	case interfaces.Proxy:
		v, err := c.header(e, "Proxy", "proxy", 3)
		if err != nil {
			return err
		}
		if err := c.account(e, v.Fields[0].Type, o.Real); err != nil {
			return err
		}
		e.None() // force_proxy_type
		return c.encode(e, o.Call)

	default:
		return fmt.Errorf("unsupported operation %T", op)
	}
	return nil
}

// account encodes an account argument, which is either a plain AccountId32
// or a MultiAddress depending on the runtime.
func (c callEncoder) account(e *scale.Encoder, ty metadata.TypeID, account interfaces.AccountID) error {
	t, err := c.meta.Type(ty)
	if err != nil {
		return err
	}
	if t.Kind == metadata.KindVariant {
		id, err := c.meta.VariantByName(ty, "Id")
		if err != nil {
			return err
		}
		e.U8(id.Index)
	}
	e.Raw(account[:])
	return nil
}

// signedOrigin encodes OriginCaller::system(RawOrigin::Signed(account)).
func (c callEncoder) signedOrigin(e *scale.Encoder, originCaller metadata.TypeID, account interfaces.AccountID) error {
	system, err := c.meta.VariantByName(originCaller, "system")
	if err != nil {
		return err
	}
	if len(system.Fields) != 1 {
		return fmt.Errorf("unexpected OriginCaller::system shape")
	}
	signed, err := c.meta.VariantByName(system.Fields[0].Type, "Signed")
	if err != nil {
		return err
	}
	e.U8(system.Index).U8(signed.Index).Raw(account[:])
	return nil
}
