// Package calls builds the privileged operation trees submitted during
// parachain onboarding. Constructors are pure: they never perform I/O and
// copy their byte payloads, so a built tree is never affected by later
// changes to the caller's buffers.
package calls

import (
	"bytes"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/paritytech/subport/interfaces"
)

const (
	// SlotAssignmentDelay is the number of blocks after which a scheduled
	// slot assignment executes: roughly two lease epochs plus a safety margin.
	SlotAssignmentDelay uint32 = 1205

	// RemoveLockDelay is always double SlotAssignmentDelay, so the manager
	// lock is lifted strictly after the slot assignment is live.
	RemoveLockDelay = 2 * SlotAssignmentDelay

	// MaxSlotDelay is the largest slot assignment delay whose lock removal
	// delay still fits a block number.
	MaxSlotDelay uint32 = math.MaxUint32 / 2
)

// ForceTransfer moves amount from source to dest with root authority.
func ForceTransfer(source, dest interfaces.AccountID, amount *big.Int) interfaces.ForceTransfer {
	return interfaces.ForceTransfer{Source: source, Dest: dest, Amount: new(big.Int).Set(amount)}
}

// RegisterParachain registers id for manager with the given genesis head and validation code.
func RegisterParachain(manager interfaces.AccountID, deposit *big.Int, id interfaces.ParaID, genesisHead, validationCode []byte) interfaces.ForceRegister {
	return interfaces.ForceRegister{
		Manager:        manager,
		Deposit:        new(big.Int).Set(deposit),
		ParaID:         id,
		GenesisHead:    bytes.Clone(genesisHead),
		ValidationCode: bytes.Clone(validationCode),
	}
}

// ReserveParaID reserves the next free para id for manager.
func ReserveParaID(manager interfaces.AccountID) interfaces.ReserveParaID {
	return interfaces.ReserveParaID{Manager: manager}
}

// ScheduleSlotAssignment assigns a slot of the given kind SlotAssignmentDelay blocks from now.
func ScheduleSlotAssignment(id interfaces.ParaID, kind interfaces.SlotKind) interfaces.Schedule {
	return ScheduleSlotAssignmentAfter(id, kind, SlotAssignmentDelay)
}

// ScheduleSlotAssignmentAfter is ScheduleSlotAssignment with an explicit delay.
func ScheduleSlotAssignmentAfter(id interfaces.ParaID, kind interfaces.SlotKind, delay uint32) interfaces.Schedule {
	return interfaces.Schedule{After: delay, Call: interfaces.AssignSlot{ParaID: id, Kind: kind}}
}

// ScheduleRemoveLock lifts the manager lock RemoveLockDelay blocks from now.
func ScheduleRemoveLock(id interfaces.ParaID) interfaces.Schedule {
	return ScheduleRemoveLockAfter(id, SlotAssignmentDelay)
}

// ScheduleRemoveLockAfter schedules the lock removal at twice slotDelay.
// Delays above MaxSlotDelay are clamped to it.
func ScheduleRemoveLockAfter(id interfaces.ParaID, slotDelay uint32) interfaces.Schedule {
	return interfaces.Schedule{After: 2 * min(slotDelay, MaxSlotDelay), Call: interfaces.RemoveLock{ParaID: id}}
}

// Batch groups ops into one atomic, ordered operation.
func Batch(ops ...interfaces.Operation) interfaces.Batch {
	return interfaces.Batch{Calls: append([]interfaces.Operation(nil), ops...)}
}

// WrapPrivileged marks op as requiring root authority. When the signer is the
// authority itself, op is wrapped in Sudo. Otherwise the signer acts as a
// proxy of the authority and the Sudo call is nested in a Proxy call.
func WrapPrivileged(op interfaces.Operation, signer, authority interfaces.AccountID) interfaces.Operation {
	sudo := interfaces.Sudo{Call: op}
	if signer == authority {
		return sudo
	}
	return interfaces.Proxy{Real: authority, Call: sudo}
}

// ParsePayload turns loaded content into call bytes. Text starting with 0x is
// decoded as hex and surrounding whitespace is ignored; anything else (such
// as a raw wasm blob) is returned unchanged.
func ParsePayload(content []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(content)
	if !bytes.HasPrefix(trimmed, []byte("0x")) && !bytes.HasPrefix(trimmed, []byte("0X")) {
		return bytes.Clone(content), nil
	}

	decoded, err := hexutil.Decode("0x" + string(trimmed[2:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidHex, err)
	}
	return decoded, nil
}
