package interfaces

import "math/big"

// Operation is one node of an immutable tree of privileged runtime calls.
// Trees are built bottom-up by the calls package and never mutated.
type Operation interface {
	// Method returns the runtime call path, e.g. "Registrar.force_register".
	Method() string

	isOperation()
}

// ForceTransfer moves funds between two accounts with root authority.
type ForceTransfer struct {
	Source AccountID
	Dest   AccountID
	Amount *big.Int
}

// ForceRegister registers a parachain on behalf of its manager.
type ForceRegister struct {
	Manager        AccountID
	Deposit        *big.Int
	ParaID         ParaID
	GenesisHead    []byte
	ValidationCode []byte
}

// ReserveParaID reserves the next free para id, dispatched with the manager as origin.
type ReserveParaID struct {
	Manager AccountID
}

// AssignSlot assigns a temporary or permanent slot to a registered parachain.
type AssignSlot struct {
	ParaID ParaID
	Kind   SlotKind
}

// RemoveLock lifts the manager lock from a parachain registration.
type RemoveLock struct {
	ParaID ParaID
}

// Schedule executes Call After blocks from inclusion.
type Schedule struct {
	After uint32
	Call  Operation
}

// Batch dispatches Calls in order, atomically.
type Batch struct {
	Calls []Operation
}

// Sudo dispatches Call with root origin.
type Sudo struct {
	Call Operation
}

// Proxy dispatches Call on behalf of Real by a pre-authorized delegate.
type Proxy struct {
	Real AccountID
	Call Operation
}

func (ForceTransfer) Method() string { return "Balances.force_transfer" }
func (ForceRegister) Method() string { return "Registrar.force_register" }
func (ReserveParaID) Method() string { return "Utility.dispatch_as(Registrar.reserve)" }
func (RemoveLock) Method() string    { return "Registrar.remove_lock" }
func (Schedule) Method() string      { return "Scheduler.schedule_after" }
func (Batch) Method() string         { return "Utility.batch_all" }
func (Sudo) Method() string          { return "Sudo.sudo" }
func (Proxy) Method() string         { return "Proxy.proxy" }

func (a AssignSlot) Method() string {
	if a.Kind == PermanentSlot {
		return "AssignedSlots.assign_perm_parachain_slot"
	}
	return "AssignedSlots.assign_temp_parachain_slot"
}

func (ForceTransfer) isOperation() {}
func (ForceRegister) isOperation() {}
func (ReserveParaID) isOperation() {}
func (AssignSlot) isOperation()    {}
func (RemoveLock) isOperation()    {}
func (Schedule) isOperation()      {}
func (Batch) isOperation()         {}
func (Sudo) isOperation()          {}
func (Proxy) isOperation()         {}
