package interfaces

import "context"

// ChainState answers point-in-time questions about one chain, read at its
// latest finalized block. Every failure wraps ErrQueryFailed.
type ChainState interface {
	// Chain returns the tag of the chain this handle reads from.
	Chain() Chain

	// HasLease reports whether the para currently holds a slot lease.
	HasLease(ctx context.Context, id ParaID) (bool, error)

	// Lifecycle returns the registration lifecycle of the para.
	Lifecycle(ctx context.Context, id ParaID) (Lifecycle, error)

	// NextFreeParaID returns the id the next reservation would receive.
	NextFreeParaID(ctx context.Context) (ParaID, error)

	// IsRegistered reports whether the registrar holds an entry (reservation or registration) for the para.
	IsRegistered(ctx context.Context, id ParaID) (bool, error)
}

// Signer is a signing identity for extrinsics.
type Signer interface {
	// AccountID returns the on-chain account of the signer.
	AccountID() AccountID

	// Sign returns a MultiSignature-encoded signature over payload
	// (variant byte followed by the raw signature).
	Sign(payload []byte) ([]byte, error)
}

// Credentials bundles what is needed to dispatch privileged operations.
type Credentials struct {
	// Signer signs the outer extrinsic.
	Signer Signer

	// Authority is the privileged (sudo) account. When it differs from the
	// signer's account, the signer acts as its proxy.
	Authority AccountID
}

// CredentialProvider supplies credentials at the moment they are needed.
type CredentialProvider interface {
	Credentials(ctx context.Context) (*Credentials, error)
}

// DispatchResult is the Result<(), DispatchError> carried by some events.
type DispatchResult struct {
	Ok    bool
	Error string
}

// Event is a decoded runtime event emitted by a submitted extrinsic.
type Event struct {
	Pallet string
	Name   string

	// Result is set for events that report the outcome of a nested dispatch.
	Result *DispatchResult
}

// FullName returns "Pallet.Name".
func (e Event) FullName() string {
	return e.Pallet + "." + e.Name
}

// Receipt describes a transaction included in a finalized block.
type Receipt struct {
	TxHash         string
	BlockHash      string
	BlockNumber    uint64
	ExtrinsicIndex uint32
	Events         []Event
}
