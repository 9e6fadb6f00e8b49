package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ParaID identifies a parachain slot on a relay chain.
type ParaID uint32

// ParseParaID parses a decimal parachain identifier.
func ParseParaID(s string) (ParaID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid para id %q: %w", s, err)
	}
	return ParaID(v), nil
}

// String returns the decimal representation.
func (id ParaID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// AccountID is a 32-byte account identifier (a public key or a value derived from one).
type AccountID [32]byte

// NewAccountIDFromBytes creates an account identifier from a raw 32-byte buffer.
func NewAccountIDFromBytes(b []byte) (AccountID, error) {
	if len(b) != 32 {
		return AccountID{}, fmt.Errorf("%w: account id must be 32 bytes, got %d", ErrInvalidKeyMaterial, len(b))
	}

	var res AccountID
	copy(res[:], b)
	return res, nil
}

// NewAccountIDFromHex creates an account identifier from a 0x-prefixed or bare hex string.
func NewAccountIDFromHex(s string) (AccountID, error) {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 64 {
		return AccountID{}, fmt.Errorf("%w: hex account id must be 64 characters", ErrInvalidKeyMaterial)
	}

	b, err := hex.DecodeString(clean)
	if err != nil {
		return AccountID{}, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return NewAccountIDFromBytes(b)
}

// String returns the 0x-prefixed hex representation.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns the raw 32 bytes.
func (a AccountID) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the account is unset.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// Chain tags a relay chain. Accounts render differently per chain, and the
// workflow keeps separate ChainState handles per tag.
type Chain struct {
	Name       string
	SS58Format uint16
}

var (
	Rococo   = Chain{Name: "rococo", SS58Format: 42}
	Polkadot = Chain{Name: "polkadot", SS58Format: 0}
	Kusama   = Chain{Name: "kusama", SS58Format: 2}
)

func (c Chain) String() string {
	return c.Name
}

// Lifecycle is the registration lifecycle of a parachain on the relay chain.
// The numeric values after Unregistered follow the runtime's ParaLifecycle
// encoding shifted by one.
type Lifecycle int

const (
	Unregistered Lifecycle = iota
	LifecycleOnboarding
	LifecycleParathread
	LifecycleParachain
	LifecycleUpgradingParathread
	LifecycleDowngradingParachain
	LifecycleOffboardingParathread
	LifecycleOffboardingParachain
)

var errUnknownLifecycle = errors.New("unknown para lifecycle")

// LifecycleFromIndex maps a SCALE-encoded ParaLifecycle variant index.
func LifecycleFromIndex(idx byte) (Lifecycle, error) {
	if int(idx) > int(LifecycleOffboardingParachain-1) {
		return Unregistered, fmt.Errorf("%w: variant %d", errUnknownLifecycle, idx)
	}
	return Lifecycle(idx) + 1, nil
}

// IsRegistered reports whether the para is known to the runtime at all.
func (l Lifecycle) IsRegistered() bool {
	return l != Unregistered
}

func (l Lifecycle) String() string {
	switch l {
	case Unregistered:
		return "unregistered"
	case LifecycleOnboarding:
		return "onboarding"
	case LifecycleParathread:
		return "parathread"
	case LifecycleParachain:
		return "parachain"
	case LifecycleUpgradingParathread:
		return "upgrading-parathread"
	case LifecycleDowngradingParachain:
		return "downgrading-parachain"
	case LifecycleOffboardingParathread:
		return "offboarding-parathread"
	case LifecycleOffboardingParachain:
		return "offboarding-parachain"
	default:
		return "unknown"
	}
}

// SlotKind selects the slot assignment flavour.
type SlotKind int

const (
	// TemporarySlot is assigned for a limited number of lease periods.
	TemporarySlot SlotKind = iota
	// PermanentSlot is reserved for parachains already live on a production relay chain.
	PermanentSlot
)

func (k SlotKind) String() string {
	if k == PermanentSlot {
		return "permanent"
	}
	return "temporary"
}

// Balance amounts are plancks, the smallest indivisible unit.
type Balance = *big.Int

// ParseBalance parses a decimal planck amount. Underscores are accepted as digit separators.
func ParseBalance(s string) (Balance, error) {
	v, ok := new(big.Int).SetString(strings.ReplaceAll(strings.TrimSpace(s), "_", ""), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid balance %q", s)
	}
	return v, nil
}
