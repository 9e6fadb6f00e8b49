package cryptoutils

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/paritytech/subport/interfaces"
)

func TestSovereignAccountProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("derivation is deterministic", prop.ForAll(
		func(id uint32) bool {
			a, errA := SovereignAccount(interfaces.ParaID(id))
			b, errB := SovereignAccount(interfaces.ParaID(id))
			return errA == nil && errB == nil && a == b
		},
		gen.UInt32(),
	))

	properties.Property("distinct ids never collide", prop.ForAll(
		func(x, y uint32) bool {
			if x == y {
				return true
			}
			a, _ := SovereignAccount(interfaces.ParaID(x))
			b, _ := SovereignAccount(interfaces.ParaID(y))
			return a != b
		},
		gen.UInt32(), gen.UInt32(),
	))

	properties.Property("address round-trips through SS58", prop.ForAll(
		func(id uint32, format uint16) bool {
			account, err := SovereignAccount(interfaces.ParaID(id))
			if err != nil {
				return false
			}
			addr, err := SS58Encode(account, format)
			if err != nil {
				return false
			}
			decoded, gotFormat, err := SS58Decode(addr)
			return err == nil && decoded == account && gotFormat == format
		},
		gen.UInt32(), gen.UInt16Range(0, MaxSS58Format),
	))

	properties.Property("formats beyond the two-byte prefix are rejected", prop.ForAll(
		func(id uint32, format uint16) bool {
			_, err := SovereignAddress(interfaces.ParaID(id), interfaces.Chain{Name: "custom", SS58Format: format})
			return errors.Is(err, ErrBadFormat)
		},
		gen.UInt32(), gen.UInt16Range(MaxSS58Format+1, math.MaxUint16),
	))

	properties.TestingRun(t)
}
