package substrate

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/paritytech/subport/metadata"
	"golang.org/x/crypto/blake2b"
)

func twox(data []byte, rounds int) []byte {
	out := make([]byte, 0, rounds*8)
	for seed := 0; seed < rounds; seed++ {
		h := xxhash.NewWithSeed(uint64(seed))
		_, _ = h.Write(data)
		out = binary.LittleEndian.AppendUint64(out, h.Sum64())
	}
	return out
}

// Twox128 is the 128-bit xxHash used for pallet and item prefixes.
func Twox128(data []byte) []byte {
	return twox(data, 2)
}

func blake2b128(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	_, _ = h.Write(data)
	return h.Sum(nil)
}

func hashKey(hasher metadata.Hasher, key []byte) ([]byte, error) {
	switch hasher {
	case metadata.Blake2_128:
		return blake2b128(key), nil
	case metadata.Blake2_256:
		h := blake2b.Sum256(key)
		return h[:], nil
	case metadata.Blake2_128Concat:
		return append(blake2b128(key), key...), nil
	case metadata.Twox128:
		return twox(key, 2), nil
	case metadata.Twox256:
		return twox(key, 4), nil
	case metadata.Twox64Concat:
		return append(twox(key, 1), key...), nil
	case metadata.Identity:
		return append([]byte(nil), key...), nil
	}
	return nil, fmt.Errorf("unknown storage hasher %d", hasher)
}

// StorageKey builds the full storage key of pallet.item. keys holds one
// SCALE-encoded key per hasher.
func StorageKey(pallet, item string, hashers []metadata.Hasher, keys ...[]byte) ([]byte, error) {
	if len(keys) != len(hashers) {
		return nil, fmt.Errorf("storage %s.%s takes %d keys, got %d", pallet, item, len(hashers), len(keys))
	}

	out := append(Twox128([]byte(pallet)), Twox128([]byte(item))...)
	for i, hasher := range hashers {
		hashed, err := hashKey(hasher, keys[i])
		if err != nil {
			return nil, err
		}
		out = append(out, hashed...)
	}
	return out, nil
}
