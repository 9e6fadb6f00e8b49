package cryptoutils

import (
	"encoding/binary"

	"github.com/paritytech/subport/interfaces"
)

// ParaAccountTag prefixes the sovereign account of a child parachain on its relay chain.
const ParaAccountTag = "para"

// SovereignAccount derives the relay-chain sovereign account of a parachain.
func SovereignAccount(id interfaces.ParaID) (interfaces.AccountID, error) {
	buf := make([]byte, 32)
	copy(buf, ParaAccountTag)
	binary.LittleEndian.PutUint32(buf[len(ParaAccountTag):], uint32(id))
	return interfaces.NewAccountIDFromBytes(buf)
}

// SovereignAddress renders the sovereign account of a parachain for chain.
func SovereignAddress(id interfaces.ParaID, chain interfaces.Chain) (string, error) {
	account, err := SovereignAccount(id)
	if err != nil {
		return "", err
	}
	return SS58Encode(account, chain.SS58Format)
}
