package cryptoutils

import (
	"fmt"

	"github.com/paritytech/subport/interfaces"
	subkey "github.com/vedhavyas/go-subkey/v2"
	"github.com/vedhavyas/go-subkey/v2/sr25519"
)

// MultiSignature variant index of Sr25519 signatures.
const multiSignatureSr25519 = 0x01

// Sr25519Signer signs extrinsics with a schnorrkel key derived from a secret URI.
type Sr25519Signer struct {
	pair    subkey.KeyPair
	account interfaces.AccountID
}

// NewSr25519Signer derives a key from a secret URI: a BIP39 phrase or a
// 0x-prefixed 32-byte seed, optionally followed by //hard and /soft junctions
// and ///password. A URI made of junctions only, such as //Alice, derives from
// the development phrase.
func NewSr25519Signer(suri string) (*Sr25519Signer, error) {
	pair, err := subkey.DeriveKeyPair(sr25519.Scheme{}, suri)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot derive sr25519 key from secret uri", interfaces.ErrInvalidKeyMaterial)
	}
	account, err := interfaces.NewAccountIDFromBytes(pair.AccountID())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidKeyMaterial, err)
	}
	return &Sr25519Signer{pair: pair, account: account}, nil
}

// AccountID returns the public key, which is the account id of sr25519 keys.
func (s *Sr25519Signer) AccountID() interfaces.AccountID {
	return s.account
}

// Sign returns the MultiSignature encoding of a schnorrkel signature over
// payload. Signatures are randomized: signing twice gives different bytes.
func (s *Sr25519Signer) Sign(payload []byte) ([]byte, error) {
	sig, err := s.pair.Sign(payload)
	if err != nil {
		return nil, err
	}
	return append([]byte{multiSignatureSr25519}, sig...), nil
}

// Verify checks a MultiSignature produced by Sign.
func (s *Sr25519Signer) Verify(payload, signature []byte) bool {
	if len(signature) == 0 || signature[0] != multiSignatureSr25519 {
		return false
	}
	return s.pair.Verify(payload, signature[1:])
}
