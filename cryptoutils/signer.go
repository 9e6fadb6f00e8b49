package cryptoutils

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/paritytech/subport/interfaces"
	"golang.org/x/crypto/blake2b"
)

// MultiSignature variant index of ECDSA signatures.
const multiSignatureEcdsa = 0x02

// KeyScheme names the signature scheme of a signing secret.
type KeyScheme string

const (
	Sr25519 KeyScheme = "sr25519"
	Ecdsa   KeyScheme = "ecdsa"
)

// ParseKeyScheme accepts sr25519 or ecdsa in any case. Empty means sr25519.
func ParseKeyScheme(s string) (KeyScheme, error) {
	switch KeyScheme(strings.ToLower(strings.TrimSpace(s))) {
	case "", Sr25519:
		return Sr25519, nil
	case Ecdsa:
		return Ecdsa, nil
	}
	return "", fmt.Errorf("%w: unknown key scheme %q", interfaces.ErrInvalidKeyMaterial, s)
}

// NewSigner builds a signer for scheme from secret: a secret URI for sr25519,
// a hex seed for ecdsa.
func NewSigner(scheme KeyScheme, secret string) (interfaces.Signer, error) {
	switch scheme {
	case Sr25519, "":
		return NewSr25519Signer(strings.TrimSpace(secret))
	case Ecdsa:
		return NewEcdsaSignerFromHex(secret)
	}
	return nil, fmt.Errorf("%w: unknown key scheme %q", interfaces.ErrInvalidKeyMaterial, scheme)
}

// EcdsaSigner signs extrinsics with a secp256k1 key.
type EcdsaSigner struct {
	key     *ecdsa.PrivateKey
	account interfaces.AccountID
}

// NewEcdsaSigner wraps a secp256k1 private key.
func NewEcdsaSigner(key *ecdsa.PrivateKey) *EcdsaSigner {
	return &EcdsaSigner{
		key:     key,
		account: blake2b.Sum256(crypto.CompressPubkey(&key.PublicKey)),
	}
}

// NewEcdsaSignerFromHex parses a hex-encoded 32-byte secret seed, with or without 0x prefix.
func NewEcdsaSignerFromHex(secret string) (*EcdsaSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(secret), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidKeyMaterial, err)
	}
	return NewEcdsaSigner(key), nil
}

// AccountID returns blake2b-256 of the compressed public key.
func (s *EcdsaSigner) AccountID() interfaces.AccountID {
	return s.account
}

// Sign signs blake2b-256(payload) and returns the MultiSignature encoding.
func (s *EcdsaSigner) Sign(payload []byte) ([]byte, error) {
	digest := blake2b.Sum256(payload)
	sig, err := crypto.Sign(digest[:], s.key)
	if err != nil {
		return nil, err
	}
	return append([]byte{multiSignatureEcdsa}, sig...), nil
}
