// Package cryptoutils implements the account-level cryptography of the
// onboarding tool: SS58 address encoding, parachain sovereign account
// derivation and the sr25519 and secp256k1 extrinsic signers.
//
// # SS58
//
// SS58 renders a 32-byte account as base58(prefix || account || checksum),
// where the checksum is the first two bytes of
// blake2b-512("SS58PRE" || prefix || account). Network formats below 64
// use a one-byte prefix, formats up to 16383 the two-byte form.
//
//	addr, err := cryptoutils.SS58Encode(account, interfaces.Rococo.SS58Format)
//	account, format, err := cryptoutils.SS58Decode(addr)
//
// # Sovereign accounts
//
// The sovereign account of parachain N on its relay chain is the ASCII tag
// "para" followed by N as a little-endian u32, zero padded to 32 bytes. The
// derivation must stay bit-exact with the runtime: funds sent to a wrong
// address are unrecoverable.
//
// # Signing
//
// Sr25519Signer produces MultiSignature::Sr25519 signatures from a key derived
// from a secret URI (phrase or seed with //hard and /soft junctions). Its
// account id is the public key.
//
// EcdsaSigner produces MultiSignature::Ecdsa signatures. The account id of an
// ECDSA signer is blake2b-256 of its compressed public key.
//
//	signer, err := cryptoutils.NewSigner(cryptoutils.Sr25519, "//Alice")
package cryptoutils
