package cryptoutils

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/paritytech/subport/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

const testSeed = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestEcdsaSignerAccount(t *testing.T) {
	signer, err := NewEcdsaSignerFromHex(testSeed)
	require.NoError(t, err)

	key, err := crypto.HexToECDSA(testSeed[2:])
	require.NoError(t, err)
	expected := blake2b.Sum256(crypto.CompressPubkey(&key.PublicKey))
	assert.Equal(t, interfaces.AccountID(expected), signer.AccountID())
}

func TestEcdsaSignerSignatureRecovers(t *testing.T) {
	signer, err := NewEcdsaSignerFromHex(testSeed)
	require.NoError(t, err)

	payload := []byte("onboarding payload")
	sig, err := signer.Sign(payload)
	require.NoError(t, err)
	require.Len(t, sig, 66)
	assert.Equal(t, byte(0x02), sig[0])

	digest := blake2b.Sum256(payload)
	pub, err := crypto.SigToPub(digest[:], sig[1:])
	require.NoError(t, err)
	assert.Equal(t, interfaces.AccountID(blake2b.Sum256(crypto.CompressPubkey(pub))), signer.AccountID())
}

func TestEcdsaSignerRejectsBadSeed(t *testing.T) {
	_, err := NewEcdsaSignerFromHex("0x1234")
	assert.ErrorIs(t, err, interfaces.ErrInvalidKeyMaterial)

	_, err = NewEcdsaSignerFromHex("bottom drive obey lake curtain smoke basket hold race lonely fit walk")
	assert.ErrorIs(t, err, interfaces.ErrInvalidKeyMaterial)
}

func TestSr25519SignerDevAccounts(t *testing.T) {
	alice, err := NewSr25519Signer("//Alice")
	require.NoError(t, err)
	assert.Equal(t, "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d", alice.AccountID().String())

	// the dev phrase spelled out derives the same key
	spelled, err := NewSr25519Signer("bottom drive obey lake curtain smoke basket hold race lonely fit walk//Alice")
	require.NoError(t, err)
	assert.Equal(t, alice.AccountID(), spelled.AccountID())

	bob, err := NewSr25519Signer("//Bob")
	require.NoError(t, err)
	assert.Equal(t, "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48", bob.AccountID().String())
}

func TestSr25519SignerSignature(t *testing.T) {
	signer, err := NewSr25519Signer("//Alice")
	require.NoError(t, err)

	payload := []byte("onboarding payload")
	sig, err := signer.Sign(payload)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Equal(t, byte(0x01), sig[0])
	assert.True(t, signer.Verify(payload, sig))
	assert.False(t, signer.Verify([]byte("other payload"), sig))

	bob, err := NewSr25519Signer("//Bob")
	require.NoError(t, err)
	assert.False(t, bob.Verify(payload, sig))
}

func TestSr25519SignerRejectsBadSecret(t *testing.T) {
	_, err := NewSr25519Signer("not a valid mnemonic phrase")
	assert.ErrorIs(t, err, interfaces.ErrInvalidKeyMaterial)
}

func TestNewSigner(t *testing.T) {
	scheme, err := ParseKeyScheme("")
	require.NoError(t, err)
	assert.Equal(t, Sr25519, scheme)

	scheme, err = ParseKeyScheme(" ECDSA ")
	require.NoError(t, err)
	assert.Equal(t, Ecdsa, scheme)

	_, err = ParseKeyScheme("ed25519")
	assert.ErrorIs(t, err, interfaces.ErrInvalidKeyMaterial)

	sr, err := NewSigner(Sr25519, "//Alice")
	require.NoError(t, err)
	assert.IsType(t, &Sr25519Signer{}, sr)

	ec, err := NewSigner(Ecdsa, testSeed)
	require.NoError(t, err)
	assert.IsType(t, &EcdsaSigner{}, ec)

	_, err = NewSigner(Ecdsa, "//Alice")
	assert.ErrorIs(t, err, interfaces.ErrInvalidKeyMaterial)
}
