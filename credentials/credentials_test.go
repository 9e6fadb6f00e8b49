package credentials

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSeed  = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	aliceSS58 = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
)

func TestStaticFromSecrets(t *testing.T) {
	provider, err := NewStaticFromSecrets(cryptoutils.Ecdsa, testSeed, aliceSS58)
	require.NoError(t, err)

	creds, err := provider.Credentials(context.Background())
	require.NoError(t, err)

	alice, err := cryptoutils.ParseAccount(aliceSS58)
	require.NoError(t, err)
	assert.Equal(t, alice, creds.Authority)

	signer, err := cryptoutils.NewEcdsaSignerFromHex(testSeed)
	require.NoError(t, err)
	assert.Equal(t, signer.AccountID(), creds.Signer.AccountID())
}

func TestStaticFromSecretURI(t *testing.T) {
	provider, err := NewStaticFromSecrets(cryptoutils.Sr25519, "//Alice", aliceSS58)
	require.NoError(t, err)

	creds, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	// //Alice is the authority itself, so no proxy is needed
	assert.Equal(t, creds.Authority, creds.Signer.AccountID())
	assert.IsType(t, &cryptoutils.Sr25519Signer{}, creds.Signer)
}

func TestStaticMissingOrInvalid(t *testing.T) {
	_, err := NewStaticFromSecrets(cryptoutils.Sr25519, "", aliceSS58)
	assert.ErrorIs(t, err, interfaces.ErrMissingCredentials)

	_, err = NewStaticFromSecrets(cryptoutils.Sr25519, testSeed, " ")
	assert.ErrorIs(t, err, interfaces.ErrMissingCredentials)

	_, err = NewStaticFromSecrets(cryptoutils.Ecdsa, "0x1234", aliceSS58)
	assert.ErrorIs(t, err, interfaces.ErrInvalidKeyMaterial)

	_, err = NewStaticFromSecrets(cryptoutils.Sr25519, "no such words in any phrase", aliceSS58)
	assert.ErrorIs(t, err, interfaces.ErrInvalidKeyMaterial)

	_, err = NewStaticFromSecrets(cryptoutils.Sr25519, testSeed, "not-an-account")
	assert.Error(t, err)
}

func TestLazyDefersConstruction(t *testing.T) {
	calls := 0
	lazy := Lazy(func(ctx context.Context) (interfaces.CredentialProvider, error) {
		calls++
		return NewStaticFromSecrets(cryptoutils.Sr25519, testSeed, aliceSS58)
	})
	assert.Zero(t, calls)

	_, err := lazy.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func vaultServer(t *testing.T, data map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/subport/rococo" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data": data,
				"metadata": map[string]any{
					"created_time":  "2024-01-01T00:00:00Z",
					"deletion_time": "",
					"destroyed":     false,
					"version":       1,
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVaultCredentials(t *testing.T) {
	srv := vaultServer(t, map[string]any{"seed": testSeed, "proxy_account": aliceSS58})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider, err := NewVault(VaultConfig{Address: srv.URL, Token: "test-token", Mount: "/secret/", Path: "subport/rococo"}, log)
	require.NoError(t, err)

	creds, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	alice, _ := cryptoutils.ParseAccount(aliceSS58)
	assert.Equal(t, alice, creds.Authority)
	assert.NotNil(t, creds.Signer)

	missing, err := NewVault(VaultConfig{Address: srv.URL, Token: "test-token", Mount: "secret", Path: "subport/kusama"}, log)
	require.NoError(t, err)
	_, err = missing.Credentials(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrMissingCredentials)
}

func TestVaultSecretKeyScheme(t *testing.T) {
	srv := vaultServer(t, map[string]any{"seed": testSeed, "proxy_account": aliceSS58, "key_scheme": "ecdsa"})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider, err := NewVault(VaultConfig{Address: srv.URL, Token: "test-token", Mount: "secret", Path: "subport/rococo", Scheme: cryptoutils.Sr25519}, log)
	require.NoError(t, err)

	creds, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	ecdsa, err := cryptoutils.NewEcdsaSignerFromHex(testSeed)
	require.NoError(t, err)
	assert.Equal(t, ecdsa.AccountID(), creds.Signer.AccountID())
}

func TestVaultSecretWithoutSeed(t *testing.T) {
	srv := vaultServer(t, map[string]any{"proxy_account": aliceSS58})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider, err := NewVault(VaultConfig{Address: srv.URL, Token: "test-token", Mount: "secret", Path: "subport/rococo"}, log)
	require.NoError(t, err)

	_, err = provider.Credentials(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrMissingCredentials)
}
