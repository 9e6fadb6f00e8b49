// Package credentials supplies the signing identity and the privileged
// authority account used to dispatch onboarding batches.
//
// Credentials are read only when a run actually needs them, after the
// chain state checks, so runs that end early never touch secrets.
package credentials

import (
	"context"
	"fmt"
	"strings"

	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
)

// Static serves credentials fixed at construction.
type Static struct {
	creds interfaces.Credentials
}

// NewStatic returns a provider for an existing signer.
func NewStatic(signer interfaces.Signer, authority interfaces.AccountID) *Static {
	return &Static{creds: interfaces.Credentials{Signer: signer, Authority: authority}}
}

// NewStaticFromSecrets builds the signer of scheme from seed (a secret URI
// for sr25519, a hex seed for ecdsa) and parses the authority account (SS58
// or 0x hex). Both secrets are required.
func NewStaticFromSecrets(scheme cryptoutils.KeyScheme, seed, authority string) (*Static, error) {
	seed, authority = strings.TrimSpace(seed), strings.TrimSpace(authority)
	if seed == "" {
		return nil, fmt.Errorf("%w: signing seed not set", interfaces.ErrMissingCredentials)
	}
	if authority == "" {
		return nil, fmt.Errorf("%w: privileged account not set", interfaces.ErrMissingCredentials)
	}

	signer, err := cryptoutils.NewSigner(scheme, seed)
	if err != nil {
		return nil, err
	}
	account, err := cryptoutils.ParseAccount(authority)
	if err != nil {
		return nil, fmt.Errorf("privileged account: %w", err)
	}
	return NewStatic(signer, account), nil
}

// Credentials returns a copy of the configured credentials.
func (s *Static) Credentials(ctx context.Context) (*interfaces.Credentials, error) {
	creds := s.creds
	return &creds, nil
}

// Lazy defers building a provider until credentials are first requested.
// Errors are reported on every call so a fixed configuration can be retried.
type Lazy func(ctx context.Context) (interfaces.CredentialProvider, error)

// Credentials builds the provider and asks it for credentials.
func (l Lazy) Credentials(ctx context.Context) (*interfaces.Credentials, error) {
	provider, err := l(ctx)
	if err != nil {
		return nil, err
	}
	return provider.Credentials(ctx)
}
