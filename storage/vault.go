package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/paritytech/subport/interfaces"
)

// DefaultVaultField is the secret field read when the reference names none.
const DefaultVaultField = "content"

// VaultSource reads a payload stored in a field of a KV v2 secret.
// The field holds 0x-prefixed hex text, or base64 when the reference sets encoding=base64.
type VaultSource struct {
	client      *api.Client
	mount       string
	path        string
	field       string
	base64      bool
	log         *slog.Logger
	locationURI string
}

// VaultOptions configure the Vault client.
type VaultOptions struct {
	// Address of the server. Empty uses VAULT_ADDR.
	Address string
	// Token used for requests. Empty uses VAULT_TOKEN.
	Token  string
	Field  string
	Base64 bool
}

// NewVaultSource creates a source for the secret at mount/path.
func NewVaultSource(mount, path string, opts VaultOptions, log *slog.Logger) (*VaultSource, error) {
	mount = strings.Trim(mount, "/")
	path = strings.Trim(path, "/")
	if mount == "" || path == "" {
		return nil, fmt.Errorf("%w: vault reference needs a mount and a path", interfaces.ErrInvalidLocationURI)
	}
	if opts.Field == "" {
		opts.Field = DefaultVaultField
	}

	config := api.DefaultConfig()
	if opts.Address != "" {
		config.Address = opts.Address
	}
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if opts.Token != "" {
		client.SetToken(opts.Token)
	}

	return &VaultSource{
		client:      client,
		mount:       mount,
		path:        path,
		field:       opts.Field,
		base64:      opts.Base64,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s?field=%s", mount, path, opts.Field),
	}, nil
}

// Fetch reads the secret field.
func (s *VaultSource) Fetch(ctx context.Context) ([]byte, error) {
	secret, err := s.client.KVv2(s.mount).Get(ctx, s.path)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", interfaces.ErrContentNotFound, s.mount, s.path)
		}
		s.log.Error("Failed to read from Vault",
			slog.String("mount", s.mount),
			slog.String("path", s.path),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	value, ok := secret.Data[s.field].(string)
	if !ok {
		return nil, fmt.Errorf("%w: field %q of %s/%s", interfaces.ErrContentNotFound, s.field, s.mount, s.path)
	}

	if s.base64 {
		data, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 field %q: %w", s.field, err)
		}
		return data, nil
	}
	return []byte(value), nil
}

// Available checks if the Vault server is healthy.
func (s *VaultSource) Available(ctx context.Context) bool {
	health, err := s.client.Sys().HealthWithContext(ctx)
	if err != nil {
		s.log.Debug("Vault source unavailable", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

// Name returns a unique identifier for this source.
func (s *VaultSource) Name() string {
	return "vault-" + s.mount
}

// LocationURI returns the URI that identifies this source.
func (s *VaultSource) LocationURI() string {
	return s.locationURI
}
