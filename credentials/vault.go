package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
)

// Default field names of the Vault secret.
const (
	DefaultSeedField      = "seed"
	DefaultAuthorityField = "proxy_account"
	DefaultSchemeField    = "key_scheme"
)

// VaultConfig locates a KV v2 secret holding the signing seed and the authority account.
type VaultConfig struct {
	Address string
	Token   string
	Mount   string
	Path    string

	SeedField      string
	AuthorityField string

	// Scheme applies when the secret has no SchemeField entry.
	Scheme      cryptoutils.KeyScheme
	SchemeField string
}

// Vault reads credentials from HashiCorp Vault on every request, so rotated
// secrets take effect without a restart.
type Vault struct {
	client *api.Client
	cfg    VaultConfig
	log    *slog.Logger
}

// NewVault creates a Vault-backed provider. An empty token falls back to the
// client's environment (VAULT_TOKEN).
func NewVault(cfg VaultConfig, log *slog.Logger) (*Vault, error) {
	config := api.DefaultConfig()
	if cfg.Address != "" {
		config.Address = cfg.Address
	}
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	cfg.Mount = strings.Trim(cfg.Mount, "/")
	cfg.Path = strings.Trim(cfg.Path, "/")
	if cfg.Mount == "" || cfg.Path == "" {
		return nil, fmt.Errorf("%w: vault mount and path are required", interfaces.ErrMissingCredentials)
	}
	if cfg.SeedField == "" {
		cfg.SeedField = DefaultSeedField
	}
	if cfg.AuthorityField == "" {
		cfg.AuthorityField = DefaultAuthorityField
	}
	if cfg.SchemeField == "" {
		cfg.SchemeField = DefaultSchemeField
	}

	return &Vault{client: client, cfg: cfg, log: log}, nil
}

// Credentials reads the secret and builds static credentials from it.
func (v *Vault) Credentials(ctx context.Context) (*interfaces.Credentials, error) {
	start := time.Now()

	secret, err := v.client.KVv2(v.cfg.Mount).Get(ctx, v.cfg.Path)
	if err != nil {
		v.log.Error("Failed to read credentials from Vault",
			slog.String("mount", v.cfg.Mount),
			slog.String("path", v.cfg.Path),
			"err", err)
		return nil, fmt.Errorf("%w: vault %s/%s: %v", interfaces.ErrMissingCredentials, v.cfg.Mount, v.cfg.Path, err)
	}

	seed, _ := secret.Data[v.cfg.SeedField].(string)
	authority, _ := secret.Data[v.cfg.AuthorityField].(string)

	scheme := v.cfg.Scheme
	if s, ok := secret.Data[v.cfg.SchemeField].(string); ok {
		if scheme, err = cryptoutils.ParseKeyScheme(s); err != nil {
			return nil, err
		}
	}

	static, err := NewStaticFromSecrets(scheme, seed, authority)
	if err != nil {
		return nil, err
	}

	v.log.Debug("Loaded credentials from Vault",
		slog.String("path", v.cfg.Path),
		slog.Duration("duration", time.Since(start)))
	return static.Credentials(ctx)
}
