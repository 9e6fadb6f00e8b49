// Package config holds the network profile of a deployment: which relay
// chain is onboarded onto, which chains are consulted for existing leases,
// the funding policy and submission timeouts.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/paritytech/subport/calls"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/onboarding"
	"github.com/paritytech/subport/submission"
	"gopkg.in/yaml.v3"
)

// Config models a network profile file.
type Config struct {
	Target     Network    `yaml:"target"`
	References []Network  `yaml:"references"`
	Policy     Policy     `yaml:"policy"`
	Submission Submission `yaml:"submission"`
}

// Network is a relay chain endpoint.
type Network struct {
	Name string `yaml:"name"`
	URI  string `yaml:"uri"`
	// SS58Format is required for chains other than rococo, polkadot and kusama.
	SS58Format *uint16 `yaml:"ss58_format,omitempty"`
}

// Policy holds amounts in planck as decimal strings.
type Policy struct {
	ManagerFunds    string `yaml:"manager_funds"`
	SovereignFunds  string `yaml:"sovereign_funds"`
	RegisterDeposit string `yaml:"register_deposit"`
	// Faucet is an SS58 address; empty means the privileged authority.
	Faucet     string `yaml:"faucet,omitempty"`
	ReserveIDs bool   `yaml:"reserve_ids"`
	SlotDelay  uint32 `yaml:"slot_delay"`
}

// Submission tunes the chain connection and finality wait.
type Submission struct {
	FinalityTimeout time.Duration `yaml:"finality_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	DialAttempts    uint64        `yaml:"dial_attempts"`
}

var knownChains = map[string]interfaces.Chain{
	interfaces.Rococo.Name:   interfaces.Rococo,
	interfaces.Polkadot.Name: interfaces.Polkadot,
	interfaces.Kusama.Name:   interfaces.Kusama,
}

// Default returns the profile for onboarding onto a local Rococo node.
func Default() *Config {
	policy := onboarding.DefaultConfig()
	return &Config{
		Target: Network{Name: "rococo", URI: "ws://127.0.0.1:9944"},
		References: []Network{
			{Name: "polkadot", URI: "wss://rpc.polkadot.io:443"},
			{Name: "kusama", URI: "wss://kusama-rpc.polkadot.io:443"},
		},
		Policy: Policy{
			ManagerFunds:    policy.ManagerFunds.String(),
			SovereignFunds:  policy.SovereignFunds.String(),
			RegisterDeposit: policy.RegisterDeposit.String(),
			SlotDelay:       policy.SlotDelay,
		},
		Submission: Submission{
			FinalityTimeout: submission.DefaultFinalityTimeout,
			PollInterval:    6 * time.Second,
			DialAttempts:    5,
		},
	}
}

// Load reads a profile from path. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config %s not found", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates a profile over the defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the profile is usable.
func (c *Config) Validate() error {
	if _, err := c.Target.Chain(); err != nil {
		return fmt.Errorf("config.target: %w", err)
	}
	if c.Target.URI == "" {
		return fmt.Errorf("config.target.uri is required")
	}

	seen := map[string]bool{c.Target.Name: true}
	for i, ref := range c.References {
		if _, err := ref.Chain(); err != nil {
			return fmt.Errorf("config.references[%d]: %w", i, err)
		}
		if ref.URI == "" {
			return fmt.Errorf("config.references[%d].uri is required", i)
		}
		if seen[ref.Name] {
			return fmt.Errorf("chain %s is configured twice", ref.Name)
		}
		seen[ref.Name] = true
	}

	if _, err := c.Onboarding(); err != nil {
		return err
	}

	if c.Submission.FinalityTimeout <= 0 {
		return fmt.Errorf("config.submission.finality_timeout must be positive")
	}
	if c.Submission.PollInterval <= 0 {
		return fmt.Errorf("config.submission.poll_interval must be positive")
	}
	return nil
}

// Chain returns the tag of the network.
func (n Network) Chain() (interfaces.Chain, error) {
	name := strings.ToLower(strings.TrimSpace(n.Name))
	if name == "" {
		return interfaces.Chain{}, fmt.Errorf("name is required")
	}
	chain, known := knownChains[name]
	if n.SS58Format != nil {
		if *n.SS58Format > cryptoutils.MaxSS58Format {
			return interfaces.Chain{}, fmt.Errorf("ss58_format %d exceeds %d", *n.SS58Format, cryptoutils.MaxSS58Format)
		}
		return interfaces.Chain{Name: name, SS58Format: *n.SS58Format}, nil
	}
	if !known {
		return interfaces.Chain{}, fmt.Errorf("unknown chain %s needs ss58_format", name)
	}
	return chain, nil
}

// Onboarding converts the policy into orchestrator settings.
func (c *Config) Onboarding() (onboarding.Config, error) {
	var (
		out onboarding.Config
		err error
	)
	if out.ManagerFunds, err = parseAmount("manager_funds", c.Policy.ManagerFunds); err != nil {
		return out, err
	}
	if out.SovereignFunds, err = parseAmount("sovereign_funds", c.Policy.SovereignFunds); err != nil {
		return out, err
	}
	if out.RegisterDeposit, err = parseAmount("register_deposit", c.Policy.RegisterDeposit); err != nil {
		return out, err
	}
	if c.Policy.Faucet != "" {
		faucet, err := cryptoutils.ParseAccount(c.Policy.Faucet)
		if err != nil {
			return out, fmt.Errorf("config.policy.faucet: %w", err)
		}
		out.Faucet = &faucet
	}
	if c.Policy.SlotDelay > calls.MaxSlotDelay {
		return out, fmt.Errorf("config.policy.slot_delay: %d exceeds %d blocks", c.Policy.SlotDelay, calls.MaxSlotDelay)
	}
	out.ReserveIDs = c.Policy.ReserveIDs
	out.SlotDelay = c.Policy.SlotDelay
	return out, nil
}

func parseAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.ReplaceAll(value, "_", ""), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("config.policy.%s: invalid amount %q", field, value)
	}
	if amount.BitLen() > 128 {
		return nil, fmt.Errorf("config.policy.%s: amount exceeds u128", field)
	}
	return amount, nil
}
