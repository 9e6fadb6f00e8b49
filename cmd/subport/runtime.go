package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paritytech/subport/chainstate"
	"github.com/paritytech/subport/cmd/flags"
	"github.com/paritytech/subport/config"
	"github.com/paritytech/subport/credentials"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/onboarding"
	"github.com/paritytech/subport/storage"
	"github.com/paritytech/subport/submission"
	"github.com/paritytech/subport/substrate"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// loadConfig reads the network profile and applies the endpoint and faucet
// flags on top of it.
func loadConfig(cCtx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := cCtx.String(flags.ConfigFlag.Name); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	overrideURIs(cfg, map[string]string{
		interfaces.Rococo.Name:   cCtx.String(flags.RococoURIFlag.Name),
		interfaces.Polkadot.Name: cCtx.String(flags.PolkadotURIFlag.Name),
		interfaces.Kusama.Name:   cCtx.String(flags.KusamaURIFlag.Name),
	})
	if faucet := cCtx.String(flags.FaucetFlag.Name); faucet != "" {
		cfg.Policy.Faucet = faucet
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrideURIs replaces the endpoint of every configured network named in
// uris. Empty values are ignored.
func overrideURIs(cfg *config.Config, uris map[string]string) {
	apply := func(n *config.Network) {
		if uri := uris[strings.ToLower(n.Name)]; uri != "" {
			n.URI = uri
		}
	}
	apply(&cfg.Target)
	for i := range cfg.References {
		apply(&cfg.References[i])
	}
}

// credentialProvider defers reading secrets until a run needs them: from
// Vault when an address is given, otherwise from the seed and proxy account.
func credentialProvider(cCtx *cli.Context, log *slog.Logger) interfaces.CredentialProvider {
	vaultAddr := cCtx.String(flags.VaultAddrFlag.Name)
	vaultCfg := credentials.VaultConfig{
		Address: vaultAddr,
		Token:   cCtx.String(flags.VaultTokenFlag.Name),
		Mount:   cCtx.String(flags.VaultMountFlag.Name),
		Path:    cCtx.String(flags.VaultPathFlag.Name),
	}
	seed := cCtx.String(flags.SeedFlag.Name)
	proxy := cCtx.String(flags.ProxyAccountFlag.Name)
	schemeName := cCtx.String(flags.KeySchemeFlag.Name)

	return credentials.Lazy(func(ctx context.Context) (interfaces.CredentialProvider, error) {
		scheme, err := cryptoutils.ParseKeyScheme(schemeName)
		if err != nil {
			return nil, err
		}
		vaultCfg.Scheme = scheme
		if vaultAddr != "" {
			log.Debug("reading credentials from vault", "addr", vaultAddr, "path", vaultCfg.Path)
			vault, err := credentials.NewVault(vaultCfg, log)
			if err != nil {
				return nil, err
			}
			return vault, nil
		}
		static, err := credentials.NewStaticFromSecrets(scheme, seed, proxy)
		if err != nil {
			return nil, err
		}
		return static, nil
	})
}

// node is a connected chain with its state oracle.
type node struct {
	chain  interfaces.Chain
	client *substrate.Client
	oracle *chainstate.Oracle
}

// runtime holds everything a command needs to talk to the chains.
type runtime struct {
	cfg        *config.Config
	log        *slog.Logger
	target     *node
	references []*node

	loader       *storage.Loader
	orchestrator *onboarding.Orchestrator
}

// connect dials the target and every reference chain concurrently and wires
// the orchestrator on top of them.
func connect(ctx context.Context, cCtx *cli.Context, cfg *config.Config, log *slog.Logger) (*runtime, error) {
	networks := append([]config.Network{cfg.Target}, cfg.References...)
	nodes := make([]*node, len(networks))

	g, gctx := errgroup.WithContext(ctx)
	for i, network := range networks {
		g.Go(func() error {
			chain, err := network.Chain()
			if err != nil {
				return err
			}
			client, err := substrate.Dial(gctx, network.URI, chain, cfg.Submission.DialAttempts, log)
			if err != nil {
				return fmt.Errorf("%s: %w", chain.Name, err)
			}
			client.SetPollInterval(cfg.Submission.PollInterval)
			nodes[i] = &node{
				chain:  chain,
				client: client,
				oracle: chainstate.NewOracle(chain, client, log),
			}
			return nil
		})
	}
	err := g.Wait()

	rt := &runtime{cfg: cfg, log: log, target: nodes[0], references: nodes[1:]}
	if err != nil {
		rt.Close()
		return nil, err
	}

	readers := make(map[string]chainstate.StorageReader, len(nodes))
	references := make([]interfaces.ChainState, 0, len(rt.references))
	for _, n := range nodes {
		readers[n.chain.Name] = n.client
	}
	for _, n := range rt.references {
		references = append(references, n.oracle)
	}

	policy, err := cfg.Onboarding()
	if err != nil {
		rt.Close()
		return nil, err
	}
	if cCtx.IsSet(reserveFlag.Name) {
		policy.ReserveIDs = cCtx.Bool(reserveFlag.Name)
	}

	rt.loader = storage.NewLoader(storage.NewSourceFactory(log, readers), log)
	rt.orchestrator = onboarding.NewOrchestrator(
		rt.target.oracle,
		references,
		submission.NewPipeline(rt.target.client, cfg.Submission.FinalityTimeout, log),
		credentialProvider(cCtx, log),
		policy,
		log,
	)
	return rt, nil
}

// nodes returns the target followed by the references.
func (rt *runtime) nodes() []*node {
	return append([]*node{rt.target}, rt.references...)
}

// Close disconnects from every chain.
func (rt *runtime) Close() {
	for _, n := range rt.nodes() {
		if n != nil {
			n.client.Close()
		}
	}
}

// request loads the payloads named by the command flags.
func (rt *runtime) request(ctx context.Context, cCtx *cli.Context) (onboarding.Request, error) {
	id, manager, err := paraAndManager(cCtx)
	if err != nil {
		return onboarding.Request{}, err
	}

	genesis, err := rt.loader.Fetch(ctx, cCtx.StringSlice(genesisHeadFlag.Name)...)
	if err != nil {
		return onboarding.Request{}, fmt.Errorf("genesis head: %w", err)
	}
	code, err := rt.loader.Fetch(ctx, cCtx.StringSlice(validationCodeFlag.Name)...)
	if err != nil {
		return onboarding.Request{}, fmt.Errorf("validation code: %w", err)
	}

	rt.log.Debug("payloads loaded", "para_id", id, "genesis_head_bytes", len(genesis), "validation_code_bytes", len(code))
	return onboarding.Request{
		ParaID:         id,
		Manager:        manager,
		GenesisHead:    genesis,
		ValidationCode: code,
	}, nil
}
