package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/paritytech/subport/api"
	"github.com/paritytech/subport/api/clients"
	"github.com/paritytech/subport/cmd/flags"
	"github.com/paritytech/subport/config"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/httpserver"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/metrics"
	"github.com/paritytech/subport/onboarding"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var paraIDFlag = &cli.StringFlag{
	Name:     "para-id",
	Aliases:  []string{"p"},
	Required: true,
	Usage:    "parachain id to onboard",
}
var managerFlag = &cli.StringFlag{
	Name:     "manager",
	Aliases:  []string{"m"},
	Required: true,
	Usage:    "manager account of the para (SS58 or 0x hex)",
}
var genesisHeadFlag = &cli.StringSliceFlag{
	Name:     "genesis-head",
	Required: true,
	Usage:    "genesis head reference; repeat to give mirrors (0x hex, path, http(s), s3, ipfs, github, vault, onchain)",
}
var validationCodeFlag = &cli.StringSliceFlag{
	Name:     "validation-code",
	Required: true,
	Usage:    "validation code (wasm) reference; repeat to give mirrors",
}
var reserveFlag = &cli.BoolFlag{
	Name:  "reserve",
	Usage: "reserve the para id when it is the next free one (overrides the profile)",
}
var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "print JSON instead of a table",
}
var dryRunFlag = &cli.BoolFlag{
	Name:  "dry-run",
	Usage: "ask the service for a plan instead of running",
}

var requestFlags = []cli.Flag{paraIDFlag, managerFlag, genesisHeadFlag, validationCodeFlag}

const usage = `Onboard parachains onto a relay chain.

A run checks the target chain and the reference chains for existing leases,
then submits the missing registration, funding and slot assignment calls as a
single privileged batch and waits for it to be finalized.

Exit codes: 0 success or already onboarded, 1 failure, 2 aborted,
3 dispatch failed, 4 chain query failed, 5 submission failed.`

func newApp() *cli.App {
	return &cli.App{
		Name:  "subport",
		Usage: usage,
		Flags: flags.LogFlags,
		Commands: []*cli.Command{
			{
				Name:   "onboard",
				Usage:  "onboard a para and wait for finality",
				Flags:  concat(requestFlags, []cli.Flag{reserveFlag}, flags.NetworkFlags, flags.CredentialFlags),
				Action: onboardAction,
			},
			{
				Name:   "plan",
				Usage:  "show the batch an onboarding run would submit",
				Flags:  concat(requestFlags, []cli.Flag{reserveFlag, jsonFlag}, flags.NetworkFlags, flags.CredentialFlags),
				Action: planAction,
			},
			{
				Name:   "status",
				Usage:  "show lease, lifecycle and registration of a para on every configured chain",
				Flags:  concat([]cli.Flag{paraIDFlag, jsonFlag}, flags.NetworkFlags),
				Action: statusAction,
			},
			{
				Name:   "sovereign",
				Usage:  "derive the relay-chain sovereign account of a para",
				Flags:  concat([]cli.Flag{paraIDFlag, jsonFlag}, flags.NetworkFlags),
				Action: sovereignAction,
			},
			{
				Name:   "serve",
				Usage:  "serve the onboarding HTTP API",
				Flags:  concat(flags.ServerFlags, flags.NetworkFlags, flags.CredentialFlags),
				Action: serveAction,
			},
			{
				Name:   "request",
				Usage:  "ask a running onboarding service to onboard a para",
				Flags:  concat(requestFlags, []cli.Flag{flags.ServiceURLFlag, dryRunFlag, jsonFlag}),
				Action: requestAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func concat(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func paraAndManager(cCtx *cli.Context) (interfaces.ParaID, interfaces.AccountID, error) {
	id, err := interfaces.ParseParaID(cCtx.String(paraIDFlag.Name))
	if err != nil {
		return 0, interfaces.AccountID{}, err
	}
	manager, err := cryptoutils.ParseAccount(cCtx.String(managerFlag.Name))
	if err != nil {
		return 0, interfaces.AccountID{}, fmt.Errorf("manager: %w", err)
	}
	return id, manager, nil
}

// exit turns the outcome of a run into the process exit status.
func exit(cCtx *cli.Context, result *onboarding.Result, err error) error {
	msg, code := onboarding.Describe(result, err)
	if result != nil && result.Receipt != nil {
		printReceipt(cCtx.App.Writer, api.NewReceipt(result.Receipt))
	}
	if code != onboarding.ExitOK {
		return cli.Exit(msg, code)
	}
	fmt.Fprintln(cCtx.App.Writer, msg)
	return nil
}

func onboardAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cCtx)
	if err != nil {
		return cli.Exit(err, onboarding.ExitFailure)
	}
	rt, err := connect(ctx, cCtx, cfg, logger)
	if err != nil {
		return exit(cCtx, nil, err)
	}
	defer rt.Close()

	req, err := rt.request(ctx, cCtx)
	if err != nil {
		return exit(cCtx, nil, err)
	}
	result, err := rt.orchestrator.Run(ctx, req)
	return exit(cCtx, result, err)
}

func planAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	ctx := cCtx.Context

	cfg, err := loadConfig(cCtx)
	if err != nil {
		return cli.Exit(err, onboarding.ExitFailure)
	}
	rt, err := connect(ctx, cCtx, cfg, logger)
	if err != nil {
		return exit(cCtx, nil, err)
	}
	defer rt.Close()

	req, err := rt.request(ctx, cCtx)
	if err != nil {
		return exit(cCtx, nil, err)
	}
	plan, err := rt.orchestrator.Plan(ctx, req)
	if err != nil {
		return exit(cCtx, nil, err)
	}

	resp, err := api.NewPlanResponse(plan, rt.target.chain)
	if err != nil {
		return cli.Exit(err, onboarding.ExitFailure)
	}
	if cCtx.Bool(jsonFlag.Name) {
		return printJSON(cCtx.App.Writer, resp)
	}
	printPlan(cCtx.App.Writer, resp)
	return nil
}

func statusAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	ctx := cCtx.Context

	id, err := interfaces.ParseParaID(cCtx.String(paraIDFlag.Name))
	if err != nil {
		return cli.Exit(err, onboarding.ExitAborted)
	}
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return cli.Exit(err, onboarding.ExitFailure)
	}
	rt, err := connect(ctx, cCtx, cfg, logger)
	if err != nil {
		return exit(cCtx, nil, err)
	}
	defer rt.Close()

	nodes := rt.nodes()
	rows := make([]statusRow, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	for i, n := range nodes {
		g.Go(func() error {
			row, err := queryStatus(gctx, n, id)
			if err != nil {
				return fmt.Errorf("%s: %w", n.chain.Name, err)
			}
			row.Target = i == 0
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return exit(cCtx, nil, err)
	}

	if cCtx.Bool(jsonFlag.Name) {
		return printJSON(cCtx.App.Writer, rows)
	}
	printStatus(cCtx.App.Writer, id, rows)
	return nil
}

// statusRow is the state of a para on one chain.
type statusRow struct {
	Chain      string `json:"chain"`
	Target     bool   `json:"target"`
	Lease      bool   `json:"lease"`
	Lifecycle  string `json:"lifecycle"`
	Registered bool   `json:"registered"`
}

func queryStatus(ctx context.Context, n *node, id interfaces.ParaID) (statusRow, error) {
	row := statusRow{Chain: n.chain.Name}
	var err error
	if row.Lease, err = n.oracle.HasLease(ctx, id); err != nil {
		return row, err
	}
	lifecycle, err := n.oracle.Lifecycle(ctx, id)
	if err != nil {
		return row, err
	}
	row.Lifecycle = lifecycle.String()
	if row.Registered, err = n.oracle.IsRegistered(ctx, id); err != nil {
		return row, err
	}
	return row, nil
}

func sovereignAction(cCtx *cli.Context) error {
	id, err := interfaces.ParseParaID(cCtx.String(paraIDFlag.Name))
	if err != nil {
		return cli.Exit(err, onboarding.ExitAborted)
	}
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return cli.Exit(err, onboarding.ExitFailure)
	}
	account, err := cryptoutils.SovereignAccount(id)
	if err != nil {
		return cli.Exit(err, onboarding.ExitFailure)
	}

	var out []api.SovereignResponse
	for _, network := range append([]config.Network{cfg.Target}, cfg.References...) {
		chain, err := network.Chain()
		if err != nil {
			return cli.Exit(err, onboarding.ExitFailure)
		}
		address, err := cryptoutils.SS58Encode(account, chain.SS58Format)
		if err != nil {
			return cli.Exit(err, onboarding.ExitFailure)
		}
		out = append(out, api.SovereignResponse{
			ParaID:    uint32(id),
			Chain:     chain.Name,
			AccountID: account.String(),
			Address:   address,
		})
	}

	if cCtx.Bool(jsonFlag.Name) {
		return printJSON(cCtx.App.Writer, out)
	}
	printSovereign(cCtx.App.Writer, out)
	return nil
}

func serveAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	cfg, err := loadConfig(cCtx)
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		return err
	}

	logger.Info("Connecting to chains", "target", cfg.Target.Name, "uri", cfg.Target.URI, "references", len(cfg.References))
	rt, err := connect(cCtx.Context, cCtx, cfg, logger)
	if err != nil {
		logger.Error("Failed to connect", "err", err)
		return err
	}
	defer rt.Close()

	metrics.RegisterMetrics()

	handler := httpserver.NewHandler(rt.orchestrator, rt.loader, rt.target.chain, logger)
	server := httpserver.New(flags.ConfigureServer(cCtx, logger, cCtx.String(flags.ListenAddrFlag.Name), cfg.Submission.FinalityTimeout), handler)

	logger.Info("Starting server")
	server.RunInBackground()

	// Wait for termination signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-sig
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")
	return nil
}

func requestAction(cCtx *cli.Context) error {
	id, manager, err := paraAndManager(cCtx)
	if err != nil {
		return cli.Exit(err, onboarding.ExitAborted)
	}
	req := &api.OnboardRequest{
		ParaID:         uint32(id),
		Manager:        manager.String(),
		GenesisHead:    cCtx.StringSlice(genesisHeadFlag.Name),
		ValidationCode: cCtx.StringSlice(validationCodeFlag.Name),
	}
	client := clients.NewOnboardingClient(cCtx.String(flags.ServiceURLFlag.Name))

	if cCtx.Bool(dryRunFlag.Name) {
		plan, err := client.Plan(cCtx.Context, req)
		if err != nil {
			return requestFailed(err)
		}
		if cCtx.Bool(jsonFlag.Name) {
			return printJSON(cCtx.App.Writer, plan)
		}
		printPlan(cCtx.App.Writer, plan)
		return nil
	}

	resp, err := client.Onboard(cCtx.Context, req)
	if err != nil {
		return requestFailed(err)
	}
	if cCtx.Bool(jsonFlag.Name) {
		if err := printJSON(cCtx.App.Writer, resp); err != nil {
			return err
		}
	} else if resp.Receipt != nil {
		printReceipt(cCtx.App.Writer, resp.Receipt)
	}
	if resp.ExitCode != onboarding.ExitOK {
		return cli.Exit(resp.Message, resp.ExitCode)
	}
	fmt.Fprintln(cCtx.App.Writer, resp.Message)
	return nil
}

// requestFailed keeps the exit code the service reported, if any.
func requestFailed(err error) error {
	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) && statusErr.ExitCode != 0 {
		return cli.Exit(statusErr.Message, statusErr.ExitCode)
	}
	return cli.Exit(err, onboarding.ExitFailure)
}
