// Package onboarding drives a parachain through the onboarding workflow on a
// relay chain.
//
// A run inspects live chain state, decides which privileged operations are
// still missing, and submits all of them as one atomic batch through the
// privileged signing path:
//
//  1. A para that already holds a lease on the target chain is left alone.
//  2. A para leased on any reference chain (Polkadot, Kusama) receives a
//     permanent slot, every other para a temporary one.
//  3. Optionally, a para that is the next free id gets it reserved.
//  4. An unregistered para is funded and registered; the sovereign account is
//     always funded and the slot assignment and lock removal are scheduled.
//  5. The batch is wrapped for root dispatch and submitted exactly once.
//
// Nothing is persisted between runs: every decision is re-derived from chain
// state, so re-running after a failure converges on the same operations.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/paritytech/subport/calls"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/metrics"
	"golang.org/x/sync/errgroup"
)

// Submitter dispatches a privileged operation and waits for finality.
type Submitter interface {
	Submit(ctx context.Context, op interfaces.Operation, signer interfaces.Signer) (*interfaces.Receipt, error)
}

// Config holds the policy knobs of a run.
type Config struct {
	// ManagerFunds is transferred to the manager before registration.
	ManagerFunds *big.Int
	// SovereignFunds is transferred to the para's sovereign account.
	SovereignFunds *big.Int
	// RegisterDeposit is the deposit recorded by force_register.
	RegisterDeposit *big.Int

	// Faucet is the source of both transfers. Nil means the privileged authority.
	Faucet *interfaces.AccountID

	// ReserveIDs enables reserving the para id when it is the next free one.
	ReserveIDs bool

	// SlotDelay is the scheduling delay of the slot assignment in blocks.
	// The lock removal is scheduled at twice this delay.
	SlotDelay uint32
}

// DefaultConfig returns the amounts and delays used on Rococo.
func DefaultConfig() Config {
	return Config{
		ManagerFunds:    big.NewInt(10_000_000_000_000),
		SovereignFunds:  big.NewInt(10_000_000_000_000),
		RegisterDeposit: big.NewInt(10_000),
		SlotDelay:       calls.SlotAssignmentDelay,
	}
}

// Request names the para to onboard.
type Request struct {
	ParaID  interfaces.ParaID
	Manager interfaces.AccountID

	// GenesisHead and ValidationCode hold loaded content: 0x-prefixed hex
	// text or raw binary.
	GenesisHead    []byte
	ValidationCode []byte
}

// Plan is the outcome of steps 1 to 4: what a run would submit.
type Plan struct {
	ParaID           interfaces.ParaID
	AlreadyOnboarded bool

	SlotKind   interfaces.SlotKind
	Lifecycle  interfaces.Lifecycle
	Reserve    bool
	Sovereign  interfaces.AccountID
	Operations []interfaces.Operation

	// Privileged is the wrapped batch submitted by Run. Nil when AlreadyOnboarded.
	Privileged interfaces.Operation

	credentials *interfaces.Credentials
}

// Orchestrator runs the onboarding workflow against one target chain.
type Orchestrator struct {
	target      interfaces.ChainState
	references  []interfaces.ChainState
	submitter   Submitter
	credentials interfaces.CredentialProvider
	cfg         Config
	log         *slog.Logger
}

// NewOrchestrator wires an orchestrator. references are queried for leases
// to choose the slot kind.
func NewOrchestrator(target interfaces.ChainState, references []interfaces.ChainState, submitter Submitter, credentials interfaces.CredentialProvider, cfg Config, log *slog.Logger) *Orchestrator {
	if cfg.SlotDelay == 0 {
		cfg.SlotDelay = calls.SlotAssignmentDelay
	}
	cfg.SlotDelay = min(cfg.SlotDelay, calls.MaxSlotDelay)
	return &Orchestrator{
		target:      target,
		references:  references,
		submitter:   submitter,
		credentials: credentials,
		cfg:         cfg,
		log:         log.With("chain", target.Chain().Name),
	}
}

// Plan evaluates the workflow up to the submission without submitting.
func (o *Orchestrator) Plan(ctx context.Context, req Request) (*Plan, error) {
	genesis, code, err := decodePayloads(req)
	if err != nil {
		return nil, err
	}
	return o.plan(ctx, req, genesis, code)
}

// Run executes the workflow. A nil error comes with StateSuccess or
// StateAlreadyOnboarded. Policy violations and dispatch failures return a
// result carrying the terminal state together with the error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (result *Result, err error) {
	start := time.Now()
	log := o.log.With("para_id", req.ParaID)
	defer func() {
		state := StateOf(result, err)
		metrics.RecordRun(o.target.Chain().Name, state.String(), time.Since(start))
		log.Info("onboarding finished", "state", state, "err", err, slog.Duration("duration", time.Since(start)))
	}()

	genesis, code, err := decodePayloads(req)
	if err != nil {
		return &Result{ParaID: req.ParaID, State: StateAborted}, err
	}

	plan, err := o.plan(ctx, req, genesis, code)
	if err != nil {
		if errors.Is(err, interfaces.ErrPolicyViolation) {
			return &Result{ParaID: req.ParaID, State: StateAborted}, err
		}
		return nil, err
	}
	if plan.AlreadyOnboarded {
		return &Result{ParaID: req.ParaID, State: StateAlreadyOnboarded, Plan: plan}, nil
	}

	log.Info("submitting onboarding batch",
		"slot_kind", plan.SlotKind,
		"lifecycle", plan.Lifecycle,
		"operations", len(plan.Operations),
		"method", plan.Privileged.Method(),
	)

	receipt, err := o.submitter.Submit(ctx, plan.Privileged, plan.credentials.Signer)
	var dispatchErr *interfaces.DispatchError
	switch {
	case errors.As(err, &dispatchErr):
		return &Result{ParaID: req.ParaID, State: StateDispatchFailed, Plan: plan, Receipt: receipt}, err
	case err != nil:
		return nil, err
	}

	return &Result{ParaID: req.ParaID, State: StateSuccess, Plan: plan, Receipt: receipt}, nil
}

// decodePayloads runs before any chain query so malformed input never costs a round trip.
func decodePayloads(req Request) (genesis, code []byte, err error) {
	if genesis, err = calls.ParsePayload(req.GenesisHead); err != nil {
		return nil, nil, fmt.Errorf("genesis head: %w", err)
	}
	if code, err = calls.ParsePayload(req.ValidationCode); err != nil {
		return nil, nil, fmt.Errorf("validation code: %w", err)
	}
	return genesis, code, nil
}

func (o *Orchestrator) plan(ctx context.Context, req Request, genesis, code []byte) (*Plan, error) {
	id := req.ParaID
	log := o.log.With("para_id", id)
	plan := &Plan{ParaID: id}

	// 1. existing slot
	leased, err := o.target.HasLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if leased {
		log.Info("para already holds a slot")
		plan.AlreadyOnboarded = true
		return plan, nil
	}

	// 2. slot kind
	if plan.SlotKind, err = o.slotKind(ctx, id); err != nil {
		return nil, err
	}
	log.Debug("slot kind determined", "slot_kind", plan.SlotKind)

	// 3. reservation
	if o.cfg.ReserveIDs && plan.SlotKind == interfaces.TemporarySlot {
		next, err := o.target.NextFreeParaID(ctx)
		if err != nil {
			return nil, err
		}
		switch {
		case id > next:
			return nil, fmt.Errorf("%w: para id %d is ahead of the next free id %d", interfaces.ErrPolicyViolation, id, next)
		case id == next:
			plan.Reserve = true
		}
		log.Debug("para id checked against next free id", "next_free", next, "reserve", plan.Reserve)
	}

	// 4. operations
	if plan.Lifecycle, err = o.target.Lifecycle(ctx, id); err != nil {
		return nil, err
	}
	if plan.Sovereign, err = cryptoutils.SovereignAccount(id); err != nil {
		return nil, err
	}

	creds, err := o.credentials.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	if creds.Signer == nil || creds.Authority.IsZero() {
		return nil, fmt.Errorf("%w: signer and authority are required", interfaces.ErrMissingCredentials)
	}
	plan.credentials = creds

	faucet := creds.Authority
	if o.cfg.Faucet != nil {
		faucet = *o.cfg.Faucet
	}

	if !plan.Lifecycle.IsRegistered() {
		plan.Operations = append(plan.Operations, calls.ForceTransfer(faucet, req.Manager, o.cfg.ManagerFunds))
		if plan.Reserve {
			plan.Operations = append(plan.Operations, calls.ReserveParaID(req.Manager))
		}
		plan.Operations = append(plan.Operations, calls.RegisterParachain(req.Manager, o.cfg.RegisterDeposit, id, genesis, code))
	} else {
		log.Info("para already registered, skipping registration", "lifecycle", plan.Lifecycle)
	}
	plan.Operations = append(plan.Operations,
		calls.ForceTransfer(faucet, plan.Sovereign, o.cfg.SovereignFunds),
		calls.ScheduleSlotAssignmentAfter(id, plan.SlotKind, o.cfg.SlotDelay),
		calls.ScheduleRemoveLockAfter(id, o.cfg.SlotDelay),
	)

	// 5. composition
	plan.Privileged = calls.WrapPrivileged(calls.Batch(plan.Operations...), creds.Signer.AccountID(), creds.Authority)
	return plan, nil
}

// slotKind queries every reference chain concurrently. Any lease elsewhere
// earns a permanent slot; any failed query fails the run.
func (o *Orchestrator) slotKind(ctx context.Context, id interfaces.ParaID) (interfaces.SlotKind, error) {
	leases := make([]bool, len(o.references))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range o.references {
		g.Go(func() error {
			leased, err := ref.HasLease(gctx, id)
			if err != nil {
				return fmt.Errorf("%s: %w", ref.Chain().Name, err)
			}
			leases[i] = leased
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return interfaces.TemporarySlot, err
	}

	for i, leased := range leases {
		if leased {
			o.log.Info("para holds a lease on a reference chain", "para_id", id, "reference", o.references[i].Chain().Name)
			return interfaces.PermanentSlot, nil
		}
	}
	return interfaces.TemporarySlot, nil
}
