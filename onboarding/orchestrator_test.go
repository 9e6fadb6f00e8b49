package onboarding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/paritytech/subport/calls"
	"github.com/paritytech/subport/chainstate"
	"github.com/paritytech/subport/credentials"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSeed = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	target     *chainstate.MockChainState
	polkadot   *chainstate.MockChainState
	kusama     *chainstate.MockChainState
	transactor *submission.MockTransactor
	signer     *cryptoutils.EcdsaSigner
	authority  interfaces.AccountID
	manager    interfaces.AccountID
	cfg        Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := cryptoutils.NewEcdsaSignerFromHex(testSeed)
	require.NoError(t, err)

	return &fixture{
		target:     &chainstate.MockChainState{ChainTag: interfaces.Rococo},
		polkadot:   &chainstate.MockChainState{ChainTag: interfaces.Polkadot},
		kusama:     &chainstate.MockChainState{ChainTag: interfaces.Kusama},
		transactor: new(submission.MockTransactor),
		signer:     signer,
		authority:  interfaces.AccountID{0xa0},
		manager:    interfaces.AccountID{0x4d},
		cfg:        DefaultConfig(),
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	return NewOrchestrator(
		f.target,
		[]interfaces.ChainState{f.polkadot, f.kusama},
		submission.NewPipeline(f.transactor, time.Minute, quietLog),
		credentials.NewStatic(f.signer, f.authority),
		f.cfg,
		quietLog,
	)
}

func (f *fixture) request(id interfaces.ParaID) Request {
	return Request{ParaID: id, Manager: f.manager, GenesisHead: []byte("0x0102"), ValidationCode: []byte("0x0304")}
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.target.AssertExpectations(t)
	f.polkadot.AssertExpectations(t)
	f.kusama.AssertExpectations(t)
	f.transactor.AssertExpectations(t)
}

func finalized(events ...interfaces.Event) *interfaces.Receipt {
	return &interfaces.Receipt{TxHash: "0x01", BlockHash: "0xfeed", BlockNumber: 42, ExtrinsicIndex: 1, Events: events}
}

var sudidOk = interfaces.Event{Pallet: "Sudo", Name: "Sudid", Result: &interfaces.DispatchResult{Ok: true}}

func TestOnboardFreshPara(t *testing.T) {
	f := newFixture(t)
	f.cfg.ReserveIDs = true
	ctx := mock.Anything

	f.target.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil).Once()
	f.polkadot.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil).Once()
	f.kusama.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil).Once()
	f.target.On("NextFreeParaID", ctx).Return(interfaces.ParaID(2001), nil).Once()
	f.target.On("Lifecycle", ctx, interfaces.ParaID(2000)).Return(interfaces.Unregistered, nil).Once()

	var submitted interfaces.Operation
	f.transactor.On("SubmitAndWatch", ctx, mock.Anything, f.signer).
		Run(func(args mock.Arguments) { submitted = args.Get(1).(interfaces.Operation) }).
		Return(finalized(sudidOk), nil).Once()

	result, err := f.orchestrator().Run(context.Background(), f.request(2000))
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, result.State)
	f.assertExpectations(t)

	// signer differs from the authority, so the batch goes through a proxy
	proxy, ok := submitted.(interfaces.Proxy)
	require.True(t, ok, "got %T", submitted)
	assert.Equal(t, f.authority, proxy.Real)
	sudo, ok := proxy.Call.(interfaces.Sudo)
	require.True(t, ok)
	batch, ok := sudo.Call.(interfaces.Batch)
	require.True(t, ok)
	assert.Equal(t, 1, calls.Count(submitted, func(op interfaces.Operation) bool { _, ok := op.(interfaces.Sudo); return ok }))

	sovereign, err := cryptoutils.SovereignAccount(2000)
	require.NoError(t, err)
	units := big.NewInt(10_000_000_000_000)
	assert.Equal(t, []interfaces.Operation{
		calls.ForceTransfer(f.authority, f.manager, units),
		calls.RegisterParachain(f.manager, big.NewInt(10_000), 2000, []byte{0x01, 0x02}, []byte{0x03, 0x04}),
		calls.ForceTransfer(f.authority, sovereign, units),
		calls.ScheduleSlotAssignment(2000, interfaces.TemporarySlot),
		calls.ScheduleRemoveLock(2000),
	}, batch.Calls)

	msg, code := Describe(result, err)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, msg, "#42")
}

func TestOnboardReservesNextFreeID(t *testing.T) {
	f := newFixture(t)
	f.cfg.ReserveIDs = true
	f.authority = f.signer.AccountID()
	ctx := mock.Anything

	f.target.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.polkadot.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.kusama.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.target.On("NextFreeParaID", ctx).Return(interfaces.ParaID(2000), nil)
	f.target.On("Lifecycle", ctx, interfaces.ParaID(2000)).Return(interfaces.Unregistered, nil)

	plan, err := f.orchestrator().Plan(context.Background(), f.request(2000))
	require.NoError(t, err)
	assert.True(t, plan.Reserve)
	require.Len(t, plan.Operations, 6)
	assert.Equal(t, calls.ReserveParaID(f.manager), plan.Operations[1])

	// signer is the authority: plain sudo
	_, ok := plan.Privileged.(interfaces.Sudo)
	assert.True(t, ok)
	f.transactor.AssertNotCalled(t, "SubmitAndWatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnboardAlreadyLeased(t *testing.T) {
	f := newFixture(t)
	f.target.On("HasLease", mock.Anything, interfaces.ParaID(2000)).Return(true, nil).Once()

	result, err := NewOrchestrator(
		f.target,
		[]interfaces.ChainState{f.polkadot, f.kusama},
		submission.NewPipeline(f.transactor, time.Minute, quietLog),
		credentials.Lazy(func(context.Context) (interfaces.CredentialProvider, error) {
			t.Fatal("credentials must not be read for an onboarded para")
			return nil, nil
		}),
		f.cfg,
		quietLog,
	).Run(context.Background(), f.request(2000))

	require.NoError(t, err)
	assert.Equal(t, StateAlreadyOnboarded, result.State)
	f.assertExpectations(t)
	f.polkadot.AssertNotCalled(t, "HasLease", mock.Anything, mock.Anything)
	f.transactor.AssertNotCalled(t, "SubmitAndWatch", mock.Anything, mock.Anything, mock.Anything)

	_, code := Describe(result, err)
	assert.Equal(t, ExitOK, code)
}

func TestOnboardAheadOfNextFreeID(t *testing.T) {
	f := newFixture(t)
	f.cfg.ReserveIDs = true
	ctx := mock.Anything

	f.target.On("HasLease", ctx, interfaces.ParaID(2005)).Return(false, nil)
	f.polkadot.On("HasLease", ctx, interfaces.ParaID(2005)).Return(false, nil)
	f.kusama.On("HasLease", ctx, interfaces.ParaID(2005)).Return(false, nil)
	f.target.On("NextFreeParaID", ctx).Return(interfaces.ParaID(2001), nil)

	result, err := f.orchestrator().Run(context.Background(), f.request(2005))
	assert.ErrorIs(t, err, interfaces.ErrPolicyViolation)
	require.NotNil(t, result)
	assert.Equal(t, StateAborted, result.State)
	f.target.AssertNotCalled(t, "Lifecycle", mock.Anything, mock.Anything)
	f.transactor.AssertNotCalled(t, "SubmitAndWatch", mock.Anything, mock.Anything, mock.Anything)

	_, code := Describe(result, err)
	assert.Equal(t, ExitAborted, code)
}

func TestOnboardPermanentSlotForRegisteredPara(t *testing.T) {
	f := newFixture(t)
	f.cfg.ReserveIDs = true
	faucet := interfaces.AccountID{0xfa}
	f.cfg.Faucet = &faucet
	ctx := mock.Anything

	f.target.On("HasLease", ctx, interfaces.ParaID(2004)).Return(false, nil)
	f.polkadot.On("HasLease", ctx, interfaces.ParaID(2004)).Return(false, nil)
	f.kusama.On("HasLease", ctx, interfaces.ParaID(2004)).Return(true, nil)
	f.target.On("Lifecycle", ctx, interfaces.ParaID(2004)).Return(interfaces.LifecycleParathread, nil)

	plan, err := f.orchestrator().Plan(context.Background(), f.request(2004))
	require.NoError(t, err)
	f.target.AssertNotCalled(t, "NextFreeParaID", mock.Anything)

	assert.Equal(t, interfaces.PermanentSlot, plan.SlotKind)
	sovereign, _ := cryptoutils.SovereignAccount(2004)
	require.Len(t, plan.Operations, 3)
	assert.Equal(t, calls.ForceTransfer(faucet, sovereign, big.NewInt(10_000_000_000_000)), plan.Operations[0])
	assert.Equal(t, calls.ScheduleSlotAssignment(2004, interfaces.PermanentSlot), plan.Operations[1])
	assert.Equal(t, calls.ScheduleRemoveLock(2004), plan.Operations[2])
}

func TestOnboardInvalidHexBeforeQueries(t *testing.T) {
	f := newFixture(t)
	req := f.request(2000)
	req.GenesisHead = []byte("0x123")

	result, err := f.orchestrator().Run(context.Background(), req)
	assert.ErrorIs(t, err, interfaces.ErrInvalidHex)
	assert.Equal(t, StateAborted, result.State)
	f.target.AssertNotCalled(t, "HasLease", mock.Anything, mock.Anything)

	_, err = f.orchestrator().Plan(context.Background(), Request{ParaID: 2000, GenesisHead: []byte("0x00"), ValidationCode: []byte("0xzz")})
	assert.ErrorIs(t, err, interfaces.ErrInvalidHex)
}

func TestOnboardQueryFailurePropagates(t *testing.T) {
	f := newFixture(t)
	ctx := mock.Anything
	queryErr := fmt.Errorf("%w: rpc timeout", interfaces.ErrQueryFailed)

	f.target.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.polkadot.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil).Maybe()
	f.kusama.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, queryErr)

	result, err := f.orchestrator().Run(context.Background(), f.request(2000))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, interfaces.ErrQueryFailed)
	assert.Contains(t, err.Error(), "kusama")
	f.transactor.AssertNotCalled(t, "SubmitAndWatch", mock.Anything, mock.Anything, mock.Anything)

	_, code := Describe(result, err)
	assert.Equal(t, ExitQueryFailed, code)
}

func TestOnboardDispatchFailed(t *testing.T) {
	f := newFixture(t)
	ctx := mock.Anything

	f.target.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.polkadot.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.kusama.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.target.On("Lifecycle", ctx, interfaces.ParaID(2000)).Return(interfaces.Unregistered, nil)
	f.transactor.On("SubmitAndWatch", ctx, mock.Anything, f.signer).Return(finalized(
		interfaces.Event{Pallet: "Sudo", Name: "Sudid", Result: &interfaces.DispatchResult{Error: "Registrar.AlreadyRegistered"}},
	), nil).Once()

	result, err := f.orchestrator().Run(context.Background(), f.request(2000))
	var dispatchErr *interfaces.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, StateDispatchFailed, result.State)
	assert.Equal(t, "0xfeed", result.Receipt.BlockHash)

	msg, code := Describe(result, err)
	assert.Equal(t, ExitDispatchFailed, code)
	assert.Contains(t, msg, "Registrar.AlreadyRegistered")
}

func TestOnboardTransportFailure(t *testing.T) {
	f := newFixture(t)
	ctx := mock.Anything

	f.target.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.polkadot.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.kusama.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.target.On("Lifecycle", ctx, interfaces.ParaID(2000)).Return(interfaces.Unregistered, nil)
	f.transactor.On("SubmitAndWatch", ctx, mock.Anything, mock.Anything).Return(nil, interfaces.ErrFinalityTimeout).Once()

	result, err := f.orchestrator().Run(context.Background(), f.request(2000))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, interfaces.ErrTransport)
	f.transactor.AssertNumberOfCalls(t, "SubmitAndWatch", 1)

	_, code := Describe(result, err)
	assert.Equal(t, ExitTransport, code)
}

func TestOnboardMissingCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := mock.Anything

	f.target.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.polkadot.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.kusama.On("HasLease", ctx, interfaces.ParaID(2000)).Return(false, nil)
	f.target.On("Lifecycle", ctx, interfaces.ParaID(2000)).Return(interfaces.Unregistered, nil)

	_, err := NewOrchestrator(f.target, []interfaces.ChainState{f.polkadot, f.kusama},
		submission.NewPipeline(f.transactor, time.Minute, quietLog),
		credentials.Lazy(func(context.Context) (interfaces.CredentialProvider, error) {
			return credentials.NewStaticFromSecrets(cryptoutils.Sr25519, "", "")
		}),
		f.cfg, quietLog,
	).Run(context.Background(), f.request(2000))
	assert.ErrorIs(t, err, interfaces.ErrMissingCredentials)

	_, code := Describe(nil, err)
	assert.Equal(t, ExitFailure, code)
}
