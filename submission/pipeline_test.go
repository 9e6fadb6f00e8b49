package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func sudoOp() interfaces.Operation {
	return interfaces.Sudo{Call: interfaces.RemoveLock{ParaID: 2000}}
}

func proxiedOp() interfaces.Operation {
	return interfaces.Proxy{Real: interfaces.AccountID{0x01}, Call: sudoOp()}
}

func receipt(events ...interfaces.Event) *interfaces.Receipt {
	return &interfaces.Receipt{TxHash: "0xaa", BlockHash: "0xbb", BlockNumber: 7, ExtrinsicIndex: 1, Events: events}
}

func sudid(ok bool, reason string) interfaces.Event {
	return interfaces.Event{Pallet: "Sudo", Name: "Sudid", Result: &interfaces.DispatchResult{Ok: ok, Error: reason}}
}

var extrinsicSuccess = interfaces.Event{Pallet: "System", Name: "ExtrinsicSuccess"}

func TestSubmitFinalized(t *testing.T) {
	signer, err := cryptoutils.NewEcdsaSignerFromHex("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)

	transactor := new(MockTransactor)
	want := receipt(sudid(true, ""), extrinsicSuccess)
	transactor.On("SubmitAndWatch", mock.Anything, sudoOp(), signer).Return(want, nil).Once()

	got, err := NewPipeline(transactor, time.Minute, quietLog).Submit(context.Background(), sudoOp(), signer)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	transactor.AssertExpectations(t)
}

func TestSubmitDispatchFailures(t *testing.T) {
	tests := []struct {
		name   string
		op     interfaces.Operation
		events []interfaces.Event
		reason string
		event  string
	}{
		{
			name:   "inner sudo dispatch failed",
			op:     sudoOp(),
			events: []interfaces.Event{sudid(false, "Registrar.AlreadyRegistered"), extrinsicSuccess},
			reason: "Registrar.AlreadyRegistered",
			event:  "Sudo.Sudid",
		},
		{
			name: "proxied call failed",
			op:   proxiedOp(),
			events: []interfaces.Event{
				{Pallet: "Proxy", Name: "ProxyExecuted", Result: &interfaces.DispatchResult{Error: "BadOrigin"}},
				extrinsicSuccess,
			},
			reason: "BadOrigin",
			event:  "Proxy.ProxyExecuted",
		},
		{
			name: "batch interrupted",
			op:   sudoOp(),
			events: []interfaces.Event{
				{Pallet: "Utility", Name: "BatchInterrupted", Result: &interfaces.DispatchResult{Error: "Registrar.ParaLocked"}},
				sudid(true, ""),
			},
			reason: "Registrar.ParaLocked",
			event:  "Utility.BatchInterrupted",
		},
		{
			name: "extrinsic failed",
			op:   sudoOp(),
			events: []interfaces.Event{
				{Pallet: "System", Name: "ExtrinsicFailed", Result: &interfaces.DispatchResult{Error: "Sudo.RequireSudo"}},
			},
			reason: "Sudo.RequireSudo",
			event:  "System.ExtrinsicFailed",
		},
		{
			name:   "missing Sudid",
			op:     proxiedOp(),
			events: []interfaces.Event{extrinsicSuccess},
			reason: "Sudo.Sudid not emitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transactor := new(MockTransactor)
			transactor.On("SubmitAndWatch", mock.Anything, tt.op, nil).Return(receipt(tt.events...), nil)

			got, err := NewPipeline(transactor, 0, quietLog).Submit(context.Background(), tt.op, nil)

			var dispatchErr *interfaces.DispatchError
			require.ErrorAs(t, err, &dispatchErr)
			assert.Equal(t, tt.reason, dispatchErr.Reason)
			assert.Equal(t, tt.event, dispatchErr.Event)
			assert.Equal(t, "0xbb", dispatchErr.BlockHash)
			require.NotNil(t, got, "failed dispatches still return the receipt")
		})
	}
}

func TestSubmitUnwrappedCallNeedsNoSudid(t *testing.T) {
	assert.NoError(t, Inspect(interfaces.RemoveLock{ParaID: 2000}, receipt(extrinsicSuccess)))
}

func TestSubmitTransportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   []error
	}{
		{"rejected", fmt.Errorf("%w: bad signature", interfaces.ErrRejected), []error{interfaces.ErrRejected}},
		{"transport", fmt.Errorf("%w: connection reset", interfaces.ErrTransport), []error{interfaces.ErrTransport}},
		{"finality timeout", interfaces.ErrFinalityTimeout, []error{interfaces.ErrFinalityTimeout, interfaces.ErrTransport}},
		{"deadline", context.DeadlineExceeded, []error{interfaces.ErrFinalityTimeout, interfaces.ErrTransport}},
		{"cancelled", context.Canceled, []error{interfaces.ErrTransport}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transactor := new(MockTransactor)
			transactor.On("SubmitAndWatch", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			_, err := NewPipeline(transactor, time.Minute, quietLog).Submit(context.Background(), sudoOp(), nil)
			for _, target := range tt.is {
				assert.ErrorIs(t, err, target)
			}
			transactor.AssertNumberOfCalls(t, "SubmitAndWatch", 1)
		})
	}
}

func TestSubmitAppliesTimeout(t *testing.T) {
	transactor := new(MockTransactor)
	transactor.On("SubmitAndWatch", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			<-ctx.Done()
		}).
		Return(nil, errors.New("watch aborted: context deadline exceeded"))

	_, err := NewPipeline(transactor, 20*time.Millisecond, quietLog).Submit(context.Background(), sudoOp(), nil)
	assert.Error(t, err)
}
