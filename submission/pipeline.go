// Package submission sends privileged operations to the relay chain and
// turns the finalized outcome into a receipt or a typed error.
//
// A submission is signed once, broadcast once and watched until it is part
// of a finalized block. Nothing is retried: a transport failure after
// broadcast leaves the transaction's fate unknown, and resubmitting it could
// apply the same privileged calls twice.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/metrics"
)

// DefaultFinalityTimeout bounds the wait for finality when the caller sets none.
const DefaultFinalityTimeout = 5 * time.Minute

// Transactor signs, broadcasts and watches one extrinsic.
type Transactor interface {
	SubmitAndWatch(ctx context.Context, op interfaces.Operation, signer interfaces.Signer) (*interfaces.Receipt, error)
}

// Pipeline submits operations through a Transactor and checks their dispatch outcome.
type Pipeline struct {
	transactor Transactor
	timeout    time.Duration
	log        *slog.Logger
}

// NewPipeline returns a pipeline that waits at most timeout for finality.
// A zero timeout selects DefaultFinalityTimeout.
func NewPipeline(transactor Transactor, timeout time.Duration, log *slog.Logger) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultFinalityTimeout
	}
	return &Pipeline{transactor: transactor, timeout: timeout, log: log}
}

// Submit dispatches op signed by signer and blocks until it is finalized.
// A finalized transaction whose dispatch failed yields *interfaces.DispatchError.
func (p *Pipeline) Submit(ctx context.Context, op interfaces.Operation, signer interfaces.Signer) (*interfaces.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	method := op.Method()
	start := time.Now()
	p.log.Info("submitting transaction", "method", method, "finality_timeout", p.timeout)

	receipt, err := p.transactor.SubmitAndWatch(ctx, op, signer)
	if err != nil {
		err = classify(err)
		metrics.RecordSubmission(method, outcome(err), false, 0)
		p.log.Error("submission failed", "method", method, "err", err, slog.Duration("duration", time.Since(start)))
		return nil, err
	}

	if err := Inspect(op, receipt); err != nil {
		metrics.RecordSubmission(method, "dispatch_failed", true, time.Since(start))
		p.log.Error("dispatch failed", "method", method, "block", receipt.BlockHash, "err", err)
		return receipt, err
	}

	metrics.RecordSubmission(method, "finalized", true, time.Since(start))
	p.log.Info("transaction finalized",
		"method", method,
		"tx_hash", receipt.TxHash,
		"block", receipt.BlockNumber,
		"block_hash", receipt.BlockHash,
		slog.Duration("duration", time.Since(start)),
	)
	return receipt, nil
}

// classify maps context expiry reported by the transactor onto the
// submission error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, interfaces.ErrTransport), errors.Is(err, interfaces.ErrRejected):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", interfaces.ErrFinalityTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", interfaces.ErrTransport, err)
	}
	return err
}

func outcome(err error) string {
	switch {
	case errors.Is(err, interfaces.ErrFinalityTimeout):
		return "timeout"
	case errors.Is(err, interfaces.ErrRejected):
		return "rejected"
	case errors.Is(err, interfaces.ErrTransport):
		return "transport"
	}
	return "error"
}

// Inspect checks the events of a finalized transaction. It fails on
// System.ExtrinsicFailed, on any event reporting a failed nested dispatch,
// and on a sudo-wrapped call that did not emit Sudo.Sudid.
func Inspect(op interfaces.Operation, receipt *interfaces.Receipt) error {
	sudid := false
	for _, event := range receipt.Events {
		name := event.FullName()
		if name == "Sudo.Sudid" {
			sudid = true
		}

		if name == "System.ExtrinsicFailed" {
			reason := "unknown dispatch error"
			if event.Result != nil && event.Result.Error != "" {
				reason = event.Result.Error
			}
			return &interfaces.DispatchError{Reason: reason, Event: name, BlockHash: receipt.BlockHash}
		}
		if event.Result != nil && !event.Result.Ok {
			return &interfaces.DispatchError{Reason: event.Result.Error, Event: name, BlockHash: receipt.BlockHash}
		}
	}

	if isSudo(op) && !sudid {
		return &interfaces.DispatchError{Reason: "Sudo.Sudid not emitted", BlockHash: receipt.BlockHash}
	}
	return nil
}

// isSudo reports whether op executes a Sudo.sudo call, directly or through a proxy.
func isSudo(op interfaces.Operation) bool {
	switch o := op.(type) {
	case interfaces.Sudo:
		return true
	case interfaces.Proxy:
		return isSudo(o.Call)
	}
	return false
}
