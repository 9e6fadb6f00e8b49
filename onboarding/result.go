package onboarding

import (
	"errors"
	"fmt"

	"github.com/paritytech/subport/interfaces"
)

// State is the terminal state of a run.
type State int

const (
	// StateFailed covers runs that ended in an error before reaching the chain's verdict.
	StateFailed State = iota
	StateSuccess
	StateAlreadyOnboarded
	StateAborted
	StateDispatchFailed
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateAlreadyOnboarded:
		return "already_onboarded"
	case StateAborted:
		return "aborted"
	case StateDispatchFailed:
		return "dispatch_failed"
	default:
		return "failed"
	}
}

// Result describes a finished run.
type Result struct {
	ParaID  interfaces.ParaID
	State   State
	Plan    *Plan
	Receipt *interfaces.Receipt
}

// Exit codes of the command line tool.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitAborted        = 2
	ExitDispatchFailed = 3
	ExitQueryFailed    = 4
	ExitTransport      = 5
)

// StateOf returns the terminal state of a run from its outcome.
func StateOf(result *Result, err error) State {
	if result != nil {
		return result.State
	}
	if err == nil {
		return StateSuccess
	}
	return StateFailed
}

// Describe renders the outcome of a run as a one-line message and an exit code.
func Describe(result *Result, err error) (string, int) {
	var dispatchErr *interfaces.DispatchError

	switch {
	case err == nil && result != nil && result.State == StateAlreadyOnboarded:
		return fmt.Sprintf("para %d already holds a slot, nothing to do", result.ParaID), ExitOK
	case err == nil && result != nil:
		msg := fmt.Sprintf("para %d onboarded", result.ParaID)
		if result.Receipt != nil {
			msg += fmt.Sprintf(" in finalized block #%d (%s)", result.Receipt.BlockNumber, result.Receipt.BlockHash)
		}
		return msg, ExitOK
	case err == nil:
		return "nothing to do", ExitOK
	case errors.As(err, &dispatchErr):
		return fmt.Sprintf("onboarding dispatch failed: %s", dispatchErr.Reason), ExitDispatchFailed
	case errors.Is(err, interfaces.ErrPolicyViolation),
		errors.Is(err, interfaces.ErrInvalidHex),
		errors.Is(err, interfaces.ErrInvalidKeyMaterial):
		return fmt.Sprintf("onboarding aborted: %v", err), ExitAborted
	case errors.Is(err, interfaces.ErrQueryFailed):
		return fmt.Sprintf("chain state query failed: %v", err), ExitQueryFailed
	case errors.Is(err, interfaces.ErrFinalityTimeout):
		return fmt.Sprintf("transaction not finalized in time, check the chain before retrying: %v", err), ExitTransport
	case errors.Is(err, interfaces.ErrTransport), errors.Is(err, interfaces.ErrRejected):
		return fmt.Sprintf("submission failed: %v", err), ExitTransport
	}
	return fmt.Sprintf("onboarding failed: %v", err), ExitFailure
}
