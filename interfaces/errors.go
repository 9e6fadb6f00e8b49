package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrQueryFailed is returned when a chain state read did not resolve. A
	// failed read never stands in for a negative answer.
	ErrQueryFailed = errors.New("chain query failed")

	// ErrInvalidKeyMaterial is returned when a buffer cannot be used as an account public key.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrInvalidHex is returned for malformed hex payloads (odd length, bad digits).
	ErrInvalidHex = errors.New("invalid hex payload")

	// ErrPolicyViolation is returned when the requested onboarding breaks a workflow rule,
	// for example skipping ahead of the next free para id.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrTransport is returned for network or connection failures during submission.
	// Retrying the whole run is safe as long as no transaction was finalized.
	ErrTransport = errors.New("transport failure")

	// ErrRejected is returned when the node refuses a transaction before
	// broadcasting it, e.g. for a bad signature or an outdated nonce.
	ErrRejected = errors.New("transaction rejected by node")

	// ErrFinalityTimeout is returned when the submitted transaction was not seen in a
	// finalized block before the deadline. The transaction may still be finalized later.
	ErrFinalityTimeout = fmt.Errorf("%w: timed out waiting for finality", ErrTransport)

	// ErrMissingCredentials is returned when the signing identity or the privileged
	// authority account is not configured.
	ErrMissingCredentials = errors.New("missing credentials")
)

// DispatchError reports a transaction that was included in a finalized block
// but whose (inner) dispatch failed on chain.
type DispatchError struct {
	// Reason is the chain-reported error, e.g. "Registrar.AlreadyRegistered".
	Reason string

	// Event names the event that carried the failure, e.g. "Sudo.Sudid".
	Event string

	// BlockHash is the finalized block that included the transaction.
	BlockHash string
}

func (e *DispatchError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("dispatch failed (%s): %s", e.Event, e.Reason)
	}
	return "dispatch failed: " + e.Reason
}
