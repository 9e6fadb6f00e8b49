// Package interfaces defines the core types and contracts of the parachain
// onboarding system, separating definitions from implementations.
//
// # Data Model
//
//   - ParaID: 32-bit parachain identifier
//   - AccountID: 32-byte account identifier, rendered per chain with SS58
//   - Chain: chain-identifier tag carrying the SS58 address format
//   - Lifecycle: registration state of a parachain on the relay chain
//   - SlotKind: temporary or permanent slot assignment
//   - Operation: immutable tree of privileged runtime calls
//
// # Contracts
//
// ChainState answers the point-in-time questions the onboarding workflow
// asks of a chain (lease existence, registration lifecycle, next free id).
//
// Signer and CredentialProvider supply the signing identity and the
// privileged authority account. They are always passed explicitly.
//
// ContentSource and ContentSourceFactory resolve genesis and validation
// code payloads from inline hex, files, HTTP, S3, IPFS, GitHub or Vault.
//
// # Errors
//
// Failures are reported through sentinel errors (ErrQueryFailed,
// ErrInvalidHex, ErrPolicyViolation, ErrTransport, ...) and the structured
// DispatchError, all of which support errors.Is / errors.As.
package interfaces
