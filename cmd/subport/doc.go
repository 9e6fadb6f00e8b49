// Package main (cmd/subport) implements the command line tool that onboards
// parachains onto a relay chain.
//
// Every command reads a network profile: the target relay chain, the reference
// chains consulted for existing leases, the funding policy and the submission
// timeouts. Without --config the built-in Rococo profile is used. The
// --rococo-uri, --polkadot-uri and --kusama-uri flags (ROCOCO_URI,
// POLKADOT_URI, KUSAMA_URI) override the endpoints of the profile.
//
// Commands:
//
//	onboard    - Onboard a para and wait for the batch to be finalized
//	plan       - Show the batch an onboarding run would submit
//	status     - Show lease, lifecycle and registration on every configured chain
//	sovereign  - Derive the relay-chain sovereign account of a para
//	serve      - Serve the onboarding HTTP API
//	request    - Ask a running onboarding service to onboard a para
//
// Signing credentials are read only when a run reaches the submission: either
// a seed with the privileged proxy account (SEED, PROXY_ACCOUNT) or a
// HashiCorp Vault KV v2 secret (--vault-addr). With the default sr25519 key
// scheme the seed is a secret URI such as "//Alice" or a mnemonic with
// derivation junctions. --key-scheme=ecdsa (KEY_SCHEME) reads a hex secp256k1
// seed instead.
//
// The genesis head and validation code are content references, repeated to
// give mirrors that are tried in order:
//
//	0x1234...                            inline hex
//	./genesis-head.hex, file:///...      local file
//	https://host/para-2000-code.wasm     download
//	s3://bucket/key?region=eu-west-1     S3 object
//	ipfs://<cid>?api=localhost:5001      IPFS
//	github://owner/repo/path?ref=main    GitHub contents API
//	vault://host:8200/secret/paras/2000  Vault KV v2 field
//	onchain://polkadot/2000/code         state of a configured chain
//
// Example usage:
//
//	subport onboard --para-id=2000 \
//	    --manager=5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY \
//	    --genesis-head=./genesis-head.hex \
//	    --validation-code=./para.wasm \
//	    --validation-code=ipfs://bafy...
//
// The process exits with 0 on success or when the para already holds a slot,
// 2 when the run was aborted before submission, 3 when the batch was
// finalized but failed to dispatch, 4 when chain state could not be queried,
// 5 when the submission failed or was not finalized in time, and 1 otherwise.
package main
