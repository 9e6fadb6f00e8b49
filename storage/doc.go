// Package storage loads the genesis head and validation code payloads of a
// parachain from wherever its team published them.
//
// A payload is named by a reference string. Several references can be given
// for the same payload; they are treated as mirrors and tried in order until
// one of them serves the content.
//
// # Reference Format
//
// References are either literal hex, a plain path, or a URI:
//
//	0x<hex>                                   inline payload
//	./genesis-head.hex                        local file
//	file:///srv/para/validation-code.wasm     local file
//	https://example.com/para/genesis-head     HTTP(S) download
//	s3://bucket/para/code.wasm?region=eu-central-1&endpoint=minio:9000
//	ipfs://<cid>?api=127.0.0.1:5001
//	github://owner/repo/path/to/file?ref=main
//	vault://vault.example.com:8200/secret/para?field=genesis_head
//	onchain://kusama/2000/code                payload of a para live on another relay chain
//
// Content is returned as stored. Files holding 0x-prefixed hex text are
// decoded later, when the payload is turned into call arguments; binary
// files such as a compiled wasm blob are used unchanged.
//
// # Usage
//
//	factory := storage.NewSourceFactory(log, readers)
//	loader := storage.NewLoader(factory, log)
//	code, err := loader.Fetch(ctx, "ipfs://bafy...", "https://mirror.example.com/code.wasm")
package storage
