// Package crypto holds the device-side primitives behind offline proofs:
// canonical JSON encoding of proof inputs, domain-separated input digests,
// HKDF-derived ed25519 device keys and signed placeholder tokens.
//
// The proof-generation protocol itself is out of scope; a placeholder only
// binds a digest, a nonce and timestamps to the device that produced them.
package crypto
