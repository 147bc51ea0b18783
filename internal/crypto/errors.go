package crypto

import "errors"

var (
	// ErrNotCanonical is returned for values that have no canonical JSON
	// form (floats, nulls, unsupported types).
	ErrNotCanonical = errors.New("value has no canonical JSON form")

	// ErrInvalidPlaceholder is returned when a placeholder token cannot be
	// verified against the device public key.
	ErrInvalidPlaceholder = errors.New("invalid proof placeholder")

	// ErrInvalidPublicKey is returned for malformed device public keys.
	ErrInvalidPublicKey = errors.New("invalid device public key")

	// ErrInvalidIdentity is returned when the device identity file is
	// corrupt.
	ErrInvalidIdentity = errors.New("invalid device identity")
)
