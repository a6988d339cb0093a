package crypto

import "errors"

var (
	// ErrInvalidInput indicates an empty or malformed identifier, message, or password.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidKey indicates a signing key that is not a 32-byte scalar in [1, n-1].
	ErrInvalidKey = errors.New("invalid signing key")
	// ErrKeyDerivationExhausted indicates the scalar retry bound was exceeded.
	// It is unreachable in practice and must be treated as fatal.
	ErrKeyDerivationExhausted = errors.New("key derivation exhausted scalar retries")
	// ErrAuthentication indicates an AEAD tag mismatch: wrong password or tampered data.
	ErrAuthentication = errors.New("authentication failed")
	// ErrMalformedSignature indicates a signature of the wrong length or encoding.
	ErrMalformedSignature = errors.New("malformed signature")
)
