package identity

import "errors"

var (
	// ErrKeyDestroyed is returned when a SigningKey is used after Destroy.
	ErrKeyDestroyed = errors.New("signing key destroyed")
)
