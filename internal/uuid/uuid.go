// Package uuid wraps google/uuid for identifiers that never leave the process.
package uuid

import "github.com/google/uuid"

// New returns a random (v4) UUID string.
func New() string {
	return uuid.NewString()
}
