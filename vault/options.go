package vault

import (
	"log/slog"
	"time"

	"github.com/jmcleod/ironsign/storage"
)

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger used for retrieval diagnostics.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		if now != nil {
			v.now = now
		}
	}
}

// StoreOption configures StoreKey.
type StoreOption func(*storeOptions)

type storeOptions struct {
	metadata *storage.RecordMetadata
}

// WithMetadata records who the key was derived for. The metadata is bound
// into the ciphertext's AAD, so it cannot be altered without detection.
func WithMetadata(userID, credentialID string) StoreOption {
	return func(o *storeOptions) {
		o.metadata = &storage.RecordMetadata{UserID: userID, CredentialID: credentialID}
	}
}
