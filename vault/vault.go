// Package vault provides an encrypted local store for derived signing keys.
//
// The vault is advisory cache state: every record it holds can be recomputed
// from the credential and user identifiers, so losing it never loses an
// identity. Records are sealed with crypto.Encrypt under a caller-supplied
// password and keyed by credential ID.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmcleod/ironsign/crypto"
	icrypto "github.com/jmcleod/ironsign/internal/crypto"
	"github.com/jmcleod/ironsign/storage"
)

// Vault stores encrypted key records in a storage.Repository.
type Vault struct {
	repo   storage.Repository
	logger *slog.Logger
	now    func() time.Time
}

// Entry is a decrypted key record.
type Entry struct {
	ID       string
	Key      []byte
	Metadata *storage.RecordMetadata
	StoredAt time.Time
}

// New creates a Vault backed by repo.
func New(repo storage.Repository, opts ...Option) *Vault {
	v := &Vault{
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// StoreKey encrypts key under password and persists it as the record for id,
// replacing any existing record (last write wins). Each call uses a fresh
// random salt and IV.
func (v *Vault) StoreKey(ctx context.Context, id string, key []byte, password string, opts ...StoreOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if len(key) == 0 {
		return fmt.Errorf("%w: key must not be empty", crypto.ErrInvalidInput)
	}

	o := storeOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	sealed, err := crypto.Encrypt(key, password, crypto.WithAAD(recordAAD(id, o.metadata)))
	if err != nil {
		return fmt.Errorf("sealing key: %w", err)
	}

	record := &storage.Record{
		ID:           id,
		EncryptedKey: sealed.Ciphertext,
		IV:           sealed.IV,
		Salt:         sealed.Salt,
		Timestamp:    v.now().UnixMilli(),
		Metadata:     o.metadata,
	}
	if err := v.repo.Put(ctx, record); err != nil {
		return fmt.Errorf("storing key record: %w", err)
	}
	v.logger.Debug("stored encrypted key record", slog.String("id", id))
	return nil
}

// RetrieveKey returns the decrypted key for id. A missing record, a wrong
// password, corrupted data, and an unreachable backend all yield the same
// absent result so an untrusted caller cannot tell them apart; the cause is
// logged. Use Lookup when the distinction matters.
func (v *Vault) RetrieveKey(ctx context.Context, id, password string) ([]byte, bool) {
	entry, err := v.Lookup(ctx, id, password)
	if err != nil {
		v.logLookupFailure(id, err)
		return nil, false
	}
	return entry.Key, true
}

// Lookup returns the decrypted record for id. Errors keep their cause:
// storage.ErrNotFound, crypto.ErrAuthentication, storage.ErrUnavailable,
// or ErrInvalidID.
func (v *Vault) Lookup(ctx context.Context, id, password string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", crypto.ErrInvalidInput)
	}
	record, err := v.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.ID != id {
		return nil, fmt.Errorf("%w: record ID mismatch", crypto.ErrAuthentication)
	}

	key, err := crypto.Decrypt(record.EncryptedKey, record.IV, record.Salt, password,
		crypto.WithAAD(recordAAD(id, record.Metadata)))
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidInput) {
			// Damaged IV or salt lengths are corruption, not caller error.
			return nil, fmt.Errorf("%w: %v", crypto.ErrAuthentication, err)
		}
		return nil, err
	}
	return &Entry{
		ID:       id,
		Key:      key,
		Metadata: record.Metadata,
		StoredAt: record.StoredAt(),
	}, nil
}

// Record returns the stored (still encrypted) record for id.
func (v *Vault) Record(ctx context.Context, id string) (*storage.Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return v.repo.Get(ctx, id)
}

// HasKey reports whether a record exists for id.
func (v *Vault) HasKey(ctx context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	return v.repo.Exists(ctx, id)
}

// DeleteKey removes the record for id. Deleting a missing record is not an error.
func (v *Vault) DeleteKey(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := v.repo.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("deleting key record: %w", err)
	}
	v.logger.Debug("deleted key record", slog.String("id", id))
	return nil
}

// ClearAll removes every record.
func (v *Vault) ClearAll(ctx context.Context) error {
	if err := v.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clearing key records: %w", err)
	}
	v.logger.Info("cleared all key records")
	return nil
}

// ListIDs returns the IDs of all stored records.
func (v *Vault) ListIDs(ctx context.Context) ([]string, error) {
	return v.repo.List(ctx)
}

func (v *Vault) logLookupFailure(id string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		v.logger.Debug("key record not found", slog.String("id", id))
	case errors.Is(err, crypto.ErrAuthentication):
		v.logger.Warn("key record failed authentication", slog.String("id", id))
	case errors.Is(err, storage.ErrUnavailable):
		v.logger.Warn("key storage unavailable", slog.String("id", id), slog.Any("error", err))
	default:
		v.logger.Warn("key record lookup failed", slog.String("id", id), slog.Any("error", err))
	}
}

func recordAAD(id string, md *storage.RecordMetadata) []byte {
	var userID, credentialID string
	if md != nil {
		userID, credentialID = md.UserID, md.CredentialID
	}
	return icrypto.AADKeyRecord(id, userID, credentialID, icrypto.RecordVersion)
}
