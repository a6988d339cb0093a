// Package identity ties key derivation, the encrypted vault, and signing into
// a single deterministic identity per (credential, user) pair.
//
// The vault is a cache: when a record is missing, unreadable, or belongs to
// someone else, the Manager silently re-derives the same key from the
// identifiers and re-stores it under a fresh password.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/patrickmn/go-cache"

	"github.com/jmcleod/ironsign/crypto"
	"github.com/jmcleod/ironsign/internal/util"
	"github.com/jmcleod/ironsign/internal/uuid"
	"github.com/jmcleod/ironsign/storage"
	"github.com/jmcleod/ironsign/vault"
)

// Manager derives, caches, and uses signing keys.
type Manager struct {
	vault       *vault.Vault
	passwords   *cache.Cache
	logger      *slog.Logger
	metrics     *Metrics
	deriveOpts  []crypto.DeriveOption
	signOpts    []crypto.SignOption
	passwordTTL time.Duration

	mu        sync.RWMutex
	sessionID string
}

// New creates a Manager backed by v.
func New(v *vault.Vault, opts ...Option) *Manager {
	m := &Manager{
		vault:       v,
		logger:      slog.Default(),
		passwordTTL: DefaultPasswordTTL,
		sessionID:   uuid.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.passwords = cache.New(m.passwordTTL, m.passwordTTL)
	return m
}

// SessionID identifies the current password-cache session. It changes on
// EndSession.
func (m *Manager) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// DeriveAndStore derives the signing key for (credentialID, userID), seals it
// in the vault under a freshly generated password, and caches that password
// for the session. A storage failure is logged and the key is still returned.
func (m *Manager) DeriveAndStore(ctx context.Context, credentialID, userID string) (*SigningKey, error) {
	start := time.Now()
	key, err := crypto.DeriveSigningKey(credentialID, userID, m.deriveOpts...)
	if err != nil {
		return nil, err
	}
	m.metrics.observeDerive(time.Since(start))

	password, err := crypto.GeneratePassword(crypto.DefaultPasswordLength)
	if err != nil {
		util.WipeBytes(key)
		return nil, fmt.Errorf("generating vault password: %w", err)
	}

	err = m.vault.StoreKey(ctx, credentialID, key, password, vault.WithMetadata(userID, credentialID))
	if err != nil {
		m.logger.Warn("storing derived key failed; continuing without cache",
			slog.String("credential_id", credentialID),
			slog.Any("error", err))
	} else {
		m.cachePassword(credentialID, password)
		m.logger.Debug("derived and stored signing key",
			slog.String("credential_id", credentialID),
			slog.String("session_id", m.SessionID()))
	}

	return newSigningKey(key, m.signOpts)
}

// LoadOrRederive returns the signing key for (credentialID, userID), reading
// it from the vault when this session holds its password and the stored
// record belongs to userID. Every other outcome falls back to DeriveAndStore,
// which yields the same key.
func (m *Manager) LoadOrRederive(ctx context.Context, credentialID, userID string) (*SigningKey, error) {
	if err := crypto.ValidateIdentifier(credentialID, "credential ID"); err != nil {
		return nil, err
	}
	if err := crypto.ValidateIdentifier(userID, "user ID"); err != nil {
		return nil, err
	}

	if key, ok := m.loadCached(ctx, credentialID, userID); ok {
		return newSigningKey(key, m.signOpts)
	}
	return m.DeriveAndStore(ctx, credentialID, userID)
}

func (m *Manager) loadCached(ctx context.Context, credentialID, userID string) ([]byte, bool) {
	password, ok := m.cachedPassword(credentialID)
	if !ok {
		m.metrics.lookup(LookupNoPassword)
		return nil, false
	}

	entry, err := m.vault.Lookup(ctx, credentialID, password)
	if err != nil {
		result := lookupResult(err)
		m.metrics.lookup(result)
		m.logger.Debug("vault lookup missed; re-deriving",
			slog.String("credential_id", credentialID),
			slog.String("result", result))
		return nil, false
	}

	md := entry.Metadata
	if md == nil || md.UserID != userID || md.CredentialID != credentialID {
		util.WipeBytes(entry.Key)
		m.metrics.lookup(LookupMismatch)
		m.logger.Warn("vault record belongs to another identity; re-deriving",
			slog.String("credential_id", credentialID))
		return nil, false
	}

	m.metrics.lookup(LookupHit)
	return entry.Key, true
}

func lookupResult(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return LookupNotFound
	case errors.Is(err, crypto.ErrAuthentication):
		return LookupAuthFailed
	case errors.Is(err, storage.ErrUnavailable):
		return LookupUnavailable
	default:
		return LookupError
	}
}

// Sign signs message with the identity for (credentialID, userID).
func (m *Manager) Sign(ctx context.Context, credentialID, userID string, message []byte) (crypto.Signature, error) {
	key, err := m.LoadOrRederive(ctx, credentialID, userID)
	if err != nil {
		return crypto.Signature{}, err
	}
	defer key.Destroy()

	sig, err := key.Sign(message)
	if err != nil {
		return crypto.Signature{}, err
	}
	m.metrics.signed()
	return sig, nil
}

// PublicKey returns the compressed public key for (credentialID, userID).
func (m *Manager) PublicKey(ctx context.Context, credentialID, userID string) ([]byte, error) {
	key, err := m.LoadOrRederive(ctx, credentialID, userID)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()
	return key.PublicKey(), nil
}

// Verify reports whether sig is a valid signature of message by publicKey,
// using the Manager's hash scheme.
func (m *Manager) Verify(message []byte, sig crypto.Signature, publicKey []byte) bool {
	return crypto.Verify(message, sig, publicKey, m.signOpts...)
}

// Revoke deletes the stored record for credentialID and forgets its password.
func (m *Manager) Revoke(ctx context.Context, credentialID string) error {
	m.passwords.Delete(credentialID)
	if err := m.vault.DeleteKey(ctx, credentialID); err != nil {
		return err
	}
	m.logger.Info("revoked stored key", slog.String("credential_id", credentialID))
	return nil
}

// EndSession forgets every cached password and starts a new session. Stored
// records stay in the vault but can no longer be opened; the next load
// re-derives and overwrites them.
func (m *Manager) EndSession() {
	m.passwords.Flush()
	m.mu.Lock()
	old := m.sessionID
	m.sessionID = uuid.New()
	m.mu.Unlock()
	m.logger.Debug("ended session", slog.String("session_id", old))
}

func (m *Manager) cachePassword(credentialID, password string) {
	m.passwords.Set(credentialID, memguard.NewEnclave([]byte(password)), cache.DefaultExpiration)
}

func (m *Manager) cachedPassword(credentialID string) (string, bool) {
	v, ok := m.passwords.Get(credentialID)
	if !ok {
		return "", false
	}
	enclave, ok := v.(*memguard.Enclave)
	if !ok || enclave == nil {
		return "", false
	}
	buf, err := enclave.Open()
	if err != nil {
		m.logger.Warn("opening cached password failed", slog.Any("error", err))
		return "", false
	}
	defer buf.Destroy()
	return string(buf.Bytes()), true
}
