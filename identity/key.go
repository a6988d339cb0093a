package identity

import (
	"fmt"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/ironsign/crypto"
	"github.com/jmcleod/ironsign/internal/util"
)

// SigningKey holds a derived private scalar in a memguard Enclave (encrypted
// at rest in memory). Call Destroy when done.
type SigningKey struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	publicKey []byte
	signOpts  []crypto.SignOption
}

// newSigningKey takes ownership of key and wipes it.
func newSigningKey(key []byte, signOpts []crypto.SignOption) (*SigningKey, error) {
	pub, err := crypto.PublicKey(key)
	if err != nil {
		util.WipeBytes(key)
		return nil, err
	}
	return &SigningKey{
		enclave:   memguard.NewEnclave(key),
		publicKey: pub,
		signOpts:  signOpts,
	}, nil
}

// Sign signs message with the personal-message prefix.
func (k *SigningKey) Sign(message []byte) (crypto.Signature, error) {
	var sig crypto.Signature
	err := k.withKey(func(key []byte) error {
		var err error
		sig, err = crypto.Sign(message, key, k.signOpts...)
		return err
	})
	return sig, err
}

// PublicKey returns the 33-byte compressed public key.
func (k *SigningKey) PublicKey() []byte {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return util.CopyBytes(k.publicKey)
}

// Bytes returns a copy of the private scalar. The caller owns the copy and
// should wipe it.
func (k *SigningKey) Bytes() ([]byte, error) {
	var out []byte
	err := k.withKey(func(key []byte) error {
		out = util.CopyBytes(key)
		return nil
	})
	return out, err
}

// Destroy drops the sealed key. The SigningKey must not be reused.
func (k *SigningKey) Destroy() {
	if k == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.enclave = nil
}

func (k *SigningKey) withKey(fn func(key []byte) error) error {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.enclave == nil {
		return ErrKeyDestroyed
	}
	buf, err := k.enclave.Open()
	if err != nil {
		return fmt.Errorf("opening key enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}
