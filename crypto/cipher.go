package crypto

import (
	"fmt"

	"github.com/jmcleod/ironsign/internal/util"
)

const (
	// SaltSize is the size of the per-record HKDF salt.
	SaltSize = 16
	// IVSize is the size of the AES-GCM nonce.
	IVSize = util.GCMNonceSize
	// DefaultPasswordLength is the number of random bytes in a generated password.
	DefaultPasswordLength = 32
)

var vaultKeyInfo = []byte("ironsign:vault-key:v1")

// Sealed is the output of Encrypt. Ciphertext carries the GCM tag appended.
type Sealed struct {
	Ciphertext []byte
	IV         []byte
	Salt       []byte
}

// CipherOption configures Encrypt and Decrypt.
type CipherOption func(*cipherOptions)

type cipherOptions struct {
	aad []byte
}

// WithAAD binds additional authenticated data to the ciphertext. The same AAD
// must be supplied to Decrypt.
func WithAAD(aad []byte) CipherOption {
	return func(o *cipherOptions) {
		o.aad = aad
	}
}

// Encrypt seals plaintext under a key derived from password with a fresh
// random salt and IV. No salt or IV is ever reused across calls.
func Encrypt(plaintext []byte, password string, opts ...CipherOption) (*Sealed, error) {
	o := cipherOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	salt, err := util.RandomBytes(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	key, err := deriveCipherKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)

	iv, ciphertext, err := util.EncryptAESWithAAD(plaintext, key, o.aad)
	if err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}
	return &Sealed{Ciphertext: ciphertext, IV: iv, Salt: salt}, nil
}

// Decrypt re-derives the key from (password, salt) and opens ciphertext.
// Any tag mismatch returns ErrAuthentication; unauthenticated plaintext is
// never returned.
func Decrypt(ciphertext, iv, salt []byte, password string, opts ...CipherOption) ([]byte, error) {
	o := cipherOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrInvalidInput, IVSize, len(iv))
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidInput, SaltSize, len(salt))
	}
	key, err := deriveCipherKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)

	plaintext, err := util.DecryptAESWithAAD(ciphertext, iv, key, o.aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return plaintext, nil
}

// GeneratePassword returns length cryptographically random bytes encoded as
// standard base64. A non-positive length selects DefaultPasswordLength.
// Generated passwords protect vault records only and are never key material.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}
	return util.RandomBase64(length)
}

func deriveCipherKey(password string, salt []byte) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", ErrInvalidInput)
	}
	key, err := util.HKDF([]byte(util.Normalize(password)), salt, vaultKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("deriving encryption key: %w", err)
	}
	return key, nil
}
