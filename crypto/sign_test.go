package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixtureMessage      = "Hello World"
	fixtureHashHex      = "0c97d6a2fce887bfc0ee0f890e5597978fb20de9e666338a6075328c8bb739bb"
	fixtureSignatureHex = "0x2d2f68b5ee9ae65b9359a0092749cf439619335f7b7a8e93fdfd1f9c45096a2e" +
		"58515fccaa682498a345ee306104abbea2c50cea09123dd1c581747e890eb8ac1b"
)

func fixtureKey(t *testing.T) []byte {
	t.Helper()
	key, err := DeriveSigningKey(fixtureCredentialID, fixtureUserID)
	require.NoError(t, err)
	return key
}

func TestHashMessage(t *testing.T) {
	assert.Equal(t, fixtureHashHex, hex.EncodeToString(HashMessage([]byte(fixtureMessage))))

	keccak := HashMessage([]byte(fixtureMessage), WithHashScheme(HashKeccak256))
	assert.Equal(t, "a1de988600a42c4b4ab089b619297c17d53cffae5d5120d82d8a92d0bb3b78f2", hex.EncodeToString(keccak))
}

func TestSign_Fixture(t *testing.T) {
	key := fixtureKey(t)

	sig, err := Sign([]byte(fixtureMessage), key)
	require.NoError(t, err)
	assert.Equal(t, fixtureSignatureHex, sig.Hex())
	assert.Len(t, strings.TrimPrefix(sig.Hex(), "0x"), 130)

	again, err := Sign([]byte(fixtureMessage), key)
	require.NoError(t, err)
	assert.Equal(t, sig, again)
}

func TestSign_VerifyRoundTrip(t *testing.T) {
	key := fixtureKey(t)
	pub, err := PublicKey(key)
	require.NoError(t, err)

	messages := []string{"a", fixtureMessage, strings.Repeat("long message ", 200), "\x00\x01\x02"}
	for _, msg := range messages {
		sig, err := Sign([]byte(msg), key)
		require.NoError(t, err)
		assert.True(t, Verify([]byte(msg), sig, pub))
		assert.True(t, VerifyHex([]byte(msg), sig.Hex(), pub))
		v := sig.V()
		assert.True(t, v == 27 || v == 28, "unexpected v %d", v)
	}
}

func TestSign_MessageChangeBreaksSignature(t *testing.T) {
	key := fixtureKey(t)
	pub, err := PublicKey(key)
	require.NoError(t, err)

	msg := []byte(fixtureMessage)
	sig, err := Sign(msg, key)
	require.NoError(t, err)

	for i := range msg {
		flipped := append([]byte(nil), msg...)
		flipped[i] ^= 0x01
		other, err := Sign(flipped, key)
		require.NoError(t, err)
		assert.NotEqual(t, sig, other, "flipping byte %d must change the signature", i)
		assert.False(t, Verify(flipped, sig, pub), "old signature must not verify after flipping byte %d", i)
	}
}

func TestSign_HashSchemesDiffer(t *testing.T) {
	key := fixtureKey(t)
	pub, err := PublicKey(key)
	require.NoError(t, err)

	sig, err := Sign([]byte(fixtureMessage), key, WithHashScheme(HashKeccak256))
	require.NoError(t, err)
	assert.NotEqual(t, fixtureSignatureHex, sig.Hex())
	assert.True(t, Verify([]byte(fixtureMessage), sig, pub, WithHashScheme(HashKeccak256)))
	assert.False(t, Verify([]byte(fixtureMessage), sig, pub))
}

func TestSign_InvalidInput(t *testing.T) {
	key := fixtureKey(t)

	_, err := Sign(nil, key)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Sign([]byte("msg"), make([]byte, KeySize))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Sign([]byte("msg"), key[:16])
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestVerify_NeverPanicsOnGarbage(t *testing.T) {
	key := fixtureKey(t)
	pub, err := PublicKey(key)
	require.NoError(t, err)
	sig, err := Sign([]byte(fixtureMessage), key)
	require.NoError(t, err)

	t.Run("WrongKey", func(t *testing.T) {
		otherKey, err := DeriveSigningKey(fixtureCredentialID, "someone-else")
		require.NoError(t, err)
		otherPub, err := PublicKey(otherKey)
		require.NoError(t, err)
		assert.False(t, Verify([]byte(fixtureMessage), sig, otherPub))
	})

	t.Run("MalformedPublicKey", func(t *testing.T) {
		assert.False(t, Verify([]byte(fixtureMessage), sig, nil))
		assert.False(t, Verify([]byte(fixtureMessage), sig, []byte{0x02, 0x01}))
	})

	t.Run("ZeroSignature", func(t *testing.T) {
		assert.False(t, Verify([]byte(fixtureMessage), Signature{}, pub))
	})

	t.Run("OverflowingS", func(t *testing.T) {
		bad := sig
		for i := 32; i < 64; i++ {
			bad[i] = 0xFF
		}
		assert.False(t, Verify([]byte(fixtureMessage), bad, pub))
	})

	t.Run("MalformedHex", func(t *testing.T) {
		assert.False(t, VerifyHex([]byte(fixtureMessage), "0x1234", pub))
		assert.False(t, VerifyHex([]byte(fixtureMessage), "0x"+strings.Repeat("zz", 65), pub))
	})
}

func TestRecoverPublicKey(t *testing.T) {
	key := fixtureKey(t)
	pub, err := PublicKey(key)
	require.NoError(t, err)

	sig, err := Sign([]byte(fixtureMessage), key)
	require.NoError(t, err)

	recovered, err := RecoverPublicKey([]byte(fixtureMessage), sig)
	require.NoError(t, err)
	assert.Equal(t, pub, recovered)
	assert.Equal(t, fixturePubKeyHex, hex.EncodeToString(recovered))

	t.Run("DifferentMessageRecoversDifferentKey", func(t *testing.T) {
		other, err := RecoverPublicKey([]byte("Hello World!"), sig)
		if err == nil {
			assert.NotEqual(t, pub, other)
		}
	})

	t.Run("BadRecoveryByte", func(t *testing.T) {
		bad := sig
		bad[64] = 0
		_, err := RecoverPublicKey([]byte(fixtureMessage), bad)
		assert.ErrorIs(t, err, ErrMalformedSignature)

		bad[64] = 35
		_, err = RecoverPublicKey([]byte(fixtureMessage), bad)
		assert.ErrorIs(t, err, ErrMalformedSignature)
	})
}

func TestParseHashScheme(t *testing.T) {
	s, err := ParseHashScheme("SHA256")
	require.NoError(t, err)
	assert.Equal(t, HashSHA256, s)

	s, err = ParseHashScheme("keccak256")
	require.NoError(t, err)
	assert.Equal(t, HashKeccak256, s)
	assert.Equal(t, "keccak256", s.String())

	_, err = ParseHashScheme("md5")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
