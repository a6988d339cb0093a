package crypto

import (
	"encoding/hex"
	"math/big"
	"sync"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixtureCredentialID = "V3QxMjM0NTY3ODkwYWJjZGVm"
	fixtureUserID       = "user-123"
	fixtureKeyHex       = "48d682265ccdda383827869ff0992d3e483413b9a36083105294d4fe7a20c86e"
	fixturePubKeyHex    = "03bfc8c301a848d846bf97c090f0554878c8cb9fb48a311540780056beeb72558b"
)

func curveOrder() *big.Int {
	return secp256k1.S256().Params().N
}

func TestDeriveSigningKey_Fixture(t *testing.T) {
	key, err := DeriveSigningKey(fixtureCredentialID, fixtureUserID)
	require.NoError(t, err)
	assert.Equal(t, fixtureKeyHex, hex.EncodeToString(key))

	pub, err := PublicKey(key)
	require.NoError(t, err)
	assert.Equal(t, fixturePubKeyHex, hex.EncodeToString(pub))
}

func TestDeriveSigningKey_Deterministic(t *testing.T) {
	ids := []struct{ cred, user string }{
		{fixtureCredentialID, fixtureUserID},
		{"AQIDBAUGBwgJCgsMDQ4PEA", "alice@example.com"},
		{"x", "y"},
		{"credential-ünïcödé", "用户"},
	}
	for _, id := range ids {
		k1, err := DeriveSigningKey(id.cred, id.user)
		require.NoError(t, err)
		k2, err := DeriveSigningKey(id.cred, id.user)
		require.NoError(t, err)
		assert.Len(t, k1, KeySize)
		assert.Equal(t, k1, k2, "derivation must be a pure function of %q/%q", id.cred, id.user)
	}
}

func TestDeriveSigningKey_InRange(t *testing.T) {
	n := curveOrder()
	for i := 0; i < 64; i++ {
		i := i
		key, err := DeriveSigningKey(fixtureCredentialID, "user-"+big.NewInt(int64(i)).String())
		require.NoError(t, err)
		k := new(big.Int).SetBytes(key)
		assert.Equal(t, 1, k.Sign())
		assert.Equal(t, -1, k.Cmp(n))
	}
}

func TestDeriveSigningKey_InputsBindKey(t *testing.T) {
	base, err := DeriveSigningKey(fixtureCredentialID, fixtureUserID)
	require.NoError(t, err)

	otherUser, err := DeriveSigningKey(fixtureCredentialID, "user-124")
	require.NoError(t, err)
	assert.NotEqual(t, base, otherUser)

	otherCred, err := DeriveSigningKey("V3QxMjM0NTY3ODkwYWJjZGVn", fixtureUserID)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherCred)
}

func TestDeriveSigningKey_Salt(t *testing.T) {
	unsalted, err := DeriveSigningKey(fixtureCredentialID, fixtureUserID)
	require.NoError(t, err)

	emptySalt, err := DeriveSigningKey(fixtureCredentialID, fixtureUserID, WithSalt([]byte{}))
	require.NoError(t, err)
	assert.Equal(t, unsalted, emptySalt, "an empty salt is equivalent to no salt")

	salted, err := DeriveSigningKey(fixtureCredentialID, fixtureUserID, WithSalt([]byte("salt")))
	require.NoError(t, err)
	assert.Equal(t, "5daeacd918189aca50a17655faf4ea623db7e82cc3919b88aa21ce90f8afcd72", hex.EncodeToString(salted))
}

func TestDeriveSigningKey_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		cred, user string
	}{
		{"EmptyCredential", "", fixtureUserID},
		{"EmptyUser", fixtureCredentialID, ""},
		{"InvalidUTF8", string([]byte{0xff, 0xfe}), fixtureUserID},
		{"ControlChar", "cred\x00id", fixtureUserID},
		{"TooLong", string(make([]byte, MaxIdentifierLength+1)), fixtureUserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveSigningKey(tt.cred, tt.user)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestDeriveSigningKey_Concurrent(t *testing.T) {
	want, err := DeriveSigningKey(fixtureCredentialID, fixtureUserID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 16)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = DeriveSigningKey(fixtureCredentialID, fixtureUserID)
		}()
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestReduceToScalar(t *testing.T) {
	order := curveOrder().FillBytes(make([]byte, KeySize))

	t.Run("ValidPassesThrough", func(t *testing.T) {
		in, _ := hex.DecodeString(fixtureKeyHex)
		out, err := reduceToScalar(in, MaxScalarRetries)
		require.NoError(t, err)
		assert.Equal(t, fixtureKeyHex, hex.EncodeToString(out))
	})

	t.Run("OrderIsRehashed", func(t *testing.T) {
		out, err := reduceToScalar(append([]byte(nil), order...), MaxScalarRetries)
		require.NoError(t, err)
		assert.Equal(t, "3717939056ee94b1054210ce2b27284d9a8ac5e2880e326d53feb8d4cbb89907", hex.EncodeToString(out))
		assert.True(t, ValidScalar(out))
	})

	t.Run("ZeroIsRehashed", func(t *testing.T) {
		out, err := reduceToScalar(make([]byte, KeySize), MaxScalarRetries)
		require.NoError(t, err)
		assert.True(t, ValidScalar(out))
	})

	t.Run("BoundIsEnforced", func(t *testing.T) {
		_, err := reduceToScalar(make([]byte, KeySize), 0)
		assert.ErrorIs(t, err, ErrKeyDerivationExhausted)
	})
}

func TestValidScalar(t *testing.T) {
	n := curveOrder()
	nMinus1 := new(big.Int).Sub(n, big.NewInt(1)).FillBytes(make([]byte, KeySize))
	one := big.NewInt(1).FillBytes(make([]byte, KeySize))

	assert.True(t, ValidScalar(one))
	assert.True(t, ValidScalar(nMinus1))
	assert.False(t, ValidScalar(make([]byte, KeySize)))
	assert.False(t, ValidScalar(n.FillBytes(make([]byte, KeySize))))
	assert.False(t, ValidScalar(one[:31]))
	assert.False(t, ValidScalar(nil))
}

func TestPublicKey(t *testing.T) {
	one := big.NewInt(1).FillBytes(make([]byte, KeySize))
	pub, err := PublicKey(one)
	require.NoError(t, err)
	assert.Len(t, pub, PublicKeySize)
	assert.Equal(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", hex.EncodeToString(pub))

	_, err = PublicKey(make([]byte, KeySize))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = PublicKey([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidKey)
}
