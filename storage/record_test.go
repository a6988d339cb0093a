package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_JSONShape(t *testing.T) {
	rec := &Record{
		ID:           "cred-1",
		EncryptedKey: []byte{0x01, 0x02, 0x03},
		IV:           make([]byte, 12),
		Salt:         make([]byte, 16),
		Timestamp:    1700000000123,
		Metadata:     &RecordMetadata{UserID: "user-1", CredentialID: "cred-1"},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "cred-1",
		"encryptedKey": "AQID",
		"iv": "AAAAAAAAAAAAAAAA",
		"salt": "AAAAAAAAAAAAAAAAAAAAAA==",
		"timestamp": 1700000000123,
		"metadata": {"userId": "user-1", "credentialId": "cred-1"}
	}`, string(data))

	rec.Metadata = nil
	data, err = json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "metadata")
}

func TestRecord_Clone(t *testing.T) {
	rec := &Record{
		ID:           "cred-1",
		EncryptedKey: []byte("ciphertext"),
		IV:           []byte("nonce1234567"),
		Salt:         []byte("salt"),
		Timestamp:    42,
		Metadata:     &RecordMetadata{UserID: "u"},
	}
	c := rec.Clone()
	assert.Equal(t, rec, c)

	c.EncryptedKey[0] = 'X'
	c.Metadata.UserID = "other"
	assert.Equal(t, byte('c'), rec.EncryptedKey[0])
	assert.Equal(t, "u", rec.Metadata.UserID)

	var nilRec *Record
	assert.Nil(t, nilRec.Clone())
}

func TestRecord_StoredAt(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	rec := &Record{Timestamp: now.UnixMilli()}
	assert.True(t, rec.StoredAt().Equal(now))
}
