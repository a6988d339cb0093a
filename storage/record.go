package storage

import (
	"time"
)

// RecordMetadata identifies who a record was derived for.
type RecordMetadata struct {
	UserID       string `json:"userId"`
	CredentialID string `json:"credentialId"`
}

// Record is an encrypted at-rest cache of a derived signing key. Byte fields
// are base64 encoded in JSON. Timestamp is milliseconds since the Unix epoch.
type Record struct {
	ID           string          `json:"id"`
	EncryptedKey []byte          `json:"encryptedKey"`
	IV           []byte          `json:"iv"`
	Salt         []byte          `json:"salt"`
	Timestamp    int64           `json:"timestamp"`
	Metadata     *RecordMetadata `json:"metadata,omitempty"`
}

// StoredAt returns Timestamp as a time.Time.
func (r *Record) StoredAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := &Record{
		ID:           r.ID,
		EncryptedKey: append([]byte(nil), r.EncryptedKey...),
		IV:           append([]byte(nil), r.IV...),
		Salt:         append([]byte(nil), r.Salt...),
		Timestamp:    r.Timestamp,
	}
	if r.Metadata != nil {
		md := *r.Metadata
		c.Metadata = &md
	}
	return c
}
