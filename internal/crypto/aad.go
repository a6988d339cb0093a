// Package icrypto holds internal helpers shared by the vault and crypto layers.
package icrypto

import (
	"encoding/binary"
)

const (
	aadKeyRecord = "KEYRECORD"

	// RecordVersion is the layout version bound into every key record AAD.
	RecordVersion = 1
)

// AADKeyRecord binds a sealed key to its record ID and owner metadata, so a
// ciphertext moved to another ID or relabelled with another user fails to open.
func AADKeyRecord(recordID, userID, credentialID string, ver int) []byte {
	return buildAAD(aadKeyRecord, recordID, userID, credentialID, ver)
}

func buildAAD(parts ...any) []byte {
	var res []byte
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			res = appendLenPrefix(res, []byte(v))
		case []byte:
			res = appendLenPrefix(res, v)
		case uint64:
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, v)
			res = append(res, b...)
		case int:
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, uint32(v))
			res = append(res, b...)
		}
	}
	return res
}

func appendLenPrefix(b, data []byte) []byte {
	l := make([]byte, 4)
	binary.BigEndian.PutUint32(l, uint32(len(data)))
	b = append(b, l...)
	b = append(b, data...)
	return b
}
