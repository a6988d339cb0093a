package icrypto

import (
	"bytes"
	"testing"
)

func TestAADKeyRecord(t *testing.T) {
	aad1 := AADKeyRecord("cred-1", "user-1", "cred-1", RecordVersion)
	aad2 := AADKeyRecord("cred-1", "user-1", "cred-1", RecordVersion)
	if !bytes.Equal(aad1, aad2) {
		t.Error("AADKeyRecord should be deterministic")
	}

	if bytes.Equal(aad1, AADKeyRecord("cred-2", "user-1", "cred-1", RecordVersion)) {
		t.Error("AADKeyRecord should differ for different record IDs")
	}
	if bytes.Equal(aad1, AADKeyRecord("cred-1", "user-2", "cred-1", RecordVersion)) {
		t.Error("AADKeyRecord should differ for different user IDs")
	}
	if bytes.Equal(aad1, AADKeyRecord("cred-1", "user-1", "cred-1", RecordVersion+1)) {
		t.Error("AADKeyRecord should differ for different versions")
	}
}

func TestAADLengthPrefix(t *testing.T) {
	// Length prefixes keep field boundaries unambiguous.
	a := AADKeyRecord("ab", "c", "", RecordVersion)
	b := AADKeyRecord("a", "bc", "", RecordVersion)
	if bytes.Equal(a, b) {
		t.Error("AADKeyRecord should not collide when bytes shift between fields")
	}
}
