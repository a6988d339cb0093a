package vault

import (
	"unicode"
	"unicode/utf8"
)

// MaxIDLength bounds record IDs in bytes.
const MaxIDLength = 512

func validateID(id string) error {
	if id == "" {
		return validationErrorf("id must not be empty")
	}
	if len(id) > MaxIDLength {
		return validationErrorf("id exceeds maximum length of %d", MaxIDLength)
	}
	if !utf8.ValidString(id) {
		return validationErrorf("id contains invalid UTF-8")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return validationErrorf("id contains control character")
		}
	}
	return nil
}
