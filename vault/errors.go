package vault

import (
	"fmt"

	"github.com/jmcleod/ironsign/crypto"
)

var (
	// ErrInvalidID indicates a record ID that is empty, too long, or not clean UTF-8.
	ErrInvalidID = fmt.Errorf("%w: invalid record ID", crypto.ErrInvalidInput)
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidID}, args...)...)
}
