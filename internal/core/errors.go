package core

import (
	"errors"
	"fmt"
)

// Error kinds returned by the ledger. Validation errors all wrap ErrValidation
// so callers can classify them with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrLimitExceeded   = errors.New("expense limit exceeded")
	ErrNoData          = errors.New("no data")
)

var (
	ErrInvalidAmount  = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrNegativeAmount = fmt.Errorf("%w: negative amount", ErrValidation)
	ErrEmptyCategory  = fmt.Errorf("%w: empty category", ErrValidation)
	ErrEmptyKind      = fmt.Errorf("%w: empty transaction type", ErrValidation)
	ErrUnknownKind    = fmt.Errorf("%w: unknown transaction type", ErrValidation)
	ErrNegativeLimit  = fmt.Errorf("%w: negative limit", ErrValidation)
	ErrInvalidIndex   = fmt.Errorf("%w: invalid index", ErrValidation)
)

// IndexError reports an edit or delete index outside [0, length).
func IndexError(index, length int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, length)
}
