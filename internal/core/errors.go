package core

import "errors"

// ValidationError marks a draft rejected because a field is missing or
// outside its allowed values.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func newValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

var (
	ErrInvalidAmount       = newValidationError("invalid amount")
	ErrInvalidDate         = newValidationError("invalid date")
	ErrInvalidType         = newValidationError("invalid transaction type")
	ErrEmptyCategory       = newValidationError("empty category")
	ErrUnknownAccount      = newValidationError("unknown savings account")
	ErrAccountMismatch     = newValidationError("category and savingCategory disagree")
	ErrInvalidOperation    = newValidationError("saving operation must be add or deduct")
	ErrUnexpectedOperation = newValidationError("operation is only allowed on saving transactions")
	ErrDescriptionTooLong  = newValidationError("description too long (max 200 characters)")
	ErrMalformedBody       = newValidationError("malformed request body")

	ErrNotFound = errors.New("transaction not found")
)

// IsValidation reports whether err was caused by an invalid draft.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
