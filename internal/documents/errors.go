package documents

import "errors"

var (
	// ErrNotFound is returned when the referenced Document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput matches every validation failure.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError carries a client-facing message and matches ErrInvalidInput.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is reports whether target is ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// Invalid builds a ValidationError for callers outside this package.
func Invalid(msg string) error {
	return invalid(msg)
}

// ValidationMessage extracts the client-facing part of a validation error.
func ValidationMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Msg
	}
	return "invalid request"
}
