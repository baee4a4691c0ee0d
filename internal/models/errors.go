package models

import "errors"

// Error taxonomy shared by services and handlers. Handlers map these to
// HTTP statuses; anything else becomes a generic 500.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("access token required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTitleRequired      = errors.New("title is required")
	ErrNotFound           = errors.New("todo not found")
)

// ValidationError carries a field-level message surfaced verbatim as a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is a validation failure, including
// ErrTitleRequired which predates the struct form.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrTitleRequired)
}
