package service

import "errors"

// Sentinel errors handlers translate into HTTP statuses. Services wrap them
// with fmt.Errorf("%w: ...") to carry detail without losing the class.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrBanned          = errors.New("account is banned")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedFile = errors.New("unsupported file type")
)
