package core

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("code already exists")
	ErrInvalidURL         = errors.New("invalid url format")
	ErrRateLimited        = errors.New("rate limited")
	ErrExhaustedCodespace = errors.New("could not generate a unique short code")
)

// IsNotFound reports whether err is a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err indicates a uniqueness conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
