package model

import "github.com/rotisserie/eris"

// ErrValidation marks input that violates a model invariant. Callers test
// for it with errors.Is; the wrapped message carries the specifics.
var ErrValidation = eris.New("validation failed")

// Validationf returns an error wrapping ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return eris.Wrapf(ErrValidation, format, args...)
}
