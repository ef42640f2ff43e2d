package permissions

import "errors"

var (
	// ErrUnknownField is returned when a key names no field of the target set.
	// Callers treat it as non-fatal: the relay may know fields this client does not.
	ErrUnknownField = errors.New("unknown permission field")

	// ErrConvert is returned when a value cannot be coerced to the field's type.
	ErrConvert = errors.New("permission value conversion failed")
)
