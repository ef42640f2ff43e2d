package pairing

import "errors"

var (
	// ErrUnknownPair means the relay addressed a pair this client does not
	// know: the registry and the relay have drifted apart.
	ErrUnknownPair = errors.New("pairing: unknown pair")
	// ErrNotOnline is returned when a handle is requested for an offline pair.
	ErrNotOnline = errors.New("pairing: pair is offline")
	// ErrInvalidUser rejects DTOs without a usable UID.
	ErrInvalidUser = errors.New("pairing: invalid user")
)
