package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownResidue is returned when a sequence contains a residue code
	// that has no entry in the mass table.
	ErrUnknownResidue = errors.New("unknown residue")

	// ErrUnknownLabelling is returned for labelling names other than N14/N15.
	ErrUnknownLabelling = errors.New("unknown labelling")

	// ErrInvalidDelta is returned when an inline modification mass cannot be parsed.
	ErrInvalidDelta = errors.New("invalid modification delta")
)

// ValidationError represents an error found during spectrum or
// configuration validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}
