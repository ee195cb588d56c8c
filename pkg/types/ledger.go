package types

import (
	"errors"
	"fmt"
)

// ManualEntry is a user reported day of usage.
type ManualEntry struct {
	Total float64 `json:"total"`
	Night float64 `json:"night"`
}

// DatedEntry pairs a ManualEntry with its YYYY-MM-DD key.
type DatedEntry struct {
	Date string `json:"date"`
	ManualEntry
}

// ErrValidation matches every ValidationError with errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError describes rejected caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
