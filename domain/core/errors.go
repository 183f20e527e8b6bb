package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error kinds for the analysis engine
var (
	// ErrValidation marks malformed caller input: wrong or missing columns,
	// values outside their domain, mismatched lengths, non-finite values,
	// insufficient sample size.
	ErrValidation = errors.New("validation failed")

	// ErrStat marks a computation that became numerically degenerate on
	// otherwise well-formed input: non-positive variance, zero standard
	// error, a denominator collapsing mid-computation.
	ErrStat = errors.New("statistical computation failed")
)

// Error constructors with context

func NewValidationError(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NewStatError(message string) error {
	return fmt.Errorf("%w: %s", ErrStat, message)
}

func Statf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrStat, fmt.Sprintf(format, args...))
}

// Error checking helpers

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsStatError(err error) bool {
	return errors.Is(err, ErrStat)
}
