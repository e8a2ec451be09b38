// Package validation provides common validation utilities for the stealpool library.
package validation

import (
	"fmt"
	"time"

	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
)

// ValidatePositive validates that an integer or duration value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive[T ~int | ~int64](module, field string, value T) error {
	if value <= 0 {
		return sperrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
// Returns a ValidationError if the value is negative.
func ValidateNonNegative(module, field string, value int) error {
	if value < 0 {
		return sperrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateNonNegativeDuration validates that a duration is non-negative.
func ValidateNonNegativeDuration(module, field string, value time.Duration) error {
	if value < 0 {
		return sperrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 for the default")
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return sperrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateMaxLen validates that a string is at most max bytes long.
func ValidateMaxLen(module, field string, value string, max int) error {
	if len(value) > max {
		return sperrors.NewValidationError(module, field, value, "too long").
			WithHint(fmt.Sprintf("use at most %d characters", max))
	}
	return nil
}

// ValidateInRange validates that value lies in [min, max].
func ValidateInRange(module, field string, value, min, max int) error {
	if value < min || value > max {
		return sperrors.NewValidationError(module, field, value, "out of range").
			WithHint(fmt.Sprintf("use a value between %d and %d", min, max))
	}
	return nil
}
