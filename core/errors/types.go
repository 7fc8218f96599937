// Package errors implements a small tiered error taxonomy used to decide how
// a failure is reported to the user.
package errors

import (
	"errors"
	"fmt"
)

// ErrorTier represents the classification tier for errors.
type ErrorTier int

const (
	// TierTransient indicates temporary errors that may succeed when repeated.
	// Examples: a locked sqlite database.
	TierTransient ErrorTier = iota

	// TierPermanent indicates errors that will not resolve with retry.
	// Examples: malformed dataset exports, duplicate node ids.
	TierPermanent

	// TierUserFixable indicates errors that require user intervention.
	// Examples: unknown tribute name, socket id not in the tree, missing dataset path.
	TierUserFixable
)

var tierNames = map[ErrorTier]string{
	TierTransient:   "transient",
	TierPermanent:   "permanent",
	TierUserFixable: "user_fixable",
}

func (t ErrorTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// TieredError wraps an error with tier classification.
type TieredError struct {
	Tier       ErrorTier
	Message    string
	Underlying error
	Context    map[string]string
}

// Error implements the error interface.
func (e *TieredError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Tier, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s] %s", e.Tier, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TieredError) Unwrap() error {
	return e.Underlying
}

// Is checks if the target error matches this TieredError's tier.
func (e *TieredError) Is(target error) bool {
	var te *TieredError
	if errors.As(target, &te) {
		return e.Tier == te.Tier
	}
	return false
}

// NewTieredError creates a new TieredError with the given tier and message.
func NewTieredError(tier ErrorTier, message string, underlying error) *TieredError {
	return &TieredError{
		Tier:       tier,
		Message:    message,
		Underlying: underlying,
		Context:    make(map[string]string),
	}
}

// WithContext adds context key-value pairs to the error.
func (e *TieredError) WithContext(key, value string) *TieredError {
	e.Context[key] = value
	return e
}

// GetTier extracts the ErrorTier from an error. Errors that were never
// tiered are classified by Classify.
func GetTier(err error) ErrorTier {
	var te *TieredError
	if errors.As(err, &te) {
		return te.Tier
	}
	return Classify(err)
}

// IsRetryable reports whether repeating the operation may help.
func IsRetryable(err error) bool {
	return err != nil && GetTier(err) == TierTransient
}

// WrapWithTier wraps an error with a tier classification.
func WrapWithTier(tier ErrorTier, message string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap TieredErrors
	var te *TieredError
	if errors.As(err, &te) {
		// Preserve existing tier if wrapping
		return &TieredError{
			Tier:       te.Tier,
			Message:    message,
			Underlying: err,
			Context:    te.Context,
		}
	}

	return NewTieredError(tier, message, err)
}
