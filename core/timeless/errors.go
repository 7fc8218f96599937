package timeless

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTribute matches any UnknownTributeError.
	ErrUnknownTribute = errors.New("unknown tribute")

	// ErrInvalidWeights indicates a spawn weight dataset that cannot back a selector.
	ErrInvalidWeights = errors.New("invalid spawn weights")
)

// UnknownTributeError reports a tribute name that resolves to none of the
// faction leaders. Suggestion holds the closest leader name, if any is close.
type UnknownTributeError struct {
	Name       string
	Suggestion string
}

func (e *UnknownTributeError) Error() string {
	msg := fmt.Sprintf("unknown tribute name %q (valid: %s)", e.Name, leaderList())
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

func (e *UnknownTributeError) Is(target error) bool {
	return target == ErrUnknownTribute
}
