package protoerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrUnknownUser)
	assert.True(t, errors.Is(wrapped, ErrUnknownUser))
	assert.False(t, errors.Is(wrapped, ErrInvalidState))
}

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{
		ErrMalformedFrame, ErrUnknownUser, ErrInvalidState, ErrInvalidA,
		ErrInvalidU, ErrProofMismatch, ErrStoreUnavailable, ErrTimeoutIdle,
		ErrUsernameTooLong,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}
