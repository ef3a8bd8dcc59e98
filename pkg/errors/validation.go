package errors

import (
	"github.com/google/uuid"
)

// ValidateBoardID checks that id is a canonical UUID, the only form boards
// are created with. This keeps arbitrary strings out of store keys and file names.
func ValidateBoardID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "board id cannot be empty")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Wrap(ErrCodeInvalidID, err, "invalid board id %q", id)
	}
	if parsed.String() != id {
		return New(ErrCodeInvalidID, "board id %q is not in canonical form", id)
	}
	return nil
}

// ValidateDelayMillis checks a per-step delay given in milliseconds.
// Negative values are rejected here; callers that prefer clamping should clamp first.
func ValidateDelayMillis(ms int) error {
	if ms < 0 {
		return New(ErrCodeInvalidInput, "delay must be non-negative, got %dms", ms)
	}
	if ms > 60_000 {
		return New(ErrCodeInvalidInput, "delay must be at most 60000ms, got %dms", ms)
	}
	return nil
}
