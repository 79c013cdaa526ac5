// Package schema validates inbound caption fragments before they reach a
// session.
package schema

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ruchit878/smart-job-kit-generator/internal/caption"
	"github.com/ruchit878/smart-job-kit-generator/internal/models"
)

// DefaultMaxTextBytes bounds a single fragment's text.
const DefaultMaxTextBytes = 16 * 1024

var (
	ErrMissingInteraction = errors.New("interactionId is required")
	ErrUnknownRole        = errors.New("role must be assistant or user")
	ErrNegativeTimestamp  = errors.New("timestamp must not be negative")
	ErrInvalidText        = errors.New("text must be valid UTF-8")
	ErrTextTooLong        = errors.New("text exceeds maximum length")
)

type Validator struct {
	maxTextBytes int
}

func New() *Validator {
	return &Validator{maxTextBytes: DefaultMaxTextBytes}
}

// ValidateFragment checks a fragment read from the bus. Empty text is
// allowed; the stabilizer suppresses it.
func (v *Validator) ValidateFragment(f models.CaptionFragment) error {
	if f.InteractionID == "" {
		return ErrMissingInteraction
	}
	return v.ValidateContent(f.Role, f.Text, f.Timestamp)
}

// ValidateContent checks the fields shared by every fragment source.
func (v *Validator) ValidateContent(role, text string, timestamp int64) error {
	if role != caption.RoleAssistant && role != caption.RoleUser {
		return fmt.Errorf("%w: got %q", ErrUnknownRole, role)
	}
	if timestamp < 0 {
		return ErrNegativeTimestamp
	}
	if !utf8.ValidString(text) {
		return ErrInvalidText
	}
	if len(text) > v.maxTextBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrTextTooLong, len(text), v.maxTextBytes)
	}
	return nil
}
