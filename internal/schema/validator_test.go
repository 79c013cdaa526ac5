package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/ruchit878/smart-job-kit-generator/internal/models"
)

func TestValidateFragment(t *testing.T) {
	tests := []struct {
		name    string
		f       models.CaptionFragment
		wantErr error
	}{
		{"valid user", models.CaptionFragment{InteractionID: "i", Role: "user", Text: "hi"}, nil},
		{"valid assistant", models.CaptionFragment{InteractionID: "i", Role: "assistant", Text: "hi", Timestamp: 10}, nil},
		{"empty text allowed", models.CaptionFragment{InteractionID: "i", Role: "user"}, nil},
		{"missing interaction", models.CaptionFragment{Role: "user", Text: "hi"}, ErrMissingInteraction},
		{"unknown role", models.CaptionFragment{InteractionID: "i", Role: "system", Text: "hi"}, ErrUnknownRole},
		{"negative timestamp", models.CaptionFragment{InteractionID: "i", Role: "user", Timestamp: -1}, ErrNegativeTimestamp},
		{"invalid utf8", models.CaptionFragment{InteractionID: "i", Role: "user", Text: "\xff\xfe"}, ErrInvalidText},
		{"too long", models.CaptionFragment{InteractionID: "i", Role: "user", Text: strings.Repeat("a", DefaultMaxTextBytes+1)}, ErrTextTooLong},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateFragment(tt.f)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
