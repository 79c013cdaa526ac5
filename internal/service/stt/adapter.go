// Package stt defines the interface for Speech-to-Text adapters that turn
// candidate audio into caption fragments.
package stt

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Callback receives transcript results from the STT provider.
type Callback interface {
	// OnPartial is called when an interim transcript is received.
	OnPartial(text string)

	// OnFinal is called when a final transcript is received.
	OnFinal(text string, confidence float64)

	// OnEndOfUtterance is called when the provider detects the speaker
	// stopped talking.
	OnEndOfUtterance()

	// OnError is called when an error occurs during transcription.
	OnError(err error)
}

// Adapter defines the interface for STT providers.
type Adapter interface {
	// Start begins a streaming transcription session.
	Start(ctx context.Context, cb Callback) error

	// SendAudio sends audio bytes to the STT provider.
	SendAudio(ctx context.Context, audio []byte) error

	// Close ends the session and releases resources.
	Close() error
}

// ErrorType classifies an STT error into a low-cardinality metric label.
func ErrorType(err error) string {
	if err == nil {
		return "none"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "deadline"
	}

	st, ok := status.FromError(err)
	if !ok {
		return "unknown"
	}
	switch st.Code() {
	case codes.Canceled:
		return "canceled"
	case codes.DeadlineExceeded:
		return "deadline"
	case codes.Unavailable:
		return "unavailable"
	case codes.ResourceExhausted:
		return "quota"
	case codes.Unauthenticated, codes.PermissionDenied:
		return "auth"
	case codes.InvalidArgument, codes.OutOfRange:
		return "invalid_audio"
	default:
		return "provider"
	}
}
