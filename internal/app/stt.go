package app

import (
	"context"

	"github.com/ruchit878/smart-job-kit-generator/internal/config"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/stt"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/stt/google"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/stt/mock"
)

// STTFactory opens a fresh adapter for one audio stream.
type STTFactory func(ctx context.Context) (stt.Adapter, error)

// NewSTTFactory returns the factory for the configured provider. Anything
// other than "google" uses the scripted mock.
func NewSTTFactory(cfg config.STTConfig) STTFactory {
	if cfg.Provider == "google" {
		gcfg := google.Config{
			LanguageCode:   cfg.LanguageCode,
			SampleRateHz:   cfg.SampleRateHz,
			InterimResults: cfg.InterimResults,
			AudioEncoding:  cfg.AudioEncoding,
		}
		return func(ctx context.Context) (stt.Adapter, error) {
			return google.New(ctx, gcfg)
		}
	}
	return func(ctx context.Context) (stt.Adapter, error) {
		return mock.New(), nil
	}
}
