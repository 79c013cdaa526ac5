package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ruchit878/smart-job-kit-generator/internal/app"
	"github.com/ruchit878/smart-job-kit-generator/internal/archive"
	"github.com/ruchit878/smart-job-kit-generator/internal/backend"
	"github.com/ruchit878/smart-job-kit-generator/internal/caption"
	"github.com/ruchit878/smart-job-kit-generator/internal/config"
	"github.com/ruchit878/smart-job-kit-generator/internal/events"
	httpapi "github.com/ruchit878/smart-job-kit-generator/internal/http"
	"github.com/ruchit878/smart-job-kit-generator/internal/models"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/session"
)

const sessionReapInterval = time.Minute

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)

	metricsServer := observability.NewServer(":"+cfg.Service.MetricsPort, application.Ready)
	metricsServer.Start()

	publisher := events.New(&events.Config{
		Enabled:       cfg.Kafka.Enabled,
		Brokers:       cfg.Kafka.Brokers,
		TopicCaptions: cfg.Kafka.TopicCaptions,
		TopicQA:       cfg.Kafka.TopicQA,
		Principal:     cfg.Kafka.Principal,
	})
	defer publisher.Close()

	application.Events = publisher
	application.Sessions = session.NewRegistry(session.Options{
		Caption: caption.Config{Window: cfg.Caption.Window},
		Labels: caption.Labeler{
			Assistant: cfg.Caption.AssistantLabel,
			User:      cfg.Caption.UserLabel,
		},
		MaxFragments: cfg.SessionLimits.MaxFragments,
		Publisher:    publisher,
	})
	application.Backend = backend.New(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		MaxRetries: cfg.Backend.MaxRetries,
	})
	application.NewSTT = app.NewSTTFactory(cfg.STT)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Archive.Enabled {
		store, err := archive.New(ctx, archive.Config{
			AccountID: cfg.Archive.AccountID,
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			Bucket:    cfg.Archive.Bucket,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			URLExpiry: cfg.Archive.URLExpiry,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize archive store")
		}
		application.Archive = store
	}

	go application.Sessions.Reap(ctx, sessionReapInterval, cfg.SessionLimits.IdleTimeout, cfg.SessionLimits.MaxDuration)

	var consumer *events.Consumer
	if cfg.Kafka.ConsumeEnabled && len(cfg.Kafka.Brokers) > 0 {
		consumer = events.NewConsumer(events.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.TopicFragments,
			GroupID: cfg.Kafka.GroupID,
		}, application.Validator)

		go func() {
			err := consumer.Run(ctx, func(ctx context.Context, f models.CaptionFragment) error {
				s := application.Sessions.GetOrCreate(f.InteractionID)
				_, err := s.Ingest(ctx, caption.Fragment{Role: f.Role, Text: f.Text, At: f.Timestamp})
				return err
			})
			if err != nil {
				log.Error().Err(err).Msg("Fragment consumer stopped")
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(application),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	application.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Error().Err(err).Msg("Fragment consumer close failed")
		}
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}
}
