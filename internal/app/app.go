package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruchit878/smart-job-kit-generator/internal/archive"
	"github.com/ruchit878/smart-job-kit-generator/internal/config"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/logging"
	"github.com/ruchit878/smart-job-kit-generator/internal/schema"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/session"
)

// QAGenerator fetches the raw Q&A transcript for a report.
type QAGenerator interface {
	GenerateQuestionAnswers(ctx context.Context, reportID string) (string, error)
}

// Archiver stores exported Q&A markdown.
type Archiver interface {
	PutMarkdown(ctx context.Context, reportID, markdown string) (archive.Object, error)
}

// QAPublisher announces parsed Q&A documents on the event bus.
type QAPublisher interface {
	PublishQA(ctx context.Context, reportID, eventType string, event any) error
}

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Sessions  *session.Registry
	Backend   QAGenerator
	Archive   Archiver // nil when archiving is disabled
	Events    QAPublisher
	Validator *schema.Validator
	NewSTT    STTFactory

	ready atomic.Bool
}

// New constructs a new Application from the provided configuration. The
// caller wires the service dependencies before Start.
func New(cfg *config.Config) *Application {
	a := &Application{
		Cfg:       cfg,
		Validator: schema.New(),
	}
	a.setupLogger()

	a.Logger.Info().
		Str("method", "New").
		Msg("Smart job kit application created")
	return a
}

func (a *Application) setupLogger() {
	logging.Init(logging.Config{
		Level:  a.Cfg.Observability.LogLevel,
		Format: a.Cfg.Observability.LogFormat,
	})

	a.Logger = logging.WithComponent("application").With().
		Str("service", a.Cfg.Service.Principal).
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("logFormat", a.Cfg.Observability.LogFormat).
		Msg("Logger setup completed")
}

// Start marks the service ready to take traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)

	a.Logger.Info().
		Str("method", "Start").
		Time("startupTime", a.StartupTime).
		Msg("Smart job kit service starting")
	return nil
}

// Ready reports whether Start has run and Shutdown has not.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Shutdown stops reporting ready and ends every live caption session.
func (a *Application) Shutdown() {
	a.ready.Store(false)
	if a.Sessions != nil {
		a.Sessions.CloseAll()
	}

	a.Logger.Info().
		Str("method", "Shutdown").
		Dur("uptime", time.Since(a.StartupTime)).
		Msg("Smart job kit service shutting down")
}
