// Package http exposes the Q&A export and live caption APIs over HTTP and
// websockets.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ruchit878/smart-job-kit-generator/internal/app"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type handlers struct {
	app *app.Application
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	h := &handlers{app: application}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(echoRequestID)
	r.Use(observability.RequestLogger(metrics.DefaultMetrics))
	r.Use(recoverer)
	r.Use(cors)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, r, errNotFound("no such route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, r, newAPIError(http.StatusMethodNotAllowed, r.Method+" not allowed"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/liveness", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		r.Get("/readiness", func(w http.ResponseWriter, _ *http.Request) {
			if !application.Ready() {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready"))
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
		})

		r.Post("/qa/parse", h.parseQA)

		r.Route("/reports/{reportID}/qa", func(r chi.Router) {
			r.Get("/", h.getReportQA)
			r.Get("/markdown", h.getReportMarkdown)
			r.Get("/{index}/clipboard", h.getClipboardBlock)
			r.Post("/archive", h.archiveReportQA)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Post("/fragments", h.postFragment)
				r.Get("/log", h.getSessionLog)
				r.Get("/ws", h.streamCaptions)
				r.Get("/audio", h.streamAudio)
				r.Delete("/", h.closeSession)
			})
		})
	})

	return r
}
