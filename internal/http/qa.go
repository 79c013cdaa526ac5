package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ruchit878/smart-job-kit-generator/internal/backend"
	"github.com/ruchit878/smart-job-kit-generator/internal/models"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/logging"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
	"github.com/ruchit878/smart-job-kit-generator/internal/qa"
)

const noQAFound = "No Q&A found"

type parseRequest struct {
	Raw string `json:"raw"`
}

type parseResponse struct {
	Pairs []qa.Pair `json:"pairs"`
	Count int       `json:"count"`
}

func (h *handlers) parseQA(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, r, errBadRequest("invalid JSON body: "+err.Error()))
		return
	}

	pairs, pass := qa.ParseWithPass(req.Raw)
	metrics.DefaultMetrics.RecordQAParse(string(pass), len(pairs))

	respondWithJSON(w, http.StatusOK, parseResponse{Pairs: pairs, Count: len(pairs)})
}

// loadReportQA fetches and parses a report's Q&A. It writes the error
// response itself and returns ok=false on failure or when nothing parsed.
func (h *handlers) loadReportQA(w http.ResponseWriter, r *http.Request) (string, []qa.Pair, bool) {
	reportID := chi.URLParam(r, "reportID")
	logger := logging.WithReport(reportID)

	raw, err := h.app.Backend.GenerateQuestionAnswers(r.Context(), reportID)
	if err != nil {
		var se *backend.StatusError
		switch {
		case errors.Is(err, backend.ErrMissingReportID):
			respondWithError(w, r, errBadRequest(err.Error()))
		case errors.As(err, &se) && se.Code == http.StatusNotFound:
			respondWithError(w, r, errNotFound(noQAFound))
		default:
			logger.Error().Err(err).Msg("Failed to fetch Q&A from backend")
			respondWithError(w, r, errBadGateway("Failed to fetch Q&A."))
		}
		return reportID, nil, false
	}

	pairs, pass := qa.ParseWithPass(raw)
	metrics.DefaultMetrics.RecordQAParse(string(pass), len(pairs))
	logger.Info().Str("pass", string(pass)).Int("pairs", len(pairs)).Msg("Q&A parsed")

	if len(pairs) == 0 {
		respondWithError(w, r, errNotFound(noQAFound))
		return reportID, nil, false
	}
	return reportID, pairs, true
}

func (h *handlers) getReportQA(w http.ResponseWriter, r *http.Request) {
	reportID, pairs, ok := h.loadReportQA(w, r)
	if !ok {
		return
	}

	doc := models.QADocument{
		EventType:   models.EventQAGenerated,
		ReportID:    reportID,
		GeneratedAt: time.Now().UnixMilli(),
		Pairs:       pairs,
		Count:       len(pairs),
	}
	if h.app.Events != nil {
		if err := h.app.Events.PublishQA(r.Context(), reportID, doc.EventType, doc); err != nil {
			logger := logging.WithReport(reportID)
			logger.Warn().Err(err).Msg("Failed to publish Q&A document")
		}
	}

	respondWithJSON(w, http.StatusOK, doc)
}

func markdownFilename(reportID string) string {
	return fmt.Sprintf("interview-qa-%s.md", reportID)
}

func (h *handlers) getReportMarkdown(w http.ResponseWriter, r *http.Request) {
	reportID, pairs, ok := h.loadReportQA(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/markdown;charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, markdownFilename(reportID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(qa.ToMarkdown(pairs)))
}

// getClipboardBlock returns the copy-to-clipboard text of one pair. index is
// the 1-based question number.
func (h *handlers) getClipboardBlock(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 1 {
		respondWithError(w, r, errBadRequest("index must be a positive integer"))
		return
	}

	_, pairs, ok := h.loadReportQA(w, r)
	if !ok {
		return
	}
	if index > len(pairs) {
		respondWithError(w, r, errNotFound(fmt.Sprintf("question %d not found; report has %d", index, len(pairs))))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(qa.ToClipboardBlock(pairs[index-1], index)))
}

func (h *handlers) archiveReportQA(w http.ResponseWriter, r *http.Request) {
	if h.app.Archive == nil {
		respondWithError(w, r, errServiceUnavailable("archiving is disabled"))
		return
	}

	reportID, pairs, ok := h.loadReportQA(w, r)
	if !ok {
		return
	}

	obj, err := h.app.Archive.PutMarkdown(r.Context(), reportID, qa.ToMarkdown(pairs))
	if err != nil {
		logger := logging.WithReport(reportID)
		logger.Error().Err(err).Msg("Failed to archive Q&A")
		respondWithError(w, r, errBadGateway("Failed to archive Q&A."))
		return
	}

	respondWithJSON(w, http.StatusCreated, obj)
}
