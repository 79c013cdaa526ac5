package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ruchit878/smart-job-kit-generator/internal/caption"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/session"
)

type sessionResponse struct {
	SessionID string          `json:"sessionId"`
	State     string          `json:"state"`
	CreatedAt time.Time       `json:"createdAt"`
	Entries   []caption.Entry `json:"entries,omitempty"`
}

type fragmentRequest struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

type mutationResponse struct {
	Decision string        `json:"decision"`
	Index    int           `json:"index"`
	Line     *caption.Line `json:"line,omitempty"`
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	s := h.app.Sessions.Create()

	respondWithJSON(w, http.StatusCreated, sessionResponse{
		SessionID: s.ID(),
		State:     s.State().String(),
		CreatedAt: s.CreatedAt(),
	})
}

// lookupSession writes a 404 and returns nil when the session is unknown.
func (h *handlers) lookupSession(w http.ResponseWriter, r *http.Request) *session.Session {
	s, err := h.app.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithError(w, r, errNotFound(err.Error()))
		return nil
	}
	return s
}

func (h *handlers) postFragment(w http.ResponseWriter, r *http.Request) {
	s := h.lookupSession(w, r)
	if s == nil {
		return
	}

	var req fragmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, r, errBadRequest("invalid JSON body: "+err.Error()))
		return
	}

	at := time.Now().UnixMilli()
	if req.Timestamp != nil {
		at = *req.Timestamp
	}
	if err := h.app.Validator.ValidateContent(req.Role, req.Text, at); err != nil {
		respondWithError(w, r, errBadRequest(err.Error()))
		return
	}

	m, err := s.Ingest(r.Context(), caption.Fragment{Role: req.Role, Text: req.Text, At: at})
	switch {
	case errors.Is(err, session.ErrFragmentLimitExceeded):
		respondWithError(w, r, errTooManyRequests(err.Error()))
		return
	case errors.Is(err, session.ErrSessionClosed):
		respondWithError(w, r, errConflict(err.Error()))
		return
	case err != nil:
		respondWithError(w, r, errInternal(err.Error()))
		return
	}

	resp := mutationResponse{Decision: m.Kind.String(), Index: m.Index}
	if m.Kind != caption.Suppress {
		line := m.Line
		resp.Line = &line
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *handlers) getSessionLog(w http.ResponseWriter, r *http.Request) {
	s := h.lookupSession(w, r)
	if s == nil {
		return
	}

	respondWithJSON(w, http.StatusOK, sessionResponse{
		SessionID: s.ID(),
		State:     s.State().String(),
		CreatedAt: s.CreatedAt(),
		Entries:   s.Entries(),
	})
}

func (h *handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		respondWithError(w, r, errNotFound(err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
