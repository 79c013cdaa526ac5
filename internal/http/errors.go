package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// APIError is the JSON error envelope returned by every route.
type APIError struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func newAPIError(code int, detail string) *APIError {
	return &APIError{
		Code:    code,
		Message: http.StatusText(code),
		Detail:  detail,
	}
}

var (
	errBadRequest         = func(detail string) *APIError { return newAPIError(http.StatusBadRequest, detail) }
	errNotFound           = func(detail string) *APIError { return newAPIError(http.StatusNotFound, detail) }
	errConflict           = func(detail string) *APIError { return newAPIError(http.StatusConflict, detail) }
	errTooManyRequests    = func(detail string) *APIError { return newAPIError(http.StatusTooManyRequests, detail) }
	errInternal           = func(detail string) *APIError { return newAPIError(http.StatusInternalServerError, detail) }
	errBadGateway         = func(detail string) *APIError { return newAPIError(http.StatusBadGateway, detail) }
	errServiceUnavailable = func(detail string) *APIError { return newAPIError(http.StatusServiceUnavailable, detail) }
)

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func respondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func respondWithError(w http.ResponseWriter, r *http.Request, err *APIError) {
	err.RequestID = middleware.GetReqID(r.Context())
	respondWithJSON(w, err.Code, err)
}
