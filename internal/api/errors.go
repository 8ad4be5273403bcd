package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/novaprops-core/internal/actuation"
	"github.com/nerrad567/novaprops-core/internal/subdevice"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeValidation  = "validation_error"
	ErrCodeUnavailable = "unavailable"
	ErrCodeInternal    = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // best-effort write; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps subdevice and actuation errors to HTTP responses.
// Anything unrecognised, including persistence failures, is a 500 and is
// logged.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, subdevice.ErrNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, subdevice.ErrCapacity):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, subdevice.ErrInvalidType),
		errors.Is(err, subdevice.ErrInvalidMapping),
		errors.Is(err, subdevice.ErrInvalidSettings),
		errors.Is(err, actuation.ErrUnsupportedType):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
	case errors.Is(err, actuation.ErrInvalidFrame),
		errors.Is(err, actuation.ErrInvalidSlot):
		writeBadRequest(w, err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", requestID(r), "error", err)
		writeInternalError(w, "internal server error")
	}
}

// decodeBody decodes a JSON request body into v, keeping numbers as
// json.Number.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}
