package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bloodbridge/internal/domain"
)

// Error codes carried in APIError.Code.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeNotFound      = "not_found"
	ErrCodeConflict      = "conflict"
	ErrCodeUnavailable   = "unavailable"
	ErrCodeInternalError = "internal_error"
)

// APIError is the error object of the response envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the envelope of every API response: exactly one of Data and
// Error is set.
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

var errorStatuses = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrLocked, http.StatusConflict, ErrCodeConflict},
	{domain.ErrVersionConflict, http.StatusConflict, ErrCodeConflict},
	{domain.ErrInvalidBloodType, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrInvalidUrgency, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest},
}

// StatusForError maps a domain error to its HTTP status and error code.
// Anything unrecognised is a 500.
func StatusForError(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteError writes err using StatusForError. The text of internal errors is
// not exposed.
func WriteError(w http.ResponseWriter, err error) {
	status, code := StatusForError(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = "internal error"
	}
	WriteJSONError(w, status, code, msg)
}

// WriteJSONSuccess writes statusCode and an envelope carrying data.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeEnvelope(w, statusCode, APIResponse{Data: data})
}

// WriteJSONError writes statusCode and an envelope carrying the error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeEnvelope(w, statusCode, APIResponse{Error: &APIError{Code: code, Message: message}})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
