package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theirongolddev/azcost/internal/pipeline"
)

// APIError is the JSON envelope for every error response.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Write sends the error with the request's correlation ID.
func (e *APIError) Write(w http.ResponseWriter, r *http.Request) {
	e.RequestID = middleware.GetReqID(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

func newBadRequestError(message string) *APIError {
	return &APIError{Code: "BAD_REQUEST", Message: message, StatusCode: http.StatusBadRequest}
}

func newNotFoundError(message string) *APIError {
	return &APIError{Code: "NOT_FOUND", Message: message, StatusCode: http.StatusNotFound}
}

func newConflictError(message string) *APIError {
	return &APIError{Code: "CONFLICT", Message: message, StatusCode: http.StatusConflict}
}

func newPayloadTooLargeError(limit int64) *APIError {
	return &APIError{
		Code:       "PAYLOAD_TOO_LARGE",
		Message:    "upload exceeds " + humanLimit(limit),
		StatusCode: http.StatusRequestEntityTooLarge,
	}
}

func newInternalError(message string) *APIError {
	return &APIError{Code: "INTERNAL_ERROR", Message: message, StatusCode: http.StatusInternalServerError}
}

// fromLoadError maps a pipeline failure to its response. Parse errors
// are the client's file; processing errors are a well-formed file the
// dashboard cannot use.
func fromLoadError(err error, limit int64) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return newPayloadTooLargeError(limit)
	}
	if pipeline.IsParseError(err) {
		return &APIError{
			Code:       "PARSE_ERROR",
			Message:    pipeline.UserMessage(err),
			StatusCode: http.StatusBadRequest,
		}
	}
	return &APIError{
		Code:       "PROCESSING_ERROR",
		Message:    pipeline.UserMessage(err),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func humanLimit(n int64) string {
	if n <= 0 {
		return "the upload limit"
	}
	return humanize.IBytes(uint64(n))
}
