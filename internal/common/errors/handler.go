// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler writes standardized error responses at the HTTP boundary.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// errorResponse is the wire shape of a failed request.
type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Details   string `json:"details,omitempty"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
	Timestamp string `json:"timestamp"`
}

// HandleRequestError normalizes err, logs it, and writes the JSON error body.
func (h *ErrorHandler) HandleRequestError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := h.normalizeError(err)

	h.logError(r, stdErr)

	resp := errorResponse{}
	resp.Error.Code = string(stdErr.Code)
	resp.Error.Message = stdErr.Message
	resp.Error.Details = stdErr.Details
	resp.Error.Retryable = stdErr.Retryable
	resp.Timestamp = stdErr.Timestamp.Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(resp)
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus maps internal error codes to HTTP status codes.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidUtterance, ErrCodeLexiconNotFound:
		return http.StatusBadRequest
	case ErrCodeContractViolation:
		return http.StatusUnprocessableEntity
	case ErrCodeLexiconInvalid, ErrCodeLexiconSchemaViolation, ErrCodeSynonymConflict:
		return http.StatusInternalServerError
	case ErrCodeClassifierTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeClassifierFailed:
		return http.StatusBadGateway
	case ErrCodeClarificationConflict:
		return http.StatusConflict
	case ErrCodeDatabaseConnectionFailed, ErrCodeAliasQueryFailed,
		ErrCodeAliasCacheFailed, ErrCodeClarificationStateFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError) {
	h.logger.Error("Request failed", map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
