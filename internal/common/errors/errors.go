// Package errors provides standardized error handling for the resolution pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeLexiconNotFound         ErrorCode = "LEXICON_NOT_FOUND"
	ErrCodeLexiconInvalid          ErrorCode = "LEXICON_INVALID"
	ErrCodeLexiconSchemaViolation  ErrorCode = "LEXICON_SCHEMA_VIOLATION"
	ErrCodeSynonymConflict         ErrorCode = "SYNONYM_CONFLICT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeAliasQueryFailed         ErrorCode = "ALIAS_QUERY_FAILED"
	ErrCodeAliasCacheFailed         ErrorCode = "ALIAS_CACHE_FAILED"

	ErrCodeClassifierFailed  ErrorCode = "CLASSIFIER_FAILED"
	ErrCodeClassifierTimeout ErrorCode = "CLASSIFIER_TIMEOUT"

	ErrCodeClarificationStateFailed ErrorCode = "CLARIFICATION_STATE_FAILED"
	ErrCodeClarificationConflict    ErrorCode = "CLARIFICATION_CONFLICT"

	ErrCodeContractViolation ErrorCode = "CONTRACT_VIOLATION"
	ErrCodeResolutionFailed  ErrorCode = "RESOLUTION_FAILED"
	ErrCodeInvalidUtterance  ErrorCode = "INVALID_UTTERANCE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewLexiconNotFoundError creates a non-retryable lexicon lookup error.
func NewLexiconNotFoundError(domain string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLexiconNotFound,
		Message:   "Lexicon not found for domain",
		Details:   fmt.Sprintf("domain: %s", domain),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLexiconInvalidError creates a non-retryable lexicon parse error.
func NewLexiconInvalidError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLexiconInvalid,
		Message:   "Lexicon file could not be parsed",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLexiconSchemaViolationError creates a non-retryable schema validation error.
func NewLexiconSchemaViolationError(path, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLexiconSchemaViolation,
		Message:   "Lexicon failed schema validation",
		Details:   fmt.Sprintf("path: %s, violations: %s", path, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynonymConflictError creates a non-retryable synonym conflict error.
// A synonym mapped to more than one canonical entity within a domain is a
// data defect and the whole lexicon is rejected.
func NewSynonymConflictError(synonym string, canonicals []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynonymConflict,
		Message:   "Synonym maps to multiple canonical entities",
		Details:   fmt.Sprintf("synonym: %q, canonicals: %s", synonym, strings.Join(canonicals, ", ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAliasQueryFailedError creates a retryable tenant alias query error.
func NewAliasQueryFailedError(tenantID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAliasQueryFailed,
		Message:   "Tenant alias query failed",
		Details:   fmt.Sprintf("tenantId: %s, error: %s", tenantID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAliasCacheFailedError creates a retryable alias cache error.
func NewAliasCacheFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAliasCacheFailed,
		Message:   "Tenant alias cache operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierFailedError creates a retryable token classifier error.
func NewClassifierFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierFailed,
		Message:   "Token classifier API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierTimeoutError creates a retryable classifier timeout error.
func NewClassifierTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierTimeout,
		Message:   "Token classifier API timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClarificationStateFailedError creates a retryable state store error.
func NewClarificationStateFailedError(conversationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClarificationStateFailed,
		Message:   "Clarification state operation failed",
		Details:   fmt.Sprintf("conversationId: %s, error: %s", conversationID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClarificationConflictError creates a retryable optimistic concurrency error.
// Raised when a concurrent writer changed the conversation state mid-transaction.
func NewClarificationConflictError(conversationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClarificationConflict,
		Message:   "Concurrent modification of clarification state",
		Details:   fmt.Sprintf("conversationId: %s", conversationID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewContractViolationError creates a non-retryable contract gate error.
func NewContractViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeContractViolation,
		Message:   "Resolved intent violates output contract",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResolutionFailedError creates a retryable pipeline error.
func NewResolutionFailedError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResolutionFailed,
		Message:   "Intent resolution pipeline error",
		Details:   fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidUtteranceError creates a non-retryable input error.
func NewInvalidUtteranceError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidUtterance,
		Message:   "Utterance rejected before resolution",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeAliasQueryFailed,
		ErrCodeAliasCacheFailed,
		ErrCodeClassifierFailed,
		ErrCodeClarificationStateFailed:
		return 3 // Retryable technical errors

	case ErrCodeClassifierTimeout,
		ErrCodeClarificationConflict:
		return 2

	default:
		return 0 // Data and business errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LEXICON") || strings.Contains(codeStr, "SYNONYM"):
		return "LEXICON"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "ALIAS"):
		return "DATABASE"
	case strings.Contains(codeStr, "CLASSIFIER"):
		return "CLASSIFIER"
	case strings.Contains(codeStr, "CLARIFICATION"):
		return "CLARIFICATION"
	case strings.Contains(codeStr, "CONTRACT"):
		return "CONTRACT"
	default:
		return "OTHER"
	}
}
