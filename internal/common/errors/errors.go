// Package errors provides standardized error handling for workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidCriteriaFormat ErrorCode = "INVALID_CRITERIA_FORMAT"
	ErrCodeCriteriaDecodeFailed  ErrorCode = "CRITERIA_DECODE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeListingQueryFailed       ErrorCode = "LISTING_QUERY_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSearchIndexFailed  ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeSearchTimeout      ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound      ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeMatchEvaluationFailed ErrorCode = "MATCH_EVALUATION_FAILED"

	ErrCodeQueueInsertFailed      ErrorCode = "QUEUE_INSERT_FAILED"
	ErrCodeLedgerWriteFailed      ErrorCode = "LEDGER_WRITE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeStatusTransitionFailed ErrorCode = "STATUS_TRANSITION_FAILED"
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

// NewListingQueryFailedError creates a retryable listings query error. The
// caller can always tell a failed search apart from an empty result set.
func NewListingQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingQueryFailed,
		Message:   "Listings query execution error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueueInsertFailedError creates a retryable queue insert error. Queue
// failures are batch-fatal for the dispatch run that hit them.
func NewQueueInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueueInsertFailed,
		Message:   "Email job enqueue failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerWriteFailedError creates a retryable notification ledger error.
func NewLedgerWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerWriteFailed,
		Message:   "Notification ledger write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable delivery error.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCriteriaDecodeFailedError creates a non-retryable criteria decode error.
// Only raised for blobs that fail schema validation outright; missing fields
// decode leniently to "unconstrained" instead.
func NewCriteriaDecodeFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCriteriaDecodeFailed,
		Message:   "Persisted criteria blob failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatusTransitionFailedError creates a retryable transition error.
func NewStatusTransitionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStatusTransitionFailed,
		Message:   "Listing status transition failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
