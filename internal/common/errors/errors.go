// Package errors provides the standardized error taxonomy for the scoring
// pipeline. Every external-call failure is classified here so the
// orchestrator's retry and tier-escalation logic can branch on codes
// instead of on transport details.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transient scorer errors: retried with backoff before tier escalation.
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrCodeServiceOverloaded ErrorCode = "SERVICE_OVERLOADED"

	// Non-transient scorer errors: escalate to the next fidelity tier.
	ErrCodeScoringFailed ErrorCode = "SCORING_FAILED"

	// Always-swallowed failures.
	ErrCodeTranslationFailed ErrorCode = "TRANSLATION_FAILED"
	ErrCodeNarrativeFailed   ErrorCode = "NARRATIVE_FAILED"
	ErrCodeJudgmentFailed    ErrorCode = "JUDGMENT_FAILED"

	// Logged-and-defaulted conditions.
	ErrCodeDataIntegrityWarning  ErrorCode = "DATA_INTEGRITY_WARNING"
	ErrCodeScenarioConfigInvalid ErrorCode = "SCENARIO_CONFIG_INVALID"

	// The only failures allowed past the pipeline boundary.
	ErrCodeSubmissionNotFound ErrorCode = "SUBMISSION_NOT_FOUND"
	ErrCodeStoreFailure       ErrorCode = "STORE_FAILURE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewRateLimitedError creates a retryable rate-limit error.
func NewRateLimitedError(service string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   fmt.Sprintf("Service '%s' rate limit exceeded", service),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewServiceOverloadedError creates a retryable overload error.
func NewServiceOverloadedError(service string) *StandardError {
	return &StandardError{
		Code:      ErrCodeServiceOverloaded,
		Message:   fmt.Sprintf("Service '%s' is overloaded", service),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewScoringFailedError creates a non-retryable scoring error. The caller
// escalates to the next fidelity tier instead of retrying.
func NewScoringFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringFailed,
		Message:   "External scoring call failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranslationFailedError creates the always-swallowed translation error.
func NewTranslationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranslationFailed,
		Message:   "Translation service call failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNarrativeFailedError creates the always-swallowed narrative error.
func NewNarrativeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNarrativeFailed,
		Message:   "Narrative generation call failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewJudgmentFailedError creates the fail-open completeness judgment error.
func NewJudgmentFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeJudgmentFailed,
		Message:   "Completeness judgment call failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataIntegrityWarning records a recoverable data problem. Callers log
// it and substitute a default; it never propagates.
func NewDataIntegrityWarning(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataIntegrityWarning,
		Message:   "Data integrity warning",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScenarioConfigInvalidError creates a non-retryable configuration error.
func NewScenarioConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeScenarioConfigInvalid,
		Message:   "Scenario configuration failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionNotFoundError creates a non-retryable store error.
func NewSubmissionNotFoundError(submissionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionNotFound,
		Message:   "Submission not found",
		Details:   fmt.Sprintf("submissionId: %s", submissionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreFailureError creates a retryable submission-store error. This is
// the only failure class reported upward as "report generation failed".
func NewStoreFailureError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreFailure,
		Message:   "Submission store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsRateLimited checks for the rate-limit code.
func IsRateLimited(err error) bool {
	return CodeOf(err) == ErrCodeRateLimited
}

// IsOverloaded checks for the overload code.
func IsOverloaded(err error) bool {
	return CodeOf(err) == ErrCodeServiceOverloaded
}

// IsTransient reports whether err should be retried rather than escalated.
func IsTransient(err error) bool {
	return IsRateLimited(err) || IsOverloaded(err)
}
