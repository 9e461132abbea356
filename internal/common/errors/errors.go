// Package errors provides the standardized error taxonomy threaded through
// the request pipeline. Every stage failure is represented as a
// *PipelineError so the orchestrator can map it onto a single fallback path.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeInputTooLong          ErrorCode = "INPUT_TOO_LONG"

	ErrCodeClassificationOutputInvalid ErrorCode = "CLASSIFICATION_OUTPUT_INVALID"
	ErrCodeIntentValidationFailed      ErrorCode = "INTENT_VALIDATION_FAILED"

	ErrCodeDataLoadFailed ErrorCode = "DATA_LOAD_FAILED"

	ErrCodeResponseRenderFailed ErrorCode = "RESPONSE_RENDER_FAILED"

	ErrCodeDeliveryFailed ErrorCode = "DELIVERY_FAILED"
	ErrCodeLoggingFailed  ErrorCode = "LOGGING_FAILED"

	ErrCodeUnknown ErrorCode = "UNKNOWN_ERROR"
)

// Stage names used in error reports and stage timings.
const (
	StageValidation = "validation"
	StageParse      = "parse_intent"
	StageRetrieve   = "retrieve_content"
	StageGenerate   = "generate_response"
	StageDeliver    = "deliver"
	StageLog        = "log_session"
)

// PipelineError is a structured application error carrying the taxonomy code
// and the pipeline stage it originated from.
type PipelineError struct {
	Code      ErrorCode              `json:"code"`
	Stage     string                 `json:"stage"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("PipelineError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the taxonomy code from an error chain, UNKNOWN_ERROR when
// the chain carries no *PipelineError.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeUnknown
}

// AsPipelineError unwraps err into a *PipelineError, synthesizing one with
// the given stage when the chain carries none.
func AsPipelineError(err error, stage string) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return &PipelineError{
		Code:      ErrCodeUnknown,
		Stage:     stage,
		Message:   "unexpected pipeline failure",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputValidationError reports empty input or a missing required
// collaborator. Never retried.
func NewInputValidationError(details string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeInputValidationFailed,
		Stage:     StageValidation,
		Message:   "Request input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputTooLongError reports input exceeding the configured ceiling,
// detected before any network collaborator is invoked.
func NewInputTooLongError(length, ceiling int) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeInputTooLong,
		Stage:     StageValidation,
		Message:   "Input exceeds the configured length ceiling",
		Details:   fmt.Sprintf("length: %d, ceiling: %d", length, ceiling),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationOutputError reports an unparseable classifier reply.
func NewClassificationOutputError(err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeClassificationOutputInvalid,
		Stage:     StageParse,
		Message:   "Classifier output could not be parsed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIntentValidationError reports a classified intent outside the catalog
// or an out-of-range confidence.
func NewIntentValidationError(details string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeIntentValidationFailed,
		Stage:     StageParse,
		Message:   "Classified intent failed catalog validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataLoadError surfaces a provider load failure verbatim. The core never
// retries it.
func NewDataLoadError(source string, err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeDataLoadFailed,
		Stage:     StageRetrieve,
		Message:   "Data provider load failed",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseRenderError reports template or generative rendering failure
// after the template fallback is exhausted.
func NewResponseRenderError(err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeResponseRenderFailed,
		Stage:     StageGenerate,
		Message:   "Response rendering failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeliveryError records a best-effort delivery failure. It never fails
// the overall request.
func NewDeliveryError(channel string, err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeDeliveryFailed,
		Stage:     StageDeliver,
		Message:   "Message delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLoggingError records a best-effort session logging failure.
func NewLoggingError(err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeLoggingFailed,
		Stage:     StageLog,
		Message:   "Session record logging failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
