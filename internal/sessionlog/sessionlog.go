// Package sessionlog persists one record per completed request: what the
// user asked, how it was classified, what was returned, and how each stage
// performed.
package sessionlog

import (
	"context"
	"time"
)

// Record is the immutable end-of-request summary built by the orchestrator.
type Record struct {
	SessionID    string                 `json:"session_id"`
	UserInput    string                 `json:"user_input"`
	Intent       string                 `json:"intent"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	Confidence   float64                `json:"confidence"`
	Language     string                 `json:"language"`
	ResultCount  int                    `json:"result_count"`
	ResponseType string                 `json:"response_type"`
	Response     string                 `json:"response"`
	StageTimings map[string]int64       `json:"stage_timings_ms,omitempty"`
	Deliveries   []string               `json:"deliveries,omitempty"`
	Success      bool                   `json:"success"`
	ErrorCode    string                 `json:"error_code,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Sink accepts session records. Append is best-effort from the pipeline's
// point of view: failures are reported but never fail the request.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}
