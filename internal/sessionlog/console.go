package sessionlog

import (
	"context"

	"catalog-agent/internal/common/logger"
)

// ConsoleSink emits each record as one structured log line. It is the
// fallback when no spreadsheet storage is configured.
type ConsoleSink struct {
	logger logger.Logger
}

func NewConsole(log logger.Logger) *ConsoleSink {
	return &ConsoleSink{logger: log.WithFields(map[string]interface{}{"component": "session_log"})}
}

func (s *ConsoleSink) Append(_ context.Context, rec Record) error {
	s.logger.Info("session", map[string]interface{}{
		"sessionId":    rec.SessionID,
		"userInput":    rec.UserInput,
		"intent":       rec.Intent,
		"confidence":   rec.Confidence,
		"language":     rec.Language,
		"resultCount":  rec.ResultCount,
		"responseType": rec.ResponseType,
		"success":      rec.Success,
		"errorCode":    rec.ErrorCode,
		"timings":      rec.StageTimings,
		"deliveries":   rec.Deliveries,
	})
	return nil
}
