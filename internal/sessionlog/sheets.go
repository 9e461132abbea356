package sessionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"catalog-agent/internal/common/config"
	"catalog-agent/internal/common/logger"
)

// headerRow is the fixed column layout of the log sheet.
var headerRow = []interface{}{
	"Timestamp", "Session ID", "User Input", "Intent", "Parameters",
	"Confidence", "Language", "Result Count", "Response Type", "Response",
	"Stage Timings (ms)", "Deliveries", "Success", "Error Code",
}

// SheetsSink appends one fixed-column row per session to a Google Sheets
// tab, creating the tab and its header row on first use.
type SheetsSink struct {
	cfg     config.SheetsConfig
	service *sheets.Service
	logger  logger.Logger

	mu        sync.Mutex
	sheetSeen bool
}

func NewSheets(ctx context.Context, cfg config.SheetsConfig, log logger.Logger) (*SheetsSink, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewSheetsWithService(cfg, service, log), nil
}

// NewSheetsWithService wires an existing service, used by tests.
func NewSheetsWithService(cfg config.SheetsConfig, service *sheets.Service, log logger.Logger) *SheetsSink {
	return &SheetsSink{
		cfg:     cfg,
		service: service,
		logger:  log.WithFields(map[string]interface{}{"component": "session_log"}),
	}
}

func (s *SheetsSink) Append(ctx context.Context, rec Record) error {
	if err := s.ensureSheet(ctx); err != nil {
		return err
	}

	params, _ := json.Marshal(rec.Parameters)
	timings, _ := json.Marshal(rec.StageTimings)

	row := []interface{}{
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.SessionID,
		rec.UserInput,
		rec.Intent,
		string(params),
		rec.Confidence,
		rec.Language,
		rec.ResultCount,
		rec.ResponseType,
		rec.Response,
		string(timings),
		strings.Join(rec.Deliveries, ", "),
		rec.Success,
		rec.ErrorCode,
	}

	_, err := s.service.Spreadsheets.Values.
		Append(s.cfg.SpreadsheetID, s.cfg.LogSheetName+"!A1", &sheets.ValueRange{
			Values: [][]interface{}{row},
		}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append session row: %w", err)
	}
	return nil
}

// ensureSheet creates the log tab with its header row the first time a
// record is appended, once per process.
func (s *SheetsSink) ensureSheet(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetSeen {
		return nil
	}

	doc, err := s.service.Spreadsheets.Get(s.cfg.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.cfg.LogSheetName {
			s.sheetSeen = true
			return nil
		}
	}

	_, err = s.service.Spreadsheets.BatchUpdate(s.cfg.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: s.cfg.LogSheetName},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create log sheet: %w", err)
	}

	_, err = s.service.Spreadsheets.Values.
		Update(s.cfg.SpreadsheetID, s.cfg.LogSheetName+"!A1", &sheets.ValueRange{
			Values: [][]interface{}{headerRow},
		}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	s.logger.Info("log sheet created", map[string]interface{}{
		"sheet": s.cfg.LogSheetName,
	})
	s.sheetSeen = true
	return nil
}
