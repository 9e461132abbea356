package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"catalog-agent/internal/common/config"
	"catalog-agent/internal/content"
)

// SheetsProvider loads items from a Google Sheets range. The first row of the
// range is treated as the header row; header cells become normalized field
// keys for every row below them.
type SheetsProvider struct {
	cfg     config.SheetsConfig
	service *sheets.Service
}

func NewSheets(ctx context.Context, cfg config.SheetsConfig) (*SheetsProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsProvider{cfg: cfg, service: service}, nil
}

// NewSheetsWithService wires an existing service, used by tests.
func NewSheetsWithService(cfg config.SheetsConfig, service *sheets.Service) *SheetsProvider {
	return &SheetsProvider{cfg: cfg, service: service}
}

func (p *SheetsProvider) LoadData(ctx context.Context) ([]content.Item, error) {
	resp, err := p.service.Spreadsheets.Values.
		Get(p.cfg.SpreadsheetID, p.cfg.DataRange).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", p.cfg.DataRange, err)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}

	headers := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		headers = append(headers, content.NormalizeFieldKey(fmt.Sprintf("%v", cell)))
	}

	items := make([]content.Item, 0, len(resp.Values)-1)
	for _, row := range resp.Values[1:] {
		if rowIsBlank(row) {
			continue
		}
		item := make(content.Item, len(headers))
		for i, key := range headers {
			if key == "" {
				continue
			}
			if i < len(row) {
				item[key] = fmt.Sprintf("%v", row[i])
			} else {
				item[key] = ""
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func rowIsBlank(row []interface{}) bool {
	for _, cell := range row {
		if strings.TrimSpace(fmt.Sprintf("%v", cell)) != "" {
			return false
		}
	}
	return true
}

func (p *SheetsProvider) ValidateData(items []content.Item) []string {
	return validateItems(items)
}

func (p *SheetsProvider) Metadata() Info {
	return Info{Name: p.cfg.SpreadsheetID, Kind: "sheets", Description: "google sheets range"}
}
