package provider

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"catalog-agent/internal/common/config"
	"catalog-agent/internal/content"
)

// PostgresProvider runs a configured query and maps each row to an item,
// using the result columns as field keys.
type PostgresProvider struct {
	cfg config.PostgresProviderConfig
	db  *sql.DB
}

func NewPostgres(cfg config.PostgresProviderConfig) (*PostgresProvider, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresProvider{cfg: cfg, db: db}, nil
}

// NewPostgresWithDB wires an existing handle, used by tests.
func NewPostgresWithDB(cfg config.PostgresProviderConfig, db *sql.DB) *PostgresProvider {
	return &PostgresProvider{cfg: cfg, db: db}
}

func (p *PostgresProvider) LoadData(ctx context.Context) ([]content.Item, error) {
	rows, err := p.db.QueryContext(ctx, p.cfg.Query)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var items []content.Item
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		item := make(content.Item, len(columns))
		for i, col := range columns {
			value := values[i]
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			item[content.NormalizeFieldKey(col)] = value
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}

func (p *PostgresProvider) ValidateData(items []content.Item) []string {
	return validateItems(items)
}

func (p *PostgresProvider) Metadata() Info {
	return Info{Name: p.cfg.Database, Kind: "postgres", Description: "postgres query"}
}

func (p *PostgresProvider) Close() error {
	return p.db.Close()
}
