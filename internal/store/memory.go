// Package store loads one parsed upload into an in-memory SQLite database
// for ad-hoc queries. Nothing is written to disk.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/source"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Tables lists the relations available to queries.
var Tables = []string{"usage_records", "usage_extra", "daily_costs", "service_costs", "resource_group_costs"}

// Memory is an in-memory database holding a single upload.
type Memory struct {
	db *sql.DB
}

// Open creates an empty in-memory database with the usage schema.
func Open() (*Memory, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening memory db: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Memory{db: db}, nil
}

// Close releases the database and everything loaded into it.
func (m *Memory) Close() error {
	return m.db.Close()
}

// Load inserts the dataset's records and their extra columns.
func (m *Memory) Load(ctx context.Context, ds source.Dataset) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	recStmt, err := tx.PrepareContext(ctx, `INSERT INTO usage_records
		(row_num, date, service, resource_group, cost, cost_text, has_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = recStmt.Close() }()

	extraStmt, err := tx.PrepareContext(ctx, `INSERT INTO usage_extra
		(row_num, column_name, value, kind, number) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing extra insert: %w", err)
	}
	defer func() { _ = extraStmt.Close() }()

	for _, r := range ds.Records {
		var costText any
		if r.HasCost {
			costText = r.Cost.String()
		}
		if _, err := recStmt.ExecContext(ctx,
			r.Row, nullString(r.Day()), nullString(r.Service), nullString(r.ResourceGroup),
			costFloat(r), costText, boolInt(r.HasCost),
		); err != nil {
			return fmt.Errorf("inserting row %d: %w", r.Row, err)
		}

		for col, raw := range r.Extra {
			v := source.InferValue(raw)
			var num any
			if v.Kind == source.KindNumber {
				num = v.Number.InexactFloat64()
			}
			if _, err := extraStmt.ExecContext(ctx, r.Row, col, v.Raw, v.Kind.String(), num); err != nil {
				return fmt.Errorf("inserting row %d column %q: %w", r.Row, col, err)
			}
		}
	}

	return tx.Commit()
}

// Result is a fully materialized query result rendered as text.
type Result struct {
	Columns []string
	Rows    [][]string
}

// Query runs a SQL statement and renders every cell as text. NULL
// renders as "NULL".
func (m *Memory) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: cols}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = renderCell(v)
		}
		res.Rows = append(res.Rows, row)
	}
	return res, rows.Err()
}

// Count returns the number of records loaded.
func (m *Memory) Count(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage_records").Scan(&n)
	return n, err
}

func renderCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func costFloat(r model.UsageRecord) float64 {
	if !r.HasCost {
		return 0
	}
	return r.Cost.InexactFloat64()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
