package series

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteSource reads KPI history from an existing SQLite database. The
// connection is opened read-only; a missing file is an error rather than a
// new empty database.
type SQLiteSource struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Load runs query and returns the first column of every row in order.
// NULLs are skipped.
func (s *SQLiteSource) Load(ctx context.Context, query string, args ...any) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query values: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("query returned no columns")
	}

	var value sql.NullFloat64
	dest := make([]any, len(cols))
	dest[0] = &value
	for i := 1; i < len(dest); i++ {
		dest[i] = new(any)
	}

	values := []float64{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", cols[0], err)
		}
		if value.Valid {
			values = append(values, value.Float64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrNoValues
	}
	return values, nil
}
