// Package series loads historical KPI values for volatility analysis.
//
// Values come from pasted text, a CSV column or a query against an existing
// SQLite database. Nothing here writes data; the toolkit keeps no state of
// its own.
package series

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoValues is returned when a source yields no numbers at all.
var ErrNoValues = errors.New("no values found")

// Source yields a KPI series in chronological order.
type Source interface {
	Values(ctx context.Context) ([]float64, error)
}

// File reads a series from disk. Files ending in .csv are read as CSV using
// Column; anything else is parsed as free text.
type File struct {
	Path   string
	Column string
}

func (f File) Values(ctx context.Context) ([]float64, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Path, err)
	}
	defer fh.Close()

	if strings.EqualFold(filepath.Ext(f.Path), ".csv") {
		return ReadCSV(fh, f.Column)
	}
	return ParseText(fh)
}

// Query runs SQL against the SQLite database at Path and returns the first
// column of each row.
type Query struct {
	Path string
	SQL  string
	Args []any
}

func (q Query) Values(ctx context.Context) ([]float64, error) {
	src, err := OpenSQLite(q.Path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return src.Load(ctx, q.SQL, q.Args...)
}
