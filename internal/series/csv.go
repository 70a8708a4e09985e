package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV reads the named column of a CSV file with a header row. An empty
// column name selects the last column. Empty, NA and null cells are
// skipped; any other cell that is not a number is an error.
func ReadCSV(r io.Reader, column string) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoValues
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := len(header) - 1
	if column != "" {
		idx = -1
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), column) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("column %q not found in header %v", column, header)
		}
	}

	values := []float64{}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		if idx >= len(record) {
			continue
		}

		cell := strings.TrimSpace(record[idx])
		switch strings.ToLower(cell) {
		case "", "na", "null":
			continue
		}
		v, err := parseToken(cell)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, ErrNoValues
	}
	return values, nil
}
