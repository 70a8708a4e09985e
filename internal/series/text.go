package series

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// maxLineBytes bounds a single line, so a whole series pasted as one
// comma-separated line still fits.
const maxLineBytes = 4 << 20

// ParseText reads numbers separated by newlines, commas, semicolons or
// whitespace. A trailing "%" marks a percentage, so "2.5%" becomes 0.025.
// Blank lines are skipped. An input with no numbers yields an empty slice.
func ParseText(r io.Reader) ([]float64, error) {
	values := []float64{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		for _, tok := range strings.FieldsFunc(scanner.Text(), isSeparator) {
			v, err := parseToken(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}

	return values, nil
}

func isSeparator(r rune) bool {
	return r == ',' || r == ';' || unicode.IsSpace(r)
}

func parseToken(tok string) (float64, error) {
	s := strings.TrimSuffix(tok, "%")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", tok)
	}
	if len(s) != len(tok) {
		d = d.Div(hundred)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is out of range", tok)
	}
	return f, nil
}
