// Package form turns calculator input, as typed into form fields, into the
// numeric types the stats engine expects.
//
// The engine only rejects input it cannot compute with. Preconditions such
// as a non-zero uplift, a non-zero control rate and conversions within the
// group size are checked here first, so users get per-field messages.
package form

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error collects every problem found in a submitted form.
type Error struct {
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

func (e *Error) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *Error) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	sort.SliceStable(e.Fields, func(i, j int) bool { return e.Fields[i].Field < e.Fields[j].Field })
	return e
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields under their JSON names, which match the form field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterStructValidation(sampleSizeRange, sampleSizeInput{})
	validate.RegisterStructValidation(groupRange, conversionInput{})
}

// check runs the validator on v and appends translated failures to e.
func check(e *Error, v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		e.add("form", "%v", err)
		return
	}
	for _, fe := range verrs {
		e.add(fieldPath(fe), "%s", describe(fe))
	}
}

// fieldPath drops the top-level struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "ne":
		return "must not be " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "proportion":
		return "must keep the expected rate below 1"
	case "ltefield":
		return "must not exceed " + fe.Param()
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// ParseDecimal parses a decimal string such as "12.5", "-3" or "1e-3".
// NaN and infinities are rejected.
func ParseDecimal(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return f, nil
}

// ParseInt parses a whole number. "1000" and "1e3" are accepted, "10.5" is not.
func ParseInt(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	if d.Abs().GreaterThan(decimal.NewFromInt(1 << 31)) {
		return 0, fmt.Errorf("%q is too large", s)
	}
	return int(d.IntPart()), nil
}

var hundred = decimal.NewFromInt(100)

// ParsePercent parses "5", "5%" or "12.5 %" into a ratio (0.05, 0.125).
func ParsePercent(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, fmt.Errorf("is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a percentage", raw)
	}
	f, _ := d.Div(hundred).Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is out of range", raw)
	}
	return f, nil
}

// optional parses raw with parse unless it is blank, in which case def is returned.
func optional[T any](e *Error, field, raw string, def T, parse func(string) (T, error)) T {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		e.add(field, "%v", err)
		return def
	}
	return v
}

func required[T any](e *Error, field, raw string, parse func(string) (T, error)) T {
	v, err := parse(raw)
	if err != nil {
		e.add(field, "%v", err)
	}
	return v
}
