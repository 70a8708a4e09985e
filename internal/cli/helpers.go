package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/anthon-sd/ab-test-toolkit/internal/analytics"
	"github.com/anthon-sd/ab-test-toolkit/internal/form"
)

// track runs fn as one observed calculation.
func (a *app) track(ctx context.Context, calc analytics.Calculator, fn func(ev *analytics.Event) error) error {
	start := time.Now()
	ev := analytics.NewEvent(calc, analytics.SourceCLI)
	err := fn(&ev)
	ev.Err = err
	ev.Duration = time.Since(start)
	a.observer.Observe(ctx, ev)
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDefault(raw string, def float64) string {
	if strings.TrimSpace(raw) == "" {
		return formatFloat(def)
	}
	return raw
}

func validDecimal(s string) error {
	_, err := form.ParseDecimal(s)
	return err
}

func validInt(s string) error {
	_, err := form.ParseInt(s)
	return err
}

func validPercent(s string) error {
	_, err := form.ParsePercent(s)
	return err
}
