// Package analytics records calculator usage. Front ends (CLI and HTTP)
// build an Event after each calculation and hand it to an Observer; the
// stats engine itself never reports anything.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Calculator names the calculation an Event describes.
type Calculator string

const (
	CalculatorSampleSize   Calculator = "sample_size"
	CalculatorRuntime      Calculator = "runtime"
	CalculatorSignificance Calculator = "significance"
	CalculatorVolatility   Calculator = "volatility"
)

// Sources that produce events.
const (
	SourceCLI  = "cli"
	SourceHTTP = "http"
)

// Event is one finished calculation. Labels hold categorical inputs and
// outcomes (kpi_type, metric_type, model, significant); Values hold numeric
// inputs and results.
type Event struct {
	ID         uuid.UUID
	Calculator Calculator
	Source     string
	Labels     map[string]string
	Values     map[string]float64
	Duration   time.Duration
	Err        error
}

// NewEvent starts an event with a fresh ID.
func NewEvent(calc Calculator, source string) Event {
	return Event{
		ID:         uuid.New(),
		Calculator: calc,
		Source:     source,
		Labels:     map[string]string{},
		Values:     map[string]float64{},
	}
}

// Outcome is "error" when the calculation failed and "ok" otherwise.
func (e Event) Outcome() string {
	if e.Err != nil {
		return "error"
	}
	return "ok"
}

// Observer receives calculation events. Implementations must be safe for
// concurrent use.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Nop discards every event.
var Nop Observer = ObserverFunc(func(context.Context, Event) {})

type multi []Observer

func (m multi) Observe(ctx context.Context, ev Event) {
	for _, o := range m {
		o.Observe(ctx, ev)
	}
}

// Multi fans each event out to every non-nil observer in order.
func Multi(observers ...Observer) Observer {
	var m multi
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return Nop
	case 1:
		return m[0]
	}
	return m
}
