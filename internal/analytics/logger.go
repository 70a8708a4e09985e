package analytics

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Logger writes each event as one structured log entry: successes at debug
// level, failures at info.
type Logger struct {
	log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log.Named("analytics")}
}

func (l *Logger) Observe(_ context.Context, ev Event) {
	fields := make([]zap.Field, 0, 5+len(ev.Labels)+len(ev.Values))
	fields = append(fields,
		zap.String("event_id", ev.ID.String()),
		zap.String("calculator", string(ev.Calculator)),
		zap.String("source", ev.Source),
		zap.Duration("duration", ev.Duration),
	)
	for _, k := range sortedKeys(ev.Labels) {
		fields = append(fields, zap.String(k, ev.Labels[k]))
	}
	for _, k := range sortedKeys(ev.Values) {
		fields = append(fields, zap.Float64(k, ev.Values[k]))
	}

	if ev.Err != nil {
		l.log.Info("calculation failed", append(fields, zap.Error(ev.Err))...)
		return
	}
	l.log.Debug("calculation", fields...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
