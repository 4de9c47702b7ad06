package pg

import (
	"context"
	"strings"

	"datacompliance/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one executed statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives statement events from the store adapters
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement; it ignores the root level so LogSQL=true always prints
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if ev.Err != nil {
		evt = z.log.Error().Err(ev.Err)
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Msg("pg query")
}

// compact folds runs of whitespace so multi-line SQL logs on one line
func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
