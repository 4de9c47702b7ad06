// Package logger wraps zerolog with process-wide defaults and context-carried
// fields for batches, referrals, offenders and checks
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"datacompliance/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures the logger
type Options struct {
	Level        string
	Format       string
	Service      string
	Writer       io.Writer
	WithCaller   bool
	StaticFields map[string]string
}

// FromEnv builds Options from LOG_* using the raw config view. LOG_FIELDS
// takes static fields as env=prod,region=eu-west-2
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:        strings.ToLower(rc.Get("LEVEL", "info")),
		Format:       strings.ToLower(rc.Get("FORMAT", "json")),
		Service:      rc.Get("SERVICE", ""),
		WithCaller:   rc.GetBool("CALLER", false),
		StaticFields: rc.GetMap("FIELDS"),
	}
}

var (
	once   sync.Once
	root   atomic.Pointer[zerolog.Logger]
	inited atomic.Bool
)

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// Get returns the process-wide root logger
func Get() *Logger {
	if !inited.Load() {
		Init(FromEnv())
	}
	return root.Load()
}

// Init configures zerolog and builds the root logger; only the first call wins
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stdout
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		zc := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
			zc = zc.Str("go_version", bi.GoVersion)
		}
		if opt.Service != "" {
			zc = zc.Str("service", opt.Service)
		}
		for k, v := range opt.StaticFields {
			zc = zc.Str(k, v)
		}

		log := zc.Logger()
		if opt.WithCaller {
			log = log.With().Caller().Logger()
		}
		root.Store(&log)
		inited.Store(true)
	})
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey struct{ name string }

var (
	keyRequestID  = ctxKey{"request_id"}
	keyBatchID    = ctxKey{"batch_id"}
	keyReferralID = ctxKey{"referral_id"}
	keyOffenderNo = ctxKey{"offender_no"}
	keyCheckID    = ctxKey{"check_id"}
)

// WithRequest tags ctx with an inbound request or message id
func WithRequest(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRequestID, id)
}

// WithBatch tags ctx with a batch id
func WithBatch(ctx context.Context, batchID int64) context.Context {
	return context.WithValue(ctx, keyBatchID, batchID)
}

// WithReferral tags ctx with a referral id and the offender it concerns
func WithReferral(ctx context.Context, referralID int64, offenderNo string) context.Context {
	ctx = context.WithValue(ctx, keyReferralID, referralID)
	if offenderNo != "" {
		ctx = context.WithValue(ctx, keyOffenderNo, offenderNo)
	}
	return ctx
}

// WithCheck tags ctx with a retention check id
func WithCheck(ctx context.Context, checkID int64) context.Context {
	return context.WithValue(ctx, keyCheckID, checkID)
}

// C returns a child logger enriched with whatever ids ctx carries
func C(ctx context.Context) *Logger {
	b := Get().With()
	if s, ok := ctx.Value(keyRequestID).(string); ok {
		b = b.Str("request_id", s)
	}
	if s, ok := ctx.Value(keyOffenderNo).(string); ok {
		b = b.Str("offender_no", s)
	}
	for _, k := range []ctxKey{keyBatchID, keyReferralID, keyCheckID} {
		if v, ok := ctx.Value(k).(int64); ok {
			b = b.Int64(k.name, v)
		}
	}
	ll := b.Logger()
	return &ll
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}
