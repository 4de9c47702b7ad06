package middleware

import (
	"net/http"
	"strconv"
	"time"

	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	pnet "datacompliance/internal/platform/net"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow marks requests taking >= Slow as warn level, 0 disables slow marking
	Slow time.Duration
}

// captureWriter records status and bytes written
type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// AccessLog tags the request logger with the request id, logs one line per
// request and records request metrics
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithRequest(r.Context(), pnet.RequestID(r.Context()))
			r = r.WithContext(ctx)
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(cw, r)

			elapsed := time.Since(start)
			metrics.RecordHTTPRequest(r.Method, strconv.Itoa(cw.status), elapsed.Seconds())

			log := logger.C(ctx)
			evt := log.Info()
			if opt.Slow > 0 && elapsed >= opt.Slow {
				evt = log.Warn()
			}
			if op := pnet.Operator(ctx); op != "" {
				evt = evt.Str("operator", op)
			}
			evt.Int("status", cw.status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", cw.bytes).
				Msg("request done")
		})
	}
}
