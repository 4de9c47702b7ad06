package middleware

import (
	stdhttp "net/http"
	"runtime/debug"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	phttp "datacompliance/internal/platform/net/http"
	pnet "datacompliance/internal/platform/net"
)

// RecoverJSON converts panics into a JSON 500 envelope and logs the stack
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == stdhttp.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if reqID := pnet.RequestID(r.Context()); reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}
			phttp.RespondError(w, r, perr.PanicErrf("panic recovered"))
		}()
		next.ServeHTTP(w, r)
	})
}
