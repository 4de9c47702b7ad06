package httpkit

import (
	"net/http"
	"time"

	"datacompliance/internal/platform/net/middleware"
)

// CommonStack returns the baseline middleware slice for versioned routes
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: 2 * time.Second}),
		middleware.RecoverJSON,
		middleware.Operator(),
		middleware.NoCache(),
		middleware.Timeout(30 * time.Second),
	}
}
