// Package middleware provides thin adapters over chi middleware without leaking chi types
package middleware

import (
	"net/http"
	"time"

	pnet "datacompliance/internal/platform/net"
	pstrings "datacompliance/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// OperatorHeader names the caller of an ops endpoint; authentication happens upstream
const OperatorHeader = "X-Operator-Id"

// RequestID attaches or propagates X-Request-ID and stores it on context
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// RealIP sets RemoteAddr to the upstream IP based on X-Forwarded-For headers
func RealIP() func(http.Handler) http.Handler { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) func(http.Handler) http.Handler { return chimw.Timeout(d) }

// NoCache sets headers to disable client and proxy caching
func NoCache() func(http.Handler) http.Handler { return chimw.NoCache }

// Heartbeat replies with 200 OK to GET path, useful for LB health checks
func Heartbeat(path string) func(http.Handler) http.Handler { return chimw.Heartbeat(path) }

// Operator copies the operator header onto the request context
func Operator() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if op := r.Header.Get(OperatorHeader); op != "" {
				r = r.WithContext(pnet.WithOperator(r.Context(), op))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSOptions is a narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORS wraps go-chi/cors with defaults for the ops console
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	return chicors.Handler(chicors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: pstrings.IfEmpty(o.AllowedMethods, []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: pstrings.IfEmpty(o.AllowedHeaders, []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			OperatorHeader,
		}),
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}
