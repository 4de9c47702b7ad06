package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"datacompliance/internal/platform/config"
	"datacompliance/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server is a thin wrapper over chi and the stdlib http.Server
type Server struct {
	addr     string
	mux      *chi.Mux
	srv      *stdhttp.Server
	shutdown time.Duration
}

// NewServer reads API_PORT and API_SHUTDOWN_TIMEOUT from cfg
// opts receive the *chi.Mux so callers can mount middleware first
func NewServer(cfg config.Conf, opts ...func(*chi.Mux)) *Server {
	c := cfg.Prefix("API_")
	addr := c.MayString("ADDR", "")
	if addr == "" {
		addr = c.MayPort("PORT", ":4000")
	}
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	return &Server{
		addr:     addr,
		mux:      m,
		shutdown: c.MayDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router returns a Router facade over the internal chi mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("http listening")
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdown)
	defer cancel()
	log.Info().Msg("http shutting down")
	if err := s.srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
