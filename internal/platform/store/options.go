package store

import (
	"datacompliance/internal/platform/logger"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by subclients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithPG injects an already-open postgres seam; Open leaves it alone when PG is disabled in Config
func WithPG(pg TxRunner) Option {
	return func(s *Store) error {
		s.PG = pg
		return nil
	}
}
