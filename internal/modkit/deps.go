// Package modkit provides module wiring and core deps
package modkit

import (
	"time"

	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/config"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log    logger.Logger
	Cfg    config.Conf
	PG     repokit.TxRunner
	CH     store.Clickhouse
	Bus    bus.Publisher
	Topics bus.Topics

	// Now is the clock every service reads; nil means time.Now
	Now func() time.Time
}

// Clock returns d.Now or time.Now in UTC
func (d Deps) Clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return func() time.Time { return time.Now().UTC() }
}
