package module

import (
	"time"

	"datacompliance/internal/platform/config"
	"datacompliance/internal/services/scheduler/domain"
)

// Options controls scheduler behavior. Values may also be read from env
type Options struct {
	InitialWindowStart time.Time
	WindowLength       time.Duration
	Limit              int

	Cron    string
	LockKey string
	LockTTL time.Duration

	// Lock is required by the cron runner only
	Lock domain.Locker
}

// FromConfig reads options using the SCHEDULER_ prefix
func FromConfig(cfg config.Conf) Options {
	s := cfg.Prefix("SCHEDULER_")
	return Options{
		InitialWindowStart: s.MayTime("INITIAL_WINDOW_START", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)),
		WindowLength:       s.MayDuration("WINDOW_LENGTH", 7*24*time.Hour),
		Limit:              s.MayInt("LIMIT", 0),
		Cron:               s.MayString("CRON", "0 2 * * *"),
		LockKey:            s.MayString("LOCK_KEY", "scheduler"),
		LockTTL:            s.MayDuration("LOCK_TTL", 10*time.Minute),
	}
}
