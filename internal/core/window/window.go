// Package window computes the next deletion window from the previous scheduled batch
package window

import (
	"time"

	perr "datacompliance/internal/platform/errors"
)

// Config fixes where the first window starts and how long every window is
type Config struct {
	InitialStart time.Time
	Length       time.Duration
}

// Window is the half-open interval [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// Previous is what Next needs to know about the last scheduled batch
type Previous struct {
	Start     time.Time
	End       time.Time
	Completed bool
	// Remaining is how many records in the window were left unreferred
	Remaining int
}

// Next returns the window the scheduler should request. A prior batch that
// has not completed yet is a precondition failure; a window that is not
// strictly in the past is a validation failure
func Next(prev *Previous, cfg Config, now time.Time) (Window, error) {
	if cfg.Length <= 0 {
		return Window{}, perr.Validationf("window length must be positive, got %s", cfg.Length)
	}

	start := cfg.InitialStart
	if prev != nil {
		if !prev.Completed {
			return Window{}, perr.Preconditionf("previous batch window %s..%s has not completed",
				prev.Start.Format(time.RFC3339), prev.End.Format(time.RFC3339))
		}
		if prev.Remaining > 0 {
			start = prev.Start
		} else {
			start = prev.End
		}
	}

	w := Window{Start: start.UTC(), End: start.Add(cfg.Length).UTC()}
	return w, w.Validate(now)
}

// Validate checks Start < End and that both are strictly before now
func (w Window) Validate(now time.Time) error {
	switch {
	case !w.Start.Before(w.End):
		return perr.Validationf("window start %s is not before end %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	case !w.Start.Before(now):
		return perr.Validationf("window start %s is not in the past", w.Start.Format(time.RFC3339))
	case !w.End.Before(now):
		return perr.Validationf("window end %s is not in the past", w.End.Format(time.RFC3339))
	}
	return nil
}
