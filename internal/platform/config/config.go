// Package config reads service configuration from environment variables
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"datacompliance/internal/platform/logger"
)

// Conf is a namespaced view over environment variables (e.g. "SCHEDULER_", "BUS_")
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// may parses key with parse, falling back to def when unset or invalid
func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Interface("default", def).
			Msg("invalid value; using default")
		return def
	}
	return v
}

// must parses key with parse and panics when unset or invalid
func must[T any](c Conf, key string, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Err(err).Msg("invalid required env")
	}
	return v
}

func parseString(s string) (string, error) { return s, nil }

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	return t.UTC(), err
}

func parseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err == nil && !u.IsAbs() {
		return nil, &url.Error{Op: "parse", URL: s, Err: os.ErrInvalid}
	}
	return u, err
}

// MustString panics if the given key is missing or empty
func (c Conf) MustString(key string) string { return must(c, key, parseString) }

// MustInt panics if the given key is missing or not an int
func (c Conf) MustInt(key string) int { return must(c, key, strconv.Atoi) }

// MustDuration panics if the given key is missing or not a duration
func (c Conf) MustDuration(key string) time.Duration { return must(c, key, time.ParseDuration) }

// MustTime panics if the given key is missing or not RFC3339 / YYYY-MM-DD
func (c Conf) MustTime(key string) time.Time { return must(c, key, parseTime) }

// MustURL panics if the given key is missing or not an absolute URL
func (c Conf) MustURL(key string) *url.URL { return must(c, key, parseURL) }

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string { return may(c, key, def, parseString) }

// MayInt returns the value or def if missing/invalid
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

// MayFloat64 returns the value or def if missing/invalid
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool returns the value or def if missing/invalid
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

// MayDuration returns the value or def if missing/invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayTime returns the value (RFC3339 or YYYY-MM-DD, UTC) or def if missing/invalid
func (c Conf) MayTime(key string, def time.Time) time.Time { return may(c, key, def, parseTime) }

// MayPort returns a net/http addr like ":4000"; def is used when missing or out of range
func (c Conf) MayPort(key string, def string) string {
	return may(c, key, def, func(s string) (string, error) {
		p, err := strconv.Atoi(strings.TrimPrefix(s, ":"))
		if err != nil || p < 1 || p > 65535 {
			return "", strconv.ErrRange
		}
		return ":" + strconv.Itoa(p), nil
	})
}

// MayCSV returns the trimmed non-empty items of a comma-separated var; def if none
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.lookup(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the value when it is one of allowed (case-insensitive), def if empty; panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
