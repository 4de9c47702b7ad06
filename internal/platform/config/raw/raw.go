// Package raw reads environment variables during bootstrap. It must not
// import the logger, which is configured from it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a namespaced view over the environment, e.g. "LOG_"
type Conf struct {
	prefix string
	lookup func(string) (string, bool)
}

// New returns a root Conf over the process environment
func New() Conf { return Conf{lookup: os.LookupEnv} }

// FromMap returns a root Conf over m
func FromMap(m map[string]string) Conf {
	return Conf{lookup: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

// Prefix returns a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p, lookup: c.lookup} }

func (c Conf) value(key string) string {
	if c.lookup == nil {
		return ""
	}
	v, _ := c.lookup(c.prefix + key)
	return strings.TrimSpace(v)
}

// Get returns the trimmed value or def when empty
func (c Conf) Get(key, def string) string {
	if v := c.value(key); v != "" {
		return v
	}
	return def
}

// GetBool accepts 1|true|yes|on; anything else set is false
func (c Conf) GetBool(key string, def bool) bool {
	switch v := strings.ToLower(c.value(key)); v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// GetInt parses a non negative integer; anything else yields def
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.Atoi(c.value(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// GetMap parses "k1=v1,k2=v2". Pairs without a key are skipped
func (c Conf) GetMap(key string) map[string]string {
	v := c.value(key)
	if v == "" {
		return nil
	}
	out := map[string]string{}
	for _, pair := range strings.Split(v, ",") {
		k, val, _ := strings.Cut(pair, "=")
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(val)
		}
	}
	return out
}
