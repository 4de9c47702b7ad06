package module

import "datacompliance/internal/platform/config"

// Options controls the ledger
type Options struct {
	HistoryLimit int
}

// FromConfig reads options using the AUDIT_ prefix
func FromConfig(cfg config.Conf) Options {
	return Options{HistoryLimit: cfg.Prefix("AUDIT_").MayInt("HISTORY_LIMIT", 100)}
}
