package module

import (
	"strings"
	"time"

	"datacompliance/internal/platform/config"
	"datacompliance/internal/platform/logger"
	auditdomain "datacompliance/internal/services/audit/domain"
	"datacompliance/internal/services/events"
)

// Options controls the aggregator. Values may also be read from env
type Options struct {
	// Kinds lists the enabled check kinds in dispatch order
	Kinds                    []events.CheckKind
	SkipImagesWithoutUploads bool

	BacklogTolerance time.Duration
	BacklogLimit     int
	RepublishLimit   int
	MaintenanceEvery time.Duration

	// Ledger receives decision history; nil disables it
	Ledger auditdomain.LedgerPort
}

// FromConfig reads options using the REFERRAL_ prefix. An unknown check
// kind is a startup error
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("REFERRAL_")
	names := make([]string, 0, len(events.AllCheckKinds))
	for _, k := range events.AllCheckKinds {
		names = append(names, string(k))
	}

	var kinds []events.CheckKind
	for _, v := range c.MayCSV("CHECK_KINDS", names) {
		k := events.CheckKind(strings.ToUpper(v))
		if !k.Valid() {
			logger.Get().Panic().Str("key", "REFERRAL_CHECK_KINDS").Str("value", v).Strs("allowed", names).Msg("unknown check kind")
		}
		kinds = append(kinds, k)
	}

	return Options{
		Kinds:                    kinds,
		SkipImagesWithoutUploads: c.MayBool("SKIP_IMAGES_WITHOUT_UPLOADS", true),
		BacklogTolerance:         c.MayDuration("BACKLOG_TOLERANCE", 48*time.Hour),
		BacklogLimit:             c.MayInt("BACKLOG_LIMIT", 200),
		RepublishLimit:           c.MayInt("REPUBLISH_LIMIT", 100),
		MaintenanceEvery:         c.MayDuration("MAINTENANCE_EVERY", time.Minute),
	}
}
