package module

import (
	"datacompliance/internal/core/fuzzy"
	"datacompliance/internal/platform/config"
	"datacompliance/internal/services/evaluator/domain"
)

// Options controls the local evaluators. Values may also be read from env
type Options struct {
	NameThreshold float64

	// Images serves IMAGE_DUPLICATE checks; nil leaves them to another evaluator
	Images domain.ImageChecker
}

// FromConfig reads options using the EVALUATOR_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("EVALUATOR_")
	return Options{
		NameThreshold: c.MayFloat64("NAME_THRESHOLD", fuzzy.DefaultThreshold),
	}
}
