package module

import (
	"datacompliance/internal/platform/config"
	"datacompliance/internal/services/duplicates/domain"
)

// Options controls duplicate detection. Values may also be read from env
type Options struct {
	Threshold float64
	MinImages int

	// Index overrides the HTTP similarity index client
	Index domain.FaceIndex
}

// FromConfig reads options using the DUPLICATES_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("DUPLICATES_")
	return Options{
		Threshold: c.MayFloat64("SIMILARITY_THRESHOLD", 90),
		MinImages: c.MayInt("MIN_IMAGES", 2),
	}
}
