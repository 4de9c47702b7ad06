package module

import "datacompliance/internal/services/duplicates/domain"

// Ports defines duplicates module ports exposed via the registry
type Ports struct {
	Detector domain.DetectorPort
	Indexer  domain.IndexerPort
}
