package module

import "datacompliance/internal/services/referral/domain"

// Ports defines referral module ports exposed via the registry
type Ports struct {
	Intake      domain.IntakePort
	Aggregator  domain.AggregatorPort
	Resolution  domain.ResolutionPort
	Consumer    domain.ConsumerPort
	Maintenance domain.MaintenancePort
}
