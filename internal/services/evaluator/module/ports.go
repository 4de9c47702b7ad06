package module

import "datacompliance/internal/services/evaluator/domain"

// Ports defines evaluator module ports exposed via the registry
type Ports struct {
	Evaluator       domain.EvaluatorPort
	ManualRetention domain.ManualRetentionPort
	Consumer        domain.ConsumerPort
}
