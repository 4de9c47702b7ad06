package module

import "datacompliance/internal/services/scheduler/domain"

// Ports defines scheduler module ports exposed via the registry
type Ports struct {
	Scheduler domain.SchedulerPort
	Runner    domain.RunnerPort
	Consumer  domain.ConsumerPort
}
