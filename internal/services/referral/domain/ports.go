package domain

import (
	"context"
	"time"

	"datacompliance/internal/platform/bus"
	"datacompliance/internal/services/events"
)

// Outcome is an evaluator result ready to apply. Kind, when set, must match
// the stored check
type Outcome struct {
	CheckID           int64
	Kind              events.CheckKind
	Status            events.CheckStatus
	DataDuplicates    []events.DataDuplicateFound
	ImageDuplicateIDs []int64
	Payload           []byte
}

// OutcomeFrom maps a result message onto an Outcome
func OutcomeFrom(m events.CheckResult) Outcome {
	return Outcome{
		CheckID:           m.CheckID,
		Kind:              m.Kind,
		Status:            m.Status,
		DataDuplicates:    m.DataDuplicates,
		ImageDuplicateIDs: m.ImageDuplicateIDs,
		Payload:           m.Payload,
	}
}

// IntakePort stores referrals sent by the source
type IntakePort interface {
	IntakeReferral(ctx context.Context, m events.PendingDeletion) (Referral, error)
}

// AggregatorPort creates, dispatches and applies retention checks
type AggregatorPort interface {
	InitiateChecks(ctx context.Context, ref Referral) ([]Check, error)
	ApplyResult(ctx context.Context, o Outcome) (Check, error)
	Redispatch(ctx context.Context, checkID int64) (Check, error)
	Backlog(ctx context.Context) (Backlog, error)
}

// ResolutionPort moves decisions after they were made
type ResolutionPort interface {
	MarkDeleted(ctx context.Context, referralID int64) (Resolution, error)
	RepublishGrants(ctx context.Context) (int, error)
}

// ConsumerPort handles inbound bus messages
type ConsumerPort interface {
	HandlePendingDeletion(ctx context.Context, m bus.Message) error
	HandleCheckResult(ctx context.Context, m bus.Message) error
	HandleExternalDeletion(ctx context.Context, m bus.Message) error
}

// MaintenancePort runs periodic sweeps until ctx is done
type MaintenancePort interface {
	RunMaintenance(ctx context.Context, every time.Duration) error
}
