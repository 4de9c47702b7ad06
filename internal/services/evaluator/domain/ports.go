package domain

import (
	"context"

	"datacompliance/internal/platform/bus"
	dupdomain "datacompliance/internal/services/duplicates/domain"
	"datacompliance/internal/services/events"
)

// EvaluatorPort runs the checks this process can answer locally. A nil result
// means no result should be reported, either because the kind is served
// elsewhere or because the outcome is not yet conclusive
type EvaluatorPort interface {
	Evaluate(ctx context.Context, req events.CheckRequested) (*events.CheckResult, error)
	CheckUnlawfullyAtLarge(ctx context.Context, s events.Subject) (*UALMatch, error)
}

// ManualRetentionPort maintains manual retention instructions
type ManualRetentionPort interface {
	GetManualRetention(ctx context.Context, offenderNo string) (ManualRetention, error)
	PutManualRetention(ctx context.Context, offenderNo string, in ManualRetentionInput) (ManualRetention, error)
	DeleteManualRetention(ctx context.Context, offenderNo string) error
}

// ConsumerPort handles check requests from the bus
type ConsumerPort interface {
	HandleCheckRequest(ctx context.Context, m bus.Message) error
}

// ImageChecker is the slice of the duplicates service the image evaluator needs
type ImageChecker interface {
	CheckImageDuplicates(ctx context.Context, offenderNo string) (dupdomain.Finding, error)
}
