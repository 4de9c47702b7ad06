// Package domain holds the deletion window scheduler types and ports
package domain

import (
	"time"

	"datacompliance/internal/core/window"
	perr "datacompliance/internal/platform/errors"
)

// BatchType distinguishes windowed batches from one-off referrals
type BatchType string

// Batch types
const (
	Scheduled BatchType = "SCHEDULED"
	AdHoc     BatchType = "AD_HOC"
)

// Batch is one request to the referral source
type Batch struct {
	ID                int64      `json:"id"`
	Type              BatchType  `json:"type"`
	RequestedAt       time.Time  `json:"requestedAt"`
	WindowStart       *time.Time `json:"windowStart,omitempty"`
	WindowEnd         *time.Time `json:"windowEnd,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	ReferredCount     *int       `json:"referredCount,omitempty"`
	RemainingInWindow *int       `json:"remainingInWindow,omitempty"`
	Comment           string     `json:"comment,omitempty"`
}

// Previous projects a scheduled batch into what window.Next needs
func (b Batch) Previous() (*window.Previous, error) {
	if b.WindowStart == nil || b.WindowEnd == nil {
		return nil, perr.Integrityf("scheduled batch %d has no window", b.ID)
	}
	p := &window.Previous{
		Start:     *b.WindowStart,
		End:       *b.WindowEnd,
		Completed: b.CompletedAt != nil,
	}
	if b.RemainingInWindow != nil {
		p.Remaining = *b.RemainingInWindow
	}
	return p, nil
}

// AdHocInput requests a referral for one offender outside the window cadence
type AdHocInput struct {
	OffenderNo string `json:"offenderNo" validate:"required,offender_no"`
	Reason     string `json:"reason" validate:"required,max=500"`
}
