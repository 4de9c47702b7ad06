// Package domain holds referral, retention check and resolution types
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"datacompliance/internal/services/events"
)

// ResolutionStatus is the final decision for a referral. A referral
// without a resolution is pending
type ResolutionStatus string

// Resolution states
const (
	Retained        ResolutionStatus = "RETAINED"
	DeletionGranted ResolutionStatus = "DELETION_GRANTED"
	Deleted         ResolutionStatus = "DELETED"
)

// Resolution is written once per referral
type Resolution struct {
	ReferralID  int64            `json:"referralId"`
	Status      ResolutionStatus `json:"status"`
	ResolvedAt  time.Time        `json:"resolvedAt"`
	Reason      string           `json:"retentionReason,omitempty"`
	RetainedBy  []int64          `json:"retainedBy,omitempty"`
	PublishedAt *time.Time       `json:"publishedAt,omitempty"`
	DeletedAt   *time.Time       `json:"deletedAt,omitempty"`
}

// Referral is one offender's case under review in a batch
type Referral struct {
	ID         int64
	BatchID    int64
	Subject    Subject
	ReceivedAt time.Time
	Resolution *Resolution
}

// Pending reports whether no decision has been made yet
func (r Referral) Pending() bool { return r.Resolution == nil }

// OffenderIDs returns the distinct offender ids in record order
func (r Referral) OffenderIDs() []int64 {
	out := []int64{}
	seen := map[int64]bool{}
	for _, rec := range r.Subject.Records() {
		if !seen[rec.OffenderID] {
			seen[rec.OffenderID] = true
			out = append(out, rec.OffenderID)
		}
	}
	return out
}

// OffenderBookIDs returns the distinct booking ids in record order
func (r Referral) OffenderBookIDs() []int64 {
	out := []int64{}
	seen := map[int64]bool{}
	for _, rec := range r.Subject.Records() {
		if rec.OffenderBookID != 0 && !seen[rec.OffenderBookID] {
			seen[rec.OffenderBookID] = true
			out = append(out, rec.OffenderBookID)
		}
	}
	return out
}

// EventSubject is what evaluators get to see
func (r Referral) EventSubject() events.Subject {
	p := r.Subject.Details()
	s := events.Subject{
		OffenderNo: r.Subject.OffenderNo(),
		FirstName:  p.FirstName,
		MiddleName: p.MiddleName,
		LastName:   p.LastName,
		PNC:        p.PNC,
		CRO:        p.CRO,
	}
	for _, rec := range r.Subject.Records() {
		if rec.BookingNo != "" {
			s.BookingNos = append(s.BookingNos, rec.BookingNo)
		}
	}
	return s
}

// Grant builds the deletion granted message for the referral
func (r Referral) Grant() events.DeletionGranted {
	return events.DeletionGranted{
		ReferralID:      r.ID,
		BatchID:         r.BatchID,
		OffenderNo:      r.Subject.OffenderNo(),
		OffenderIDs:     r.OffenderIDs(),
		OffenderBookIDs: r.OffenderBookIDs(),
	}
}

// Check is one retention criterion evaluated for a referral
type Check struct {
	ID           int64              `json:"id"`
	ReferralID   int64              `json:"referralId"`
	Kind         events.CheckKind   `json:"kind"`
	Status       events.CheckStatus `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	DispatchedAt *time.Time         `json:"dispatchedAt,omitempty"`
	CheckedAt    *time.Time         `json:"checkedAt,omitempty"`
	Payload      json.RawMessage    `json:"payload,omitempty"`
}

// Decision is the outcome the state machine wants persisted
type Decision struct {
	Status     ResolutionStatus
	Reason     string
	RetainedBy []int64
}

// Resolve decides a referral from its full check set. It returns false while
// any check is pending or there are no checks yet. Any RETENTION_REQUIRED
// check retains the referral and is named in the reason
func Resolve(checks []Check) (Decision, bool) {
	if len(checks) == 0 {
		return Decision{}, false
	}
	var retaining []Check
	for _, c := range checks {
		if !c.Status.Terminal() {
			return Decision{}, false
		}
		if c.Status == events.CheckRequired {
			retaining = append(retaining, c)
		}
	}
	if len(retaining) == 0 {
		return Decision{Status: DeletionGranted}, true
	}

	ids := make([]int64, 0, len(retaining))
	names := make([]string, 0, len(retaining))
	for _, c := range retaining {
		ids = append(ids, c.ID)
		names = append(names, fmt.Sprintf("%s(%d)", c.Kind, c.ID))
	}
	return Decision{
		Status:     Retained,
		Reason:     "retention required by " + strings.Join(names, ", "),
		RetainedBy: ids,
	}, true
}

// Policy picks the check kinds a referral needs
type Policy struct {
	Kinds []events.CheckKind
	// SkipImagesWithoutUploads drops IMAGE_DUPLICATE for offenders with no images
	SkipImagesWithoutUploads bool
}

// DefaultPolicy enables every known kind
func DefaultPolicy() Policy {
	return Policy{Kinds: append([]events.CheckKind(nil), events.AllCheckKinds...), SkipImagesWithoutUploads: true}
}

// For returns the kinds for an offender, keeping configured order
func (p Policy) For(hasImages bool) []events.CheckKind {
	out := make([]events.CheckKind, 0, len(p.Kinds))
	for _, k := range p.Kinds {
		if k == events.CheckImageDuplicate && p.SkipImagesWithoutUploads && !hasImages {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Backlog is the staleness signal for batches and referrals left open
type Backlog struct {
	Tolerance           time.Duration `json:"tolerance"`
	OpenBatches         int           `json:"openBatches"`
	OpenBatchIDs        []int64       `json:"openBatchIds"`
	UnresolvedReferrals int           `json:"unresolvedReferrals"`
	UnresolvedIDs       []int64       `json:"unresolvedReferralIds"`
}
