// Package events defines the messages exchanged over the bus and the check
// vocabulary shared by the scheduler, the aggregator and the evaluators
package events

import (
	"encoding/json"
	"time"

	"datacompliance/internal/platform/bus"
)

// Event type names carried in the event-type header
const (
	TypeDeletionWindowRequested  = "DeletionWindowRequested"
	TypeAdHocReferralRequested   = "AdHocReferralRequested"
	TypePendingDeletion          = "PendingDeletion"
	TypePendingDeletionsComplete = "PendingDeletionsComplete"
	TypeExternalDeletion         = "ExternalDeletion"
	TypeCheckRequested           = "CheckRequested"
	TypeCheckResult              = "CheckResult"
	TypeDeletionGranted          = "DeletionGranted"
	TypeDeletionComplete         = "DeletionComplete"
)

// CheckKind names an independent retention criterion
type CheckKind string

// Known check kinds
const (
	CheckManualRetention     CheckKind = "MANUAL_RETENTION"
	CheckDataDuplicateID     CheckKind = "DATA_DUPLICATE_ID"
	CheckDataDuplicateDB     CheckKind = "DATA_DUPLICATE_DB"
	CheckImageDuplicate      CheckKind = "IMAGE_DUPLICATE"
	CheckFreeTextMoratorium  CheckKind = "FREE_TEXT_MORATORIUM"
	CheckOffenderRestriction CheckKind = "OFFENDER_RESTRICTION"
	CheckPathfinderReferral  CheckKind = "PATHFINDER_REFERRAL"
	CheckMappaReferral       CheckKind = "MAPPA_REFERRAL"
	CheckUnlawfullyAtLarge   CheckKind = "UNLAWFULLY_AT_LARGE"
)

// AllCheckKinds lists every kind in dispatch order
var AllCheckKinds = []CheckKind{
	CheckManualRetention,
	CheckDataDuplicateID,
	CheckDataDuplicateDB,
	CheckImageDuplicate,
	CheckFreeTextMoratorium,
	CheckOffenderRestriction,
	CheckPathfinderReferral,
	CheckMappaReferral,
	CheckUnlawfullyAtLarge,
}

// Valid reports whether k is a known kind
func (k CheckKind) Valid() bool {
	for _, v := range AllCheckKinds {
		if v == k {
			return true
		}
	}
	return false
}

// CheckStatus is the state of one retention check
type CheckStatus string

// Check states. PENDING only ever moves to one of the two outcomes
const (
	CheckPending     CheckStatus = "PENDING"
	CheckNotRequired CheckStatus = "RETENTION_NOT_REQUIRED"
	CheckRequired    CheckStatus = "RETENTION_REQUIRED"
)

// Terminal reports whether s is an outcome
func (s CheckStatus) Terminal() bool {
	return s == CheckNotRequired || s == CheckRequired
}

// ReferralKind discriminates the referral variants on the wire
type ReferralKind string

// Referral kinds
const (
	ReferralStandard  ReferralKind = "STANDARD"
	ReferralDeceased  ReferralKind = "DECEASED"
	ReferralNoBooking ReferralKind = "NO_BOOKING"
)

// DeletionWindowRequested asks the referral source for records due in a window
type DeletionWindowRequested struct {
	BatchID     int64     `json:"batchId"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	Limit       int       `json:"limit,omitempty"`
}

// AdHocReferralRequested asks the referral source for one offender
type AdHocReferralRequested struct {
	BatchID    int64  `json:"batchId"`
	OffenderNo string `json:"offenderNo"`
	Reason     string `json:"reason,omitempty"`
}

// OffenderRecord is one booking (or bookless offender id) held for an offender
type OffenderRecord struct {
	OffenderID     int64  `json:"offenderId" validate:"required,gt=0"`
	OffenderBookID int64  `json:"offenderBookId,omitempty" validate:"gte=0"`
	BookingNo      string `json:"bookingNo,omitempty"`
}

// PendingDeletion is one record referred by the source for a batch
type PendingDeletion struct {
	BatchID          int64            `json:"batchId" validate:"required,gt=0"`
	Kind             ReferralKind     `json:"kind,omitempty" validate:"omitempty,oneof=STANDARD DECEASED NO_BOOKING"`
	OffenderNo       string           `json:"offenderNo" validate:"required,offender_no"`
	FirstName        string           `json:"firstName,omitempty" validate:"max=35"`
	MiddleName       string           `json:"middleName,omitempty" validate:"max=35"`
	LastName         string           `json:"lastName,omitempty" validate:"max=35"`
	BirthDate        *time.Time       `json:"birthDate,omitempty"`
	AgencyLocationID string           `json:"agencyLocationId,omitempty"`
	PNC              string           `json:"pnc,omitempty"`
	CRO              string           `json:"cro,omitempty"`
	Records          []OffenderRecord `json:"offenders,omitempty" validate:"dive"`
}

// PendingDeletionsComplete closes a batch once the source has referred everything
type PendingDeletionsComplete struct {
	BatchID        int64 `json:"batchId" validate:"required,gt=0"`
	NumberReferred int   `json:"numberReferred" validate:"gte=0"`
	TotalInWindow  int   `json:"totalInWindow" validate:"gte=0"`
}

// ExternalDeletion confirms the downstream system deleted a granted referral
type ExternalDeletion struct {
	ReferralID int64  `json:"referralId" validate:"required,gt=0"`
	OffenderNo string `json:"offenderNo,omitempty"`
}

// Subject is what an evaluator needs to know about the offender under check
type Subject struct {
	OffenderNo string   `json:"offenderNo"`
	FirstName  string   `json:"firstName,omitempty"`
	MiddleName string   `json:"middleName,omitempty"`
	LastName   string   `json:"lastName,omitempty"`
	PNC        string   `json:"pnc,omitempty"`
	CRO        string   `json:"cro,omitempty"`
	BookingNos []string `json:"bookingNos,omitempty"`
}

// CheckRequested asks an evaluator to run one check
type CheckRequested struct {
	CheckID    int64     `json:"checkId" validate:"required,gt=0"`
	ReferralID int64     `json:"referralId" validate:"required,gt=0"`
	Kind       CheckKind `json:"kind" validate:"required"`
	Subject    Subject   `json:"subject"`
}

// DataDuplicateFound is one offender an evaluator believes duplicates the subject
type DataDuplicateFound struct {
	DuplicateOffenderNo string  `json:"duplicateOffenderNo" validate:"required"`
	Method              string  `json:"method" validate:"required"`
	Confidence          float64 `json:"confidence" validate:"gte=0,lte=100"`
}

// CheckResult reports the outcome of one check
type CheckResult struct {
	CheckID           int64                `json:"checkId" validate:"required,gt=0"`
	Kind              CheckKind            `json:"kind,omitempty"`
	Status            CheckStatus          `json:"status" validate:"required,oneof=RETENTION_REQUIRED RETENTION_NOT_REQUIRED"`
	DataDuplicates    []DataDuplicateFound `json:"dataDuplicates,omitempty" validate:"dive"`
	ImageDuplicateIDs []int64              `json:"imageDuplicateIds,omitempty"`
	Payload           json.RawMessage      `json:"payload,omitempty"`
}

// DeletionGranted tells the downstream system it may delete these records
type DeletionGranted struct {
	ReferralID      int64   `json:"referralId"`
	BatchID         int64   `json:"batchId"`
	OffenderNo      string  `json:"offenderNo"`
	OffenderIDs     []int64 `json:"offenderIds"`
	OffenderBookIDs []int64 `json:"offenderBookIds"`
}

// DeletionComplete announces that a granted referral is now deleted
type DeletionComplete struct {
	ReferralID int64     `json:"referralId"`
	OffenderNo string    `json:"offenderNo"`
	DeletedAt  time.Time `json:"deletedAt"`
}

// Headers returns the standard headers for an event type, plus the check kind when set
func Headers(eventType string, kind CheckKind) map[string]string {
	h := map[string]string{bus.HeaderEventType: eventType}
	if kind != "" {
		h[bus.HeaderCheckKind] = string(kind)
	}
	return h
}
