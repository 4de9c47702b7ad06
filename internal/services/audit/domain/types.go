// Package domain holds the decision audit ledger types and ports
package domain

import (
	"context"
	"time"
)

// Event names what happened to a referral
type Event string

// Ledger events
const (
	EventResolved       Event = "RESOLVED"
	EventGrantPublished Event = "GRANT_PUBLISHED"
	EventDeleted        Event = "DELETED"
	EventClosedOnIntake Event = "CLOSED_ON_INTAKE"
)

// Entry is one append-only ledger row
type Entry struct {
	At         time.Time `json:"at"`
	Event      Event     `json:"event"`
	BatchID    int64     `json:"batchId"`
	ReferralID int64     `json:"referralId"`
	OffenderNo string    `json:"offenderNo"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	CheckIDs   []int64   `json:"checkIds,omitempty"`
}

// LedgerPort appends and reads decision history
type LedgerPort interface {
	Append(ctx context.Context, entries ...Entry) error
	History(ctx context.Context, offenderNo string, limit int) ([]Entry, error)
}

// SetupPort prepares the ledger storage
type SetupPort interface {
	EnsureSchema(ctx context.Context) error
}
