// Package domain holds the local retention evaluators' model
package domain

import (
	"time"

	"datacompliance/internal/core/fuzzy"
)

// ManualRetention is an operator's instruction to keep an offender's records
type ManualRetention struct {
	OffenderNo string    `json:"offenderNo"`
	Reasons    []string  `json:"reasons"`
	Comment    string    `json:"comment,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Version    int       `json:"version"`
}

// ManualRetentionInput is the body of a manual retention upsert
type ManualRetentionInput struct {
	Reasons []string `json:"reasons" validate:"required,min=1,dive,required,max=60"`
	Comment string   `json:"comment" validate:"max=1000"`
	UserID  string   `json:"userId" validate:"max=100"`
}

// UALOffender is one row of the unlawfully at large reference list
type UALOffender struct {
	ID         int64  `json:"id"`
	OffenderNo string `json:"offenderNo,omitempty"`
	BookingNo  string `json:"bookingNo,omitempty"`
	PNC        string `json:"pnc,omitempty"`
	CRO        string `json:"cro,omitempty"`
	FirstNames string `json:"firstNames,omitempty"`
	LastName   string `json:"lastName,omitempty"`
}

// Name returns the reference names as compared by the fuzzy gate
func (u UALOffender) Name() fuzzy.Name {
	return fuzzy.Name{FirstNames: u.FirstNames, LastName: u.LastName}
}

// Identifier is a reference list column an exact lookup may use
type Identifier string

// Lookup order; the first identifier with any candidate decides the check
const (
	ByOffenderNo Identifier = "offender_no"
	ByBookingNo  Identifier = "booking_no"
	ByPNC        Identifier = "pnc"
	ByCRO        Identifier = "cro"
)

// UALMatch is a reference entry that passed the name gate
type UALMatch struct {
	Offender  UALOffender  `json:"offender"`
	MatchedOn Identifier   `json:"matchedOn"`
	Scores    fuzzy.Scores `json:"scores"`
}
