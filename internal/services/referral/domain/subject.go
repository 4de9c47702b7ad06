package domain

import (
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/services/events"
)

// Person is the identifying detail the source sent with a referral
type Person struct {
	FirstName        string
	MiddleName       string
	LastName         string
	BirthDate        *time.Time
	AgencyLocationID string
	PNC              string
	CRO              string
}

// Record is one offender id, with its booking when the offender has one
type Record struct {
	OffenderID     int64
	OffenderBookID int64
	BookingNo      string
}

// Subject is the closed set of referral variants. Only this package can
// implement it
type Subject interface {
	OffenderNo() string
	Kind() events.ReferralKind
	Details() Person
	Records() []Record
	subject()
}

type base struct {
	offenderNo string
	person     Person
	records    []Record
}

func (b base) OffenderNo() string { return b.offenderNo }
func (b base) Details() Person    { return b.person }
func (b base) Records() []Record  { return b.records }
func (base) subject()             {}

// Standard is an offender whose records must pass every enabled check
type Standard struct{ base }

// Kind returns STANDARD
func (Standard) Kind() events.ReferralKind { return events.ReferralStandard }

// Deceased is an offender already deleted upstream because they died
type Deceased struct{ base }

// Kind returns DECEASED
func (Deceased) Kind() events.ReferralKind { return events.ReferralDeceased }

// NoBooking is an offender with no bookings, already deleted upstream
type NoBooking struct{ base }

// Kind returns NO_BOOKING
func (NoBooking) Kind() events.ReferralKind { return events.ReferralNoBooking }

// NewSubject builds the variant for kind. An empty kind means STANDARD
func NewSubject(kind events.ReferralKind, offenderNo string, p Person, records []Record) (Subject, error) {
	if offenderNo == "" {
		return nil, perr.WithField(perr.Validationf("offender number is required"), "offenderNo")
	}
	b := base{offenderNo: offenderNo, person: p, records: records}
	switch kind {
	case "", events.ReferralStandard:
		if len(records) == 0 {
			return nil, perr.WithField(perr.Validationf("referral for %s carries no offender records", offenderNo), "offenders")
		}
		return Standard{b}, nil
	case events.ReferralDeceased:
		return Deceased{b}, nil
	case events.ReferralNoBooking:
		for _, r := range records {
			if r.OffenderBookID != 0 {
				return nil, perr.WithField(perr.Validationf("no-booking referral for %s lists booking %d", offenderNo, r.OffenderBookID), "offenders")
			}
		}
		return NoBooking{b}, nil
	}
	return nil, perr.WithField(perr.Validationf("unknown referral kind %q", kind), "kind")
}

// SubjectFrom maps a pending deletion message onto its variant
func SubjectFrom(m events.PendingDeletion) (Subject, error) {
	records := make([]Record, 0, len(m.Records))
	for _, r := range m.Records {
		records = append(records, Record{OffenderID: r.OffenderID, OffenderBookID: r.OffenderBookID, BookingNo: r.BookingNo})
	}
	return NewSubject(m.Kind, m.OffenderNo, Person{
		FirstName:        m.FirstName,
		MiddleName:       m.MiddleName,
		LastName:         m.LastName,
		BirthDate:        m.BirthDate,
		AgencyLocationID: m.AgencyLocationID,
		PNC:              m.PNC,
		CRO:              m.CRO,
	}, records)
}

// ClosedOnIntake reports whether the variant arrives already deleted
func ClosedOnIntake(s Subject) bool {
	switch s.(type) {
	case Deceased, NoBooking:
		return true
	}
	return false
}
