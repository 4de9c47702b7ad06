// Package repo provides postgres access for referrals, checks and resolutions
package repo

import (
	"context"
	"time"

	"datacompliance/internal/modkit/repokit"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
)

// Repo is the persistence surface for the aggregator and the resolution state machine
type Repo interface {
	// InsertReferral stores a referral once per (batch, offender) and reports whether it is new
	InsertReferral(ctx context.Context, batchID int64, s domain.Subject, receivedAt time.Time) (int64, bool, error)
	InsertRecords(ctx context.Context, referralID int64, records []domain.Record) error
	HasImageUploads(ctx context.Context, offenderNo string) (bool, error)

	// InsertCheck creates the PENDING check for a kind or returns the existing one
	InsertCheck(ctx context.Context, referralID int64, kind events.CheckKind, at time.Time) (domain.Check, error)
	MarkDispatched(ctx context.Context, checkID int64, at time.Time) error
	GetCheck(ctx context.Context, id int64) (domain.Check, error)
	// ApplyOutcome moves a PENDING check to status; applied is false when it was already terminal
	ApplyOutcome(ctx context.Context, id int64, status events.CheckStatus, at time.Time, payload []byte) (domain.Check, bool, error)
	ChecksFor(ctx context.Context, referralID int64) ([]domain.Check, error)
	LinkImageDuplicates(ctx context.Context, checkID int64, duplicateIDs []int64) error
	LinkDataDuplicates(ctx context.Context, checkID int64, referenceOffenderNo string, found []events.DataDuplicateFound, at time.Time) error
	// FindDataDuplicate looks a pair up regardless of argument order
	FindDataDuplicate(ctx context.Context, a, b, method string) (int64, error)

	// LockReferral loads a referral holding its row lock until the transaction ends
	LockReferral(ctx context.Context, id int64) (domain.Referral, error)
	GetReferral(ctx context.Context, id int64) (domain.Referral, error)
	InsertResolution(ctx context.Context, r domain.Resolution) (bool, error)
	MarkPublished(ctx context.Context, referralID int64, at time.Time) error
	MarkDeleted(ctx context.Context, referralID int64, at time.Time) (bool, error)
	UnpublishedGrants(ctx context.Context, limit int) ([]int64, error)

	Backlog(ctx context.Context, olderThan time.Time, limit int) (domain.Backlog, error)
}

type (
	// PG binds the referral repo to a Queryer
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres referral repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// InsertReferral inserts or finds the referral for (batch, offender)
func (r *queries) InsertReferral(ctx context.Context, batchID int64, s domain.Subject, receivedAt time.Time) (int64, bool, error) {
	p := s.Details()
	type res struct {
		id      int64
		created bool
	}
	out, err := store.One(ctx, r.q, func(row store.Row) (res, error) {
		var v res
		err := row.Scan(&v.id, &v.created)
		return v, err
	}, `
		WITH ins AS (
			INSERT INTO referral (batch_id, referral_kind, offender_no, first_name, middle_name, last_name,
			                      birth_date, agency_location_id, pnc, cro, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (batch_id, offender_no) DO NOTHING
			RETURNING referral_id
		)
		SELECT referral_id, true FROM ins
		UNION ALL
		SELECT referral_id, false FROM referral WHERE batch_id = $1 AND offender_no = $3
		LIMIT 1
	`, batchID, string(s.Kind()), s.OffenderNo(), p.FirstName, p.MiddleName, p.LastName,
		p.BirthDate, p.AgencyLocationID, p.PNC, p.CRO, receivedAt)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		// a concurrent insert committed after this statement's snapshot; a new
		// statement sees it
		id, err := store.Scalar[int64](ctx, r.q,
			`SELECT referral_id FROM referral WHERE batch_id = $1 AND offender_no = $2`, batchID, s.OffenderNo())
		if err != nil {
			return 0, false, perr.FromPostgresf(err, "find referral %s in batch %d", s.OffenderNo(), batchID)
		}
		return id, false, nil
	}
	if err != nil {
		return 0, false, perr.FromPostgresf(err, "insert referral %s", s.OffenderNo())
	}
	return out.id, out.created, nil
}

// InsertRecords stores the offender ids and bookings a referral covers
func (r *queries) InsertRecords(ctx context.Context, referralID int64, records []domain.Record) error {
	for _, rec := range records {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO referral_booking (referral_id, offender_id, offender_book_id, booking_no)
			VALUES ($1, $2, NULLIF($3::bigint, 0), $4)
			ON CONFLICT DO NOTHING
		`, referralID, rec.OffenderID, rec.OffenderBookID, rec.BookingNo); err != nil {
			return perr.FromPostgresf(err, "insert records for referral %d", referralID)
		}
	}
	return nil
}

// HasImageUploads reports whether any face image was indexed for the offender
func (r *queries) HasImageUploads(ctx context.Context, offenderNo string) (bool, error) {
	ok, err := store.Scalar[bool](ctx, r.q,
		`SELECT EXISTS (SELECT 1 FROM offender_image_upload WHERE offender_no = $1)`, offenderNo)
	return ok, perr.FromPostgresf(err, "image uploads for %s", offenderNo)
}
