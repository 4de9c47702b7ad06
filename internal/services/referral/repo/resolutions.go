package repo

import (
	"context"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
)

const referralCols = `r.referral_id, r.batch_id, r.referral_kind, r.offender_no, r.first_name, r.middle_name,
	r.last_name, r.birth_date, r.agency_location_id, r.pnc, r.cro, r.received_at,
	res.resolution_status, res.resolved_at, res.retention_reason, res.retained_by, res.published_at, res.deleted_at`

type referralRow struct {
	ref        domain.Referral
	kind       string
	offenderNo string
	person     domain.Person
	status     *string
	resolvedAt *time.Time
	reason     *string
	retainedBy []int64
	published  *time.Time
	deleted    *time.Time
}

func scanReferral(row store.Row) (referralRow, error) {
	var v referralRow
	err := row.Scan(&v.ref.ID, &v.ref.BatchID, &v.kind, &v.offenderNo, &v.person.FirstName, &v.person.MiddleName,
		&v.person.LastName, &v.person.BirthDate, &v.person.AgencyLocationID, &v.person.PNC, &v.person.CRO, &v.ref.ReceivedAt,
		&v.status, &v.resolvedAt, &v.reason, &v.retainedBy, &v.published, &v.deleted)
	return v, err
}

func (r *queries) loadReferral(ctx context.Context, id int64, lock bool) (domain.Referral, error) {
	sql := `SELECT ` + referralCols + `
		FROM referral r
		LEFT JOIN referral_resolution res ON res.referral_id = r.referral_id
		WHERE r.referral_id = $1`
	if lock {
		sql += ` FOR UPDATE OF r`
	}
	v, err := store.One(ctx, r.q, scanReferral, sql, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Referral{}, perr.NotFoundf("referral %d not found", id)
	}
	if err != nil {
		return domain.Referral{}, perr.FromPostgresf(err, "load referral %d", id)
	}

	records, err := store.Many(ctx, r.q, func(row store.Row) (domain.Record, error) {
		var rec domain.Record
		err := row.Scan(&rec.OffenderID, &rec.OffenderBookID, &rec.BookingNo)
		return rec, err
	}, `
		SELECT offender_id, COALESCE(offender_book_id, 0), booking_no
		FROM referral_booking
		WHERE referral_id = $1
		ORDER BY referral_booking_id
	`, id)
	if err != nil {
		return domain.Referral{}, perr.FromPostgresf(err, "records for referral %d", id)
	}

	s, err := domain.NewSubject(events.ReferralKind(v.kind), v.offenderNo, v.person, records)
	if err != nil {
		return domain.Referral{}, perr.Wrapf(err, perr.ErrorCodeIntegrity, "stored referral %d", id)
	}
	v.ref.Subject = s
	if v.status != nil {
		res := &domain.Resolution{
			ReferralID:  id,
			Status:      domain.ResolutionStatus(*v.status),
			RetainedBy:  v.retainedBy,
			PublishedAt: v.published,
			DeletedAt:   v.deleted,
		}
		if v.resolvedAt != nil {
			res.ResolvedAt = *v.resolvedAt
		}
		if v.reason != nil {
			res.Reason = *v.reason
		}
		v.ref.Resolution = res
	}
	return v.ref, nil
}

// LockReferral takes the referral row lock then loads it
func (r *queries) LockReferral(ctx context.Context, id int64) (domain.Referral, error) {
	return r.loadReferral(ctx, id, true)
}

// GetReferral loads a referral without locking
func (r *queries) GetReferral(ctx context.Context, id int64) (domain.Referral, error) {
	return r.loadReferral(ctx, id, false)
}

// InsertResolution writes the decision unless one exists
func (r *queries) InsertResolution(ctx context.Context, res domain.Resolution) (bool, error) {
	retainedBy := res.RetainedBy
	if retainedBy == nil {
		retainedBy = []int64{}
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO referral_resolution (referral_id, resolution_status, resolved_at, retention_reason, retained_by, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (referral_id) DO NOTHING
	`, res.ReferralID, string(res.Status), res.ResolvedAt, res.Reason, retainedBy, res.DeletedAt)
	if err != nil {
		return false, perr.FromPostgresf(err, "insert resolution for referral %d", res.ReferralID)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkPublished stamps the first successful grant publish
func (r *queries) MarkPublished(ctx context.Context, referralID int64, at time.Time) error {
	_, err := r.q.Exec(ctx, `
		UPDATE referral_resolution SET published_at = $2
		WHERE referral_id = $1 AND published_at IS NULL
	`, referralID, at)
	return perr.FromPostgresf(err, "mark grant published for referral %d", referralID)
}

// MarkDeleted moves DELETION_GRANTED to DELETED and reports whether it did
func (r *queries) MarkDeleted(ctx context.Context, referralID int64, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE referral_resolution
		SET resolution_status = 'DELETED', deleted_at = $2
		WHERE referral_id = $1 AND resolution_status = 'DELETION_GRANTED'
	`, referralID, at)
	if err != nil {
		return false, perr.FromPostgresf(err, "mark referral %d deleted", referralID)
	}
	return tag.RowsAffected() == 1, nil
}

// UnpublishedGrants lists granted referrals whose event never went out, oldest first
func (r *queries) UnpublishedGrants(ctx context.Context, limit int) ([]int64, error) {
	ids, err := store.Column[int64](ctx, r.q, `
		SELECT referral_id FROM referral_resolution
		WHERE resolution_status = 'DELETION_GRANTED' AND published_at IS NULL
		ORDER BY resolved_at, referral_id
		LIMIT $1
	`, limit)
	return ids, perr.FromPostgres(err, "unpublished grants")
}

// Backlog counts batches and referrals left open since before olderThan
func (r *queries) Backlog(ctx context.Context, olderThan time.Time, limit int) (domain.Backlog, error) {
	var (
		b   domain.Backlog
		err error
	)
	if b.OpenBatches, err = store.Scalar[int](ctx, r.q, `
		SELECT count(*) FROM batch WHERE referral_completion_at IS NULL AND request_at < $1
	`, olderThan); err != nil {
		return b, perr.FromPostgres(err, "count open batches")
	}
	if b.OpenBatchIDs, err = store.Column[int64](ctx, r.q, `
		SELECT batch_id FROM batch WHERE referral_completion_at IS NULL AND request_at < $1
		ORDER BY request_at, batch_id LIMIT $2
	`, olderThan, limit); err != nil {
		return b, perr.FromPostgres(err, "open batches")
	}

	const unresolved = `
		FROM referral r
		LEFT JOIN referral_resolution res ON res.referral_id = r.referral_id
		WHERE res.referral_id IS NULL AND r.received_at < $1`
	if b.UnresolvedReferrals, err = store.Scalar[int](ctx, r.q, `SELECT count(*) `+unresolved, olderThan); err != nil {
		return b, perr.FromPostgres(err, "count unresolved referrals")
	}
	if b.UnresolvedIDs, err = store.Column[int64](ctx, r.q,
		`SELECT r.referral_id `+unresolved+` ORDER BY r.received_at, r.referral_id LIMIT $2`, olderThan, limit); err != nil {
		return b, perr.FromPostgres(err, "unresolved referrals")
	}
	return b, nil
}
