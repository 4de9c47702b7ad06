package repo

import (
	"context"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
)

const checkCols = `retention_check_id, referral_id, check_type, check_status, created_at,
	dispatched_at, check_date_time, payload`

func scanCheck(row store.Row) (domain.Check, error) {
	var (
		c       domain.Check
		payload []byte
	)
	err := row.Scan(&c.ID, &c.ReferralID, &c.Kind, &c.Status, &c.CreatedAt, &c.DispatchedAt, &c.CheckedAt, &payload)
	if len(payload) > 0 {
		c.Payload = payload
	}
	return c, err
}

// InsertCheck creates the check unless the referral already has one of that kind
func (r *queries) InsertCheck(ctx context.Context, referralID int64, kind events.CheckKind, at time.Time) (domain.Check, error) {
	if _, err := r.q.Exec(ctx, `
		INSERT INTO retention_check (referral_id, check_type, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (referral_id, check_type) DO NOTHING
	`, referralID, string(kind), at); err != nil {
		return domain.Check{}, perr.FromPostgresf(err, "insert %s check for referral %d", kind, referralID)
	}
	c, err := store.One(ctx, r.q, scanCheck,
		`SELECT `+checkCols+` FROM retention_check WHERE referral_id = $1 AND check_type = $2`, referralID, string(kind))
	return c, perr.FromPostgresf(err, "load %s check for referral %d", kind, referralID)
}

// MarkDispatched records when the check request went out
func (r *queries) MarkDispatched(ctx context.Context, checkID int64, at time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE retention_check SET dispatched_at = $2 WHERE retention_check_id = $1`, checkID, at)
	return perr.FromPostgresf(err, "mark check %d dispatched", checkID)
}

// GetCheck loads one check
func (r *queries) GetCheck(ctx context.Context, id int64) (domain.Check, error) {
	c, err := store.One(ctx, r.q, scanCheck, `SELECT `+checkCols+` FROM retention_check WHERE retention_check_id = $1`, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return c, perr.NotFoundf("retention check %d not found", id)
	}
	return c, perr.FromPostgresf(err, "get check %d", id)
}

// ApplyOutcome writes the outcome only while the check is PENDING
func (r *queries) ApplyOutcome(ctx context.Context, id int64, status events.CheckStatus, at time.Time, payload []byte) (domain.Check, bool, error) {
	var arg any
	if len(payload) > 0 {
		arg = string(payload)
	}
	c, err := store.One(ctx, r.q, scanCheck, `
		UPDATE retention_check
		SET check_status    = $2,
		    check_date_time = $3,
		    payload         = COALESCE($4::jsonb, payload)
		WHERE retention_check_id = $1 AND check_status = 'PENDING'
		RETURNING `+checkCols, id, string(status), at, arg)
	if err == nil {
		return c, true, nil
	}
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return c, false, perr.FromPostgresf(err, "apply outcome to check %d", id)
	}
	c, err = r.GetCheck(ctx, id)
	return c, false, err
}

// ChecksFor lists every check of a referral
func (r *queries) ChecksFor(ctx context.Context, referralID int64) ([]domain.Check, error) {
	cs, err := store.Many(ctx, r.q, scanCheck,
		`SELECT `+checkCols+` FROM retention_check WHERE referral_id = $1 ORDER BY retention_check_id`, referralID)
	return cs, perr.FromPostgresf(err, "checks for referral %d", referralID)
}

// LinkImageDuplicates attaches confirmed image duplicates to a check
func (r *queries) LinkImageDuplicates(ctx context.Context, checkID int64, duplicateIDs []int64) error {
	if len(duplicateIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO retention_check_image_duplicate (retention_check_id, image_duplicate_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, checkID, duplicateIDs)
	return perr.FromPostgresf(err, "link image duplicates to check %d", checkID)
}

// LinkDataDuplicates finds or creates each pair and attaches it to the check
func (r *queries) LinkDataDuplicates(ctx context.Context, checkID int64, referenceOffenderNo string, found []events.DataDuplicateFound, at time.Time) error {
	for _, f := range found {
		if f.DuplicateOffenderNo == referenceOffenderNo {
			continue
		}
		id, err := store.Scalar[int64](ctx, r.q, `
			WITH ins AS (
				INSERT INTO data_duplicate (reference_offender_no, duplicate_offender_no, method, confidence, detected_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT DO NOTHING
				RETURNING data_duplicate_id
			)
			SELECT data_duplicate_id FROM ins
			UNION ALL
			SELECT data_duplicate_id FROM data_duplicate
			WHERE LEAST(reference_offender_no, duplicate_offender_no) = LEAST($1::text, $2::text)
			  AND GREATEST(reference_offender_no, duplicate_offender_no) = GREATEST($1::text, $2::text)
			  AND method = $3
			LIMIT 1
		`, referenceOffenderNo, f.DuplicateOffenderNo, f.Method, f.Confidence, at)
		if perr.IsNoRows(err) {
			id, err = store.Scalar[int64](ctx, r.q, `
				SELECT data_duplicate_id FROM data_duplicate
				WHERE LEAST(reference_offender_no, duplicate_offender_no) = LEAST($1::text, $2::text)
				  AND GREATEST(reference_offender_no, duplicate_offender_no) = GREATEST($1::text, $2::text)
				  AND method = $3
			`, referenceOffenderNo, f.DuplicateOffenderNo, f.Method)
		}
		if err != nil {
			return perr.FromPostgresf(err, "find or create data duplicate %s/%s", referenceOffenderNo, f.DuplicateOffenderNo)
		}
		if _, err := r.q.Exec(ctx, `
			INSERT INTO retention_check_data_duplicate (retention_check_id, data_duplicate_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, checkID, id); err != nil {
			return perr.FromPostgresf(err, "link data duplicate %d to check %d", id, checkID)
		}
	}
	return nil
}

// FindDataDuplicate returns the pair's id or NotFound
func (r *queries) FindDataDuplicate(ctx context.Context, a, b, method string) (int64, error) {
	id, err := store.Scalar[int64](ctx, r.q, `
		SELECT data_duplicate_id FROM data_duplicate
		WHERE LEAST(reference_offender_no, duplicate_offender_no) = LEAST($1::text, $2::text)
		  AND GREATEST(reference_offender_no, duplicate_offender_no) = GREATEST($1::text, $2::text)
		  AND method = $3
	`, a, b, method)
	return id, perr.FromPostgresf(err, "find data duplicate %s/%s", a, b)
}
