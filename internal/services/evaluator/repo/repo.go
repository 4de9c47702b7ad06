// Package repo provides postgres access for manual retentions and the UAL reference list
package repo

import (
	"context"
	"time"

	"datacompliance/internal/modkit/repokit"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store"
	"datacompliance/internal/services/evaluator/domain"
)

// Repo is the persistence surface for the local evaluators
type Repo interface {
	GetManualRetention(ctx context.Context, offenderNo string) (domain.ManualRetention, error)
	// UpsertManualRetention writes the instruction and bumps its version
	UpsertManualRetention(ctx context.Context, m domain.ManualRetention) (domain.ManualRetention, error)
	DeleteManualRetention(ctx context.Context, offenderNo string) (bool, error)

	// FindUAL returns reference entries whose identifier column equals value
	FindUAL(ctx context.Context, by domain.Identifier, value string) ([]domain.UALOffender, error)
}

type (
	// PG binds the evaluator repo to a Queryer
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres evaluator repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const manualCols = `offender_no, reasons, comment, user_id, modified_at, version`

func scanManual(row store.Row) (domain.ManualRetention, error) {
	var m domain.ManualRetention
	err := row.Scan(&m.OffenderNo, &m.Reasons, &m.Comment, &m.UserID, &m.ModifiedAt, &m.Version)
	return m, err
}

// GetManualRetention loads the instruction for an offender
func (r *queries) GetManualRetention(ctx context.Context, offenderNo string) (domain.ManualRetention, error) {
	m, err := store.One(ctx, r.q, scanManual,
		`SELECT `+manualCols+` FROM manual_retention WHERE offender_no = $1`, offenderNo)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return m, perr.NotFoundf("no manual retention for %s", offenderNo)
	}
	return m, perr.FromPostgresf(err, "manual retention for %s", offenderNo)
}

// UpsertManualRetention inserts or replaces the instruction
func (r *queries) UpsertManualRetention(ctx context.Context, m domain.ManualRetention) (domain.ManualRetention, error) {
	if m.ModifiedAt.IsZero() {
		m.ModifiedAt = time.Now().UTC()
	}
	out, err := store.One(ctx, r.q, scanManual, `
		INSERT INTO manual_retention (offender_no, reasons, comment, user_id, modified_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (offender_no) DO UPDATE
		SET reasons = EXCLUDED.reasons,
		    comment = EXCLUDED.comment,
		    user_id = EXCLUDED.user_id,
		    modified_at = EXCLUDED.modified_at,
		    version = manual_retention.version + 1
		RETURNING `+manualCols, m.OffenderNo, m.Reasons, m.Comment, m.UserID, m.ModifiedAt)
	return out, perr.FromPostgresf(err, "upsert manual retention for %s", m.OffenderNo)
}

// DeleteManualRetention removes the instruction and reports whether one existed
func (r *queries) DeleteManualRetention(ctx context.Context, offenderNo string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM manual_retention WHERE offender_no = $1`, offenderNo)
	if err != nil {
		return false, perr.FromPostgresf(err, "delete manual retention for %s", offenderNo)
	}
	return tag.RowsAffected() > 0, nil
}

// identifier columns are fixed so the column name is never caller controlled
var ualColumn = map[domain.Identifier]string{
	domain.ByOffenderNo: "offender_no",
	domain.ByBookingNo:  "booking_no",
	domain.ByPNC:        "pnc",
	domain.ByCRO:        "cro",
}

// FindUAL looks reference entries up by one identifier
func (r *queries) FindUAL(ctx context.Context, by domain.Identifier, value string) ([]domain.UALOffender, error) {
	col, ok := ualColumn[by]
	if !ok {
		return nil, perr.InvalidArgf("unknown UAL identifier %q", by)
	}
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.UALOffender, error) {
		var u domain.UALOffender
		err := row.Scan(&u.ID, &u.OffenderNo, &u.BookingNo, &u.PNC, &u.CRO, &u.FirstNames, &u.LastName)
		return u, err
	}, `
		SELECT ual_offender_id, offender_no, booking_no, pnc, cro, first_names, last_name
		FROM ual_offender
		WHERE `+col+` = $1 AND `+col+` <> ''
		ORDER BY ual_offender_id
	`, value)
	return out, perr.FromPostgresf(err, "UAL lookup by %s", by)
}
