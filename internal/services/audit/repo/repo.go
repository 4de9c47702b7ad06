// Package repo provides clickhouse access for the decision ledger
package repo

import (
	"context"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store"
	"datacompliance/internal/services/audit/domain"
)

// Table is the ledger table name
const Table = "retention_decisions"

const ddl = `
CREATE TABLE IF NOT EXISTS ` + Table + ` (
    at          DateTime64(3, 'UTC'),
    event       LowCardinality(String),
    batch_id    Int64,
    referral_id Int64,
    offender_no String,
    status      LowCardinality(String),
    reason      String,
    check_ids   Array(Int64)
) ENGINE = MergeTree
ORDER BY (offender_no, referral_id, at)`

// Repo is the persistence surface for the ledger
type Repo interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, entries []domain.Entry) error
	History(ctx context.Context, offenderNo string, limit int) ([]domain.Entry, error)
}

type clickhouse struct{ ch store.Clickhouse }

// NewClickhouse constructs a ledger repo over a clickhouse seam
func NewClickhouse(ch store.Clickhouse) Repo { return &clickhouse{ch: ch} }

// EnsureSchema creates the ledger table when missing
func (r *clickhouse) EnsureSchema(ctx context.Context) error {
	if err := r.ch.Exec(ctx, ddl); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "create ledger table")
	}
	return nil
}

// Append writes entries in one batch, columns in table order
func (r *clickhouse) Append(ctx context.Context, entries []domain.Entry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		ids := e.CheckIDs
		if ids == nil {
			ids = []int64{}
		}
		rows = append(rows, []any{
			e.At.UTC(), string(e.Event), e.BatchID, e.ReferralID, e.OffenderNo, e.Status, e.Reason, ids,
		})
	}
	if err := r.ch.AppendBatch(ctx, Table, rows); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "append %d ledger entries", len(rows))
	}
	return nil
}

// History returns the newest entries for an offender first
func (r *clickhouse) History(ctx context.Context, offenderNo string, limit int) ([]domain.Entry, error) {
	rows, err := r.ch.Query(ctx, `
		SELECT at, event, batch_id, referral_id, offender_no, status, reason, check_ids
		FROM `+Table+`
		WHERE offender_no = ?
		ORDER BY at DESC, referral_id DESC
		LIMIT ?`, offenderNo, limit)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "ledger history for %s", offenderNo)
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "scan ledger entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row store.Row) (domain.Entry, error) {
	var (
		e     domain.Entry
		at    time.Time
		event string
	)
	err := row.Scan(&at, &event, &e.BatchID, &e.ReferralID, &e.OffenderNo, &e.Status, &e.Reason, &e.CheckIDs)
	e.At, e.Event = at.UTC(), domain.Event(event)
	return e, err
}
