// Package repo provides postgres access for batches
package repo

import (
	"context"
	"time"

	"datacompliance/internal/modkit/repokit"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store"
	"datacompliance/internal/services/scheduler/domain"
)

// Repo is the persistence surface for batches
type Repo interface {
	// LatestScheduled returns the most recent scheduled batch, nil when there is none
	LatestScheduled(ctx context.Context) (*domain.Batch, error)
	Insert(ctx context.Context, b domain.Batch) (int64, error)
	Get(ctx context.Context, id int64) (domain.Batch, error)
	// Complete stamps a batch that has not completed yet and reports whether it did
	Complete(ctx context.Context, id int64, at time.Time, referred, remaining int) (bool, error)
}

type (
	// PG binds the batch repo to a Queryer
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres batch repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const batchCols = `batch_id, batch_type, request_at, window_start, window_end,
	referral_completion_at, referred_count, remaining_in_window, comment`

func scanBatch(r store.Row) (domain.Batch, error) {
	var b domain.Batch
	err := r.Scan(&b.ID, &b.Type, &b.RequestedAt, &b.WindowStart, &b.WindowEnd,
		&b.CompletedAt, &b.ReferredCount, &b.RemainingInWindow, &b.Comment)
	return b, err
}

// LatestScheduled locks and returns the newest scheduled batch
func (r *queries) LatestScheduled(ctx context.Context) (*domain.Batch, error) {
	b, err := store.One(ctx, r.q, scanBatch, `
		SELECT `+batchCols+`
		FROM batch
		WHERE batch_type = 'SCHEDULED'
		ORDER BY request_at DESC, batch_id DESC
		LIMIT 1
		FOR UPDATE
	`)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.FromPostgres(err, "latest scheduled batch")
	}
	return &b, nil
}

// Insert persists a new batch and returns its id
func (r *queries) Insert(ctx context.Context, b domain.Batch) (int64, error) {
	id, err := store.Scalar[int64](ctx, r.q, `
		INSERT INTO batch (batch_type, request_at, window_start, window_end, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING batch_id
	`, string(b.Type), b.RequestedAt, b.WindowStart, b.WindowEnd, b.Comment)
	return id, perr.FromPostgres(err, "insert batch")
}

// Get loads one batch
func (r *queries) Get(ctx context.Context, id int64) (domain.Batch, error) {
	b, err := store.One(ctx, r.q, scanBatch, `SELECT `+batchCols+` FROM batch WHERE batch_id = $1`, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return b, perr.NotFoundf("batch %d not found", id)
	}
	return b, perr.FromPostgresf(err, "get batch %d", id)
}

// Complete sets the completion fields once; later calls leave the first completion in place
func (r *queries) Complete(ctx context.Context, id int64, at time.Time, referred, remaining int) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE batch
		SET referral_completion_at = $2,
		    referred_count         = $3,
		    remaining_in_window    = $4
		WHERE batch_id = $1 AND referral_completion_at IS NULL
	`, id, at, referred, remaining)
	if err != nil {
		return false, perr.FromPostgresf(err, "complete batch %d", id)
	}
	return tag.RowsAffected() == 1, nil
}
