//go:build integration_pg

package repo_test

import (
	"context"
	"testing"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store"
	"datacompliance/internal/platform/store/pgtest"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
	"datacompliance/internal/services/referral/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBatch(t *testing.T, s *store.Store) int64 {
	t.Helper()
	id, err := store.Scalar[int64](context.Background(), s.PG,
		`INSERT INTO batch (batch_type, request_at) VALUES ('AD_HOC', now()) RETURNING batch_id`)
	require.NoError(t, err)
	return id
}

func standard(t *testing.T, offenderNo string) domain.Subject {
	t.Helper()
	s, err := domain.NewSubject(events.ReferralStandard, offenderNo, domain.Person{FirstName: "JOHN", LastName: "SMITH"},
		[]domain.Record{{OffenderID: 1, OffenderBookID: 10, BookingNo: "B10"}, {OffenderID: 2}})
	require.NoError(t, err)
	return s
}

func TestReferralLifecycle(t *testing.T) {
	s := pgtest.Open(t)
	ctx := context.Background()
	r := repo.NewPG().Bind(s.PG)
	batch := seedBatch(t, s)
	at := time.Now().UTC().Truncate(time.Microsecond)

	id, created, err := r.InsertReferral(ctx, batch, standard(t, "A1234BC"), at)
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err := r.InsertReferral(ctx, batch, standard(t, "A1234BC"), at)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	require.NoError(t, r.InsertRecords(ctx, id, standard(t, "A1234BC").Records()))
	require.NoError(t, r.InsertRecords(ctx, id, standard(t, "A1234BC").Records()))

	ref, err := r.GetReferral(ctx, id)
	require.NoError(t, err)
	assert.True(t, ref.Pending())
	assert.Equal(t, []int64{1, 2}, ref.OffenderIDs())
	assert.Equal(t, []int64{10}, ref.OffenderBookIDs())

	c1, err := r.InsertCheck(ctx, id, events.CheckManualRetention, at)
	require.NoError(t, err)
	dup, err := r.InsertCheck(ctx, id, events.CheckManualRetention, at)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, dup.ID)
	assert.Equal(t, events.CheckPending, c1.Status)

	c, applied, err := r.ApplyOutcome(ctx, c1.ID, events.CheckRequired, at, []byte(`{"reasons":["CHILD"]}`))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, events.CheckRequired, c.Status)
	assert.JSONEq(t, `{"reasons":["CHILD"]}`, string(c.Payload))

	c, applied, err = r.ApplyOutcome(ctx, c1.ID, events.CheckNotRequired, at, nil)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, events.CheckRequired, c.Status)

	_, _, err = r.ApplyOutcome(ctx, 999999, events.CheckRequired, at, nil)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	ok, err := r.InsertResolution(ctx, domain.Resolution{ReferralID: id, Status: domain.DeletionGranted, ResolvedAt: at})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.InsertResolution(ctx, domain.Resolution{ReferralID: id, Status: domain.Retained, ResolvedAt: at})
	require.NoError(t, err)
	assert.False(t, ok, "resolution is written once")

	ids, err := r.UnpublishedGrants(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids)
	require.NoError(t, r.MarkPublished(ctx, id, at))
	ids, err = r.UnpublishedGrants(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	done, err := r.MarkDeleted(ctx, id, at)
	require.NoError(t, err)
	assert.True(t, done)
	done, err = r.MarkDeleted(ctx, id, at)
	require.NoError(t, err)
	assert.False(t, done)

	ref, err = r.GetReferral(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Deleted, ref.Resolution.Status)
	assert.NotNil(t, ref.Resolution.PublishedAt)
}

func TestDataDuplicateLookupIsSymmetric(t *testing.T) {
	s := pgtest.Open(t)
	ctx := context.Background()
	r := repo.NewPG().Bind(s.PG)
	batch := seedBatch(t, s)
	at := time.Now().UTC()

	id, _, err := r.InsertReferral(ctx, batch, standard(t, "A1234BC"), at)
	require.NoError(t, err)
	c, err := r.InsertCheck(ctx, id, events.CheckDataDuplicateID, at)
	require.NoError(t, err)

	found := []events.DataDuplicateFound{{DuplicateOffenderNo: "B2345CD", Method: "PNC", Confidence: 100}}
	require.NoError(t, r.LinkDataDuplicates(ctx, c.ID, "A1234BC", found, at))
	require.NoError(t, r.LinkDataDuplicates(ctx, c.ID, "A1234BC", found, at))

	ab, err := r.FindDataDuplicate(ctx, "A1234BC", "B2345CD", "PNC")
	require.NoError(t, err)
	ba, err := r.FindDataDuplicate(ctx, "B2345CD", "A1234BC", "PNC")
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	// the reverse pair resolves to the same row
	id2, _, err := r.InsertReferral(ctx, batch, standard(t, "B2345CD"), at)
	require.NoError(t, err)
	c2, err := r.InsertCheck(ctx, id2, events.CheckDataDuplicateID, at)
	require.NoError(t, err)
	require.NoError(t, r.LinkDataDuplicates(ctx, c2.ID, "B2345CD",
		[]events.DataDuplicateFound{{DuplicateOffenderNo: "A1234BC", Method: "PNC", Confidence: 90}}, at))

	n, err := store.Scalar[int64](ctx, s.PG, `SELECT count(*) FROM data_duplicate`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBacklogCountsOpenWork(t *testing.T) {
	s := pgtest.Open(t)
	ctx := context.Background()
	r := repo.NewPG().Bind(s.PG)
	batch := seedBatch(t, s)
	old := time.Now().UTC().Add(-72 * time.Hour)

	_, _, err := r.InsertReferral(ctx, batch, standard(t, "A1234BC"), old)
	require.NoError(t, err)

	b, err := r.Backlog(ctx, time.Now().UTC().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, b.UnresolvedReferrals)
	assert.Zero(t, b.OpenBatches, "batch was requested just now")

	b, err = r.Backlog(ctx, time.Now().UTC().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, b.OpenBatches)
	assert.Equal(t, []int64{batch}, b.OpenBatchIDs)
}
