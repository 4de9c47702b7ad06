//go:build integration_pg

package repo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store/pgtest"
	"datacompliance/internal/services/duplicates/domain"
	"datacompliance/internal/services/duplicates/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadsAndDuplicatePairs(t *testing.T) {
	s := pgtest.Open(t)
	ctx := context.Background()
	r := repo.NewPG().Bind(s.PG)
	at := time.Now().UTC().Truncate(time.Microsecond)

	a, created, err := r.InsertUpload(ctx, domain.Upload{OffenderNo: "A1234BC", OffenderImageID: 1, FaceID: "fa", UploadedAt: at})
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err := r.InsertUpload(ctx, domain.Upload{OffenderNo: "A1234BC", OffenderImageID: 1, FaceID: "fa2", UploadedAt: at})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a, again, "existing upload wins")

	b, _, err := r.InsertUpload(ctx, domain.Upload{OffenderNo: "B2345CD", OffenderImageID: 1, FaceID: "fb", UploadedAt: at})
	require.NoError(t, err)

	byFace, err := r.UploadByFace(ctx, "fb")
	require.NoError(t, err)
	assert.Equal(t, b, byFace)
	_, err = r.UploadByFace(ctx, "ghost")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	d, created, err := r.FindOrCreate(ctx, a.ID, b.ID, 97.5, at)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "A1234BC", d.OffenderA)
	assert.Equal(t, "B2345CD", d.OffenderB)

	rev, created, err := r.FindOrCreate(ctx, b.ID, a.ID, 91, at)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, d, rev)

	ab, err := r.FindDuplicate(ctx, a.ID, b.ID)
	require.NoError(t, err)
	ba, err := r.FindDuplicate(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	_, _, err = r.FindOrCreate(ctx, a.ID, a.ID, 100, at)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
}

func TestConcurrentFindOrCreateConverges(t *testing.T) {
	s := pgtest.Open(t)
	ctx := context.Background()
	r := repo.NewPG().Bind(s.PG)
	at := time.Now().UTC()

	a, _, err := r.InsertUpload(ctx, domain.Upload{OffenderNo: "A1234BC", OffenderImageID: 1, FaceID: "fa", UploadedAt: at})
	require.NoError(t, err)
	b, _, err := r.InsertUpload(ctx, domain.Upload{OffenderNo: "B2345CD", OffenderImageID: 1, FaceID: "fb", UploadedAt: at})
	require.NoError(t, err)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[int64]int{}
	)
	for i := range 8 {
		wg.Add(1)
		go func(flip bool) {
			defer wg.Done()
			x, y := a.ID, b.ID
			if flip {
				x, y = y, x
			}
			d, _, err := r.FindOrCreate(ctx, x, y, 95, at)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[d.ID]++
			mu.Unlock()
		}(i%2 == 0)
	}
	wg.Wait()
	assert.Len(t, ids, 1, "every writer sees the same pair")
}
