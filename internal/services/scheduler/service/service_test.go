package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"datacompliance/internal/core/window"
	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/bus/bustest"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/lock"
	"datacompliance/internal/platform/store/storetest"
	kit "datacompliance/internal/platform/testkit"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/scheduler/domain"
	"datacompliance/internal/services/scheduler/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day  = 24 * time.Hour
	jan1 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	now  = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

type fakeRepo struct {
	mu      sync.Mutex
	batches []domain.Batch
}

func (f *fakeRepo) LatestScheduled(context.Context) (*domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.batches) - 1; i >= 0; i-- {
		if f.batches[i].Type == domain.Scheduled {
			b := f.batches[i]
			return &b, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) Insert(_ context.Context, b domain.Batch) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = int64(len(f.batches) + 1)
	f.batches = append(f.batches, b)
	return b.ID, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id < 1 || int(id) > len(f.batches) {
		return domain.Batch{}, perr.NotFoundf("batch %d not found", id)
	}
	return f.batches[id-1], nil
}

func (f *fakeRepo) Complete(_ context.Context, id int64, at time.Time, referred, remaining int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id < 1 || int(id) > len(f.batches) {
		return false, nil
	}
	b := &f.batches[id-1]
	if b.CompletedAt != nil {
		return false, nil
	}
	b.CompletedAt, b.ReferredCount, b.RemainingInWindow = &at, &referred, &remaining
	return true, nil
}

type harness struct {
	svc  *Svc
	repo *fakeRepo
	tx   *storetest.Tx
	pub  *bustest.Recorder
}

func newHarness(t *testing.T, lk domain.Locker) harness {
	t.Helper()
	return newHarnessAt(t, lk, func() time.Time { return now })
}

func newHarnessAt(t *testing.T, lk domain.Locker, clock func() time.Time) harness {
	t.Helper()
	h := harness{repo: &fakeRepo{}, tx: &storetest.Tx{}, pub: &bustest.Recorder{}}
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return h.repo })
	h.svc = New(h.tx, binder, h.pub, lk, Config{
		Window:  window.Config{InitialStart: jan1, Length: day},
		Limit:   500,
		Topics:  bus.Topics{WindowRequests: "deletion-window-requests", AdHocRequests: "adhoc-referral-requests"},
		Now:     clock,
		Cron:    "0 2 * * *",
		LockKey: "scheduler",
		LockTTL: time.Minute,
	})
	return h
}

func TestScheduleNext_FirstWindow(t *testing.T) {
	h := newHarness(t, nil)

	b, err := h.svc.ScheduleNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ID)
	assert.Equal(t, jan1, *b.WindowStart)
	assert.Equal(t, jan1.Add(day), *b.WindowEnd)

	sent := h.pub.On("deletion-window-requests")
	require.Len(t, sent, 1)
	assert.Equal(t, events.TypeDeletionWindowRequested, sent[0].Header(bus.HeaderEventType))
	msg, err := bustest.DecodeAs[events.DeletionWindowRequested](sent[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), msg.BatchID)
	assert.Equal(t, 500, msg.Limit)
}

func TestScheduleNext_PreviousIncompleteAborts(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.ScheduleNext(context.Background())
	require.NoError(t, err)
	h.pub.Reset()

	_, err = h.svc.ScheduleNext(context.Background())
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodePrecondition))
	assert.Len(t, h.repo.batches, 1, "nothing persisted")
	assert.Empty(t, h.pub.Sent, "nothing published")
}

func TestScheduleNext_WindowNotYetClosedAborts(t *testing.T) {
	for name, at := range map[string]time.Time{
		"end in the future":   jan1.Add(12 * time.Hour),
		"start in the future": jan1.Add(-time.Hour),
		"end equals now":      jan1.Add(day),
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarnessAt(t, nil, func() time.Time { return at })

			_, err := h.svc.ScheduleNext(context.Background())
			require.Error(t, err)
			assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation), err.Error())
			assert.Empty(t, h.repo.batches, "nothing persisted")
			assert.Empty(t, h.pub.Sent, "nothing published")
			commits, rollbacks := h.tx.Counts()
			assert.Equal(t, 0, commits)
			assert.Equal(t, 1, rollbacks)
		})
	}
}

func TestScheduleNext_NextWindowStillOpenAborts(t *testing.T) {
	clock := kit.NewClock(jan1.Add(36 * time.Hour))
	h := newHarnessAt(t, nil, clock.Now)
	ctx := context.Background()

	_, err := h.svc.ScheduleNext(ctx)
	require.NoError(t, err)
	_, err = h.svc.CompleteBatch(ctx, 1, 10, 10)
	require.NoError(t, err)
	h.pub.Reset()

	// [jan2, jan3) has not ended yet
	_, err = h.svc.ScheduleNext(ctx)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
	assert.Len(t, h.repo.batches, 1)
	assert.Empty(t, h.pub.Sent)

	clock.Advance(day)
	b, err := h.svc.ScheduleNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, jan1.Add(day), *b.WindowStart)
	assert.Len(t, h.pub.On("deletion-window-requests"), 1)
}

func TestScheduleNext_AdvancesAfterCompletion(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.svc.ScheduleNext(ctx)
	require.NoError(t, err)
	_, err = h.svc.CompleteBatch(ctx, 1, 10, 10)
	require.NoError(t, err)

	b, err := h.svc.ScheduleNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, jan1.Add(day), *b.WindowStart)
	assert.Equal(t, jan1.Add(2*day), *b.WindowEnd)
}

func TestScheduleNext_ReusesWindowWhenRecordsRemain(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.svc.ScheduleNext(ctx)
	require.NoError(t, err)
	done, err := h.svc.CompleteBatch(ctx, 1, 500, 740)
	require.NoError(t, err)
	assert.Equal(t, 240, *done.RemainingInWindow)

	b, err := h.svc.ScheduleNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, jan1, *b.WindowStart)
}

func TestScheduleNext_PublishFailureRollsBack(t *testing.T) {
	h := newHarness(t, nil)
	h.pub.Err = perr.Newf(perr.ErrorCodePublish, "broker down")

	_, err := h.svc.ScheduleNext(context.Background())
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodePublish))
	commits, rollbacks := h.tx.Counts()
	assert.Zero(t, commits)
	assert.Equal(t, 1, rollbacks)
}

func TestScheduleAdHoc(t *testing.T) {
	h := newHarness(t, nil)

	b, err := h.svc.ScheduleAdHoc(context.Background(), "A1234BC", "subject access request")
	require.NoError(t, err)
	assert.Equal(t, domain.AdHoc, b.Type)
	assert.Nil(t, b.WindowStart)

	sent := h.pub.On("adhoc-referral-requests")
	require.Len(t, sent, 1)
	assert.Equal(t, "A1234BC", sent[0].Key)

	// ad hoc batches never gate the window cadence
	w, err := h.svc.ScheduleNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jan1, *w.WindowStart)
}

func TestCompleteBatch(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.svc.CompleteBatch(ctx, 42, 1, 1)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	_, err = h.svc.ScheduleNext(ctx)
	require.NoError(t, err)

	first, err := h.svc.CompleteBatch(ctx, 1, 12, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, *first.RemainingInWindow, "remaining is clamped at zero")

	again, err := h.svc.CompleteBatch(ctx, 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 12, *again.ReferredCount, "redelivery keeps the first completion")

	_, err = h.svc.CompleteBatch(ctx, 1, -1, 0)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
}

func TestHandleComplete(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.svc.ScheduleNext(ctx)
	require.NoError(t, err)

	err = h.svc.HandleComplete(ctx, bus.Message{Value: []byte(`{"batchId":1,"numberReferred":4,"totalInWindow":9}`)})
	require.NoError(t, err)
	assert.Equal(t, 5, *h.repo.batches[0].RemainingInWindow)

	err = h.svc.HandleComplete(ctx, bus.Message{Value: []byte(`{"numberReferred":4}`)})
	assert.True(t, perr.Terminal(err))
}

type fakeLock struct {
	busy  bool
	calls int
}

func (l *fakeLock) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(context.Context) error) error {
	l.calls++
	if l.busy {
		return lock.ErrLockNotAcquired
	}
	return fn(ctx)
}

func TestCycle(t *testing.T) {
	lk := &fakeLock{}
	h := newHarness(t, lk)

	h.svc.Cycle(context.Background())
	assert.Len(t, h.repo.batches, 1)

	// previous batch still open, the cycle logs and returns
	h.svc.Cycle(context.Background())
	assert.Len(t, h.repo.batches, 1)

	lk.busy = true
	h.svc.Cycle(context.Background())
	assert.Equal(t, 3, lk.calls)
	assert.Len(t, h.repo.batches, 1)
}

func TestRun(t *testing.T) {
	h := newHarness(t, nil)
	err := h.svc.Run(context.Background())
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument), "no locker")

	h = newHarness(t, &fakeLock{})
	h.svc.cfg.Cron = "not a schedule"
	assert.Error(t, h.svc.Run(context.Background()))

	h = newHarness(t, &fakeLock{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.svc.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestNewPanicsOnMissingDeps(t *testing.T) {
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return &fakeRepo{} })
	assert.Panics(t, func() { New(nil, binder, &bustest.Recorder{}, nil, Config{}) })
	assert.Panics(t, func() { New(&storetest.Tx{}, nil, &bustest.Recorder{}, nil, Config{}) })
	assert.Panics(t, func() { New(&storetest.Tx{}, binder, nil, nil, Config{}) })
}
