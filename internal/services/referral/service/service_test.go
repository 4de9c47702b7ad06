package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/bus/bustest"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store/storetest"
	kit "datacompliance/internal/platform/testkit"
	auditdomain "datacompliance/internal/services/audit/domain"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
	"datacompliance/internal/services/referral/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

var topics = bus.Topics{
	CheckRequests:    "retention-check-requests",
	DeletionGranted:  "deletion-granted",
	DeletionComplete: "deletion-complete",
}

type harness struct {
	svc    *Svc
	repo   *fakeRepo
	tx     *storetest.Tx
	pub    *bustest.Recorder
	ledger *fakeLedger
	clock  *kit.Clock
}

func newHarness(t *testing.T, kinds ...events.CheckKind) *harness {
	t.Helper()
	h := &harness{repo: newFakeRepo(), tx: &storetest.Tx{}, pub: &bustest.Recorder{}, ledger: &fakeLedger{}, clock: kit.NewClock(now)}
	if kinds == nil {
		kinds = []events.CheckKind{events.CheckManualRetention, events.CheckImageDuplicate, events.CheckUnlawfullyAtLarge}
	}
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return h.repo })
	h.svc = New(h.tx, binder, h.pub, h.ledger, Config{
		Policy:           domain.Policy{Kinds: kinds, SkipImagesWithoutUploads: true},
		Topics:           topics,
		Now:              h.clock.Now,
		BacklogTolerance: 24 * time.Hour,
	})
	return h
}

func pending(offenderNo string) events.PendingDeletion {
	return events.PendingDeletion{
		BatchID:    3,
		OffenderNo: offenderNo,
		FirstName:  "JOHN",
		LastName:   "SMITH",
		Records: []events.OffenderRecord{
			{OffenderID: 11, OffenderBookID: 101, BookingNo: "B101"},
			{OffenderID: 11, OffenderBookID: 102},
			{OffenderID: 12},
		},
	}
}

func (h *harness) intake(t *testing.T, m events.PendingDeletion) domain.Referral {
	t.Helper()
	ref, err := h.svc.IntakeReferral(context.Background(), m)
	require.NoError(t, err)
	return ref
}

func (h *harness) apply(t *testing.T, checkID int64, st events.CheckStatus) domain.Check {
	t.Helper()
	c, err := h.svc.ApplyResult(context.Background(), domain.Outcome{CheckID: checkID, Status: st})
	require.NoError(t, err)
	return c
}

func TestIntake_CreatesAndDispatchesChecks(t *testing.T) {
	h := newHarness(t)
	ref := h.intake(t, pending("A1234BC"))
	assert.True(t, ref.Pending())
	assert.Equal(t, 3, h.repo.records)

	sent := h.pub.On(topics.CheckRequests)
	require.Len(t, sent, 2, "image check is skipped without uploads")
	assert.Equal(t, string(events.CheckManualRetention), sent[0].Header(bus.HeaderCheckKind))
	assert.Equal(t, events.TypeCheckRequested, sent[0].Header(bus.HeaderEventType))

	req, err := bustest.DecodeAs[events.CheckRequested](sent[1])
	require.NoError(t, err)
	assert.Equal(t, events.CheckUnlawfullyAtLarge, req.Kind)
	assert.Equal(t, ref.ID, req.ReferralID)
	assert.Equal(t, "A1234BC", req.Subject.OffenderNo)
	assert.Equal(t, []string{"B101"}, req.Subject.BookingNos)

	checks, _ := h.repo.ChecksFor(context.Background(), ref.ID)
	for _, c := range checks {
		assert.NotNil(t, c.DispatchedAt)
		assert.Equal(t, events.CheckPending, c.Status)
	}
}

func TestIntake_ImageCheckWithUploads(t *testing.T) {
	h := newHarness(t)
	h.repo.uploads["A1234BC"] = true
	h.intake(t, pending("A1234BC"))
	assert.Len(t, h.pub.On(topics.CheckRequests), 3)
}

func TestIntake_RedeliveryDoesNotRedispatch(t *testing.T) {
	h := newHarness(t)
	first := h.intake(t, pending("A1234BC"))
	second := h.intake(t, pending("A1234BC"))
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, h.pub.On(topics.CheckRequests), 2)
	assert.Len(t, h.repo.checks, 2)
}

func TestIntake_DispatchFailureLeavesCheckPending(t *testing.T) {
	h := newHarness(t)
	h.pub.Err = errors.New("broker down")

	ref := h.intake(t, pending("A1234BC"))
	assert.Empty(t, h.pub.Sent)
	checks, _ := h.repo.ChecksFor(context.Background(), ref.ID)
	require.Len(t, checks, 2)
	assert.Nil(t, checks[0].DispatchedAt)

	_, err := h.svc.Redispatch(context.Background(), checks[0].ID)
	assert.Error(t, err)

	h.pub.Err = nil
	c, err := h.svc.Redispatch(context.Background(), checks[0].ID)
	require.NoError(t, err)
	assert.NotNil(t, c.DispatchedAt)
	assert.Len(t, h.pub.On(topics.CheckRequests), 1)

	// a later redelivery picks up the check that never went out
	h.intake(t, pending("A1234BC"))
	assert.Len(t, h.pub.On(topics.CheckRequests), 2)
}

func TestRedispatch_TerminalCheck(t *testing.T) {
	h := newHarness(t)
	h.intake(t, pending("A1234BC"))
	h.apply(t, 1, events.CheckNotRequired)

	_, err := h.svc.Redispatch(context.Background(), 1)
	assert.True(t, perr.IsCode(err, perr.ErrorCodePrecondition))

	_, err = h.svc.Redispatch(context.Background(), 99)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))
}

func TestIntake_DeceasedClosedOnIntake(t *testing.T) {
	h := newHarness(t)
	m := pending("A1234BC")
	m.Kind = events.ReferralDeceased

	ref := h.intake(t, m)
	require.NotNil(t, ref.Resolution)
	assert.Equal(t, domain.Deleted, ref.Resolution.Status)
	assert.Empty(t, h.pub.Sent)
	assert.Empty(t, h.repo.checks)
	assert.Equal(t, []auditdomain.Event{auditdomain.EventClosedOnIntake}, h.ledger.events())

	// redelivery neither closes again nor starts checks
	h.intake(t, m)
	assert.Len(t, h.ledger.events(), 1)
	assert.Empty(t, h.repo.checks)
}

func TestIntake_InvalidReferral(t *testing.T) {
	h := newHarness(t)
	m := pending("A1234BC")
	m.Records = nil
	_, err := h.svc.IntakeReferral(context.Background(), m)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
	assert.Empty(t, h.repo.referrals)
}

func TestIntake_NoChecksGrantsDeletion(t *testing.T) {
	h := newHarness(t, []events.CheckKind{}...)

	ref := h.intake(t, pending("A1234BC"))
	res := h.repo.resolution(ref.ID)
	require.NotNil(t, res)
	assert.Equal(t, domain.DeletionGranted, res.Status)
	assert.Len(t, h.pub.On(topics.DeletionGranted), 1)
}

func TestApplyResult_GrantsWhenAllClear(t *testing.T) {
	h := newHarness(t)
	ref := h.intake(t, pending("A1234BC"))

	h.apply(t, 1, events.CheckNotRequired)
	assert.Nil(t, h.repo.resolution(ref.ID), "one check is still pending")

	h.apply(t, 2, events.CheckNotRequired)
	res := h.repo.resolution(ref.ID)
	require.NotNil(t, res)
	assert.Equal(t, domain.DeletionGranted, res.Status)
	assert.NotNil(t, res.PublishedAt)

	grants := h.pub.On(topics.DeletionGranted)
	require.Len(t, grants, 1)
	assert.Equal(t, "A1234BC", grants[0].Key)
	g, err := bustest.DecodeAs[events.DeletionGranted](grants[0])
	require.NoError(t, err)
	assert.Equal(t, ref.ID, g.ReferralID)
	assert.Equal(t, []int64{11, 12}, g.OffenderIDs)
	assert.Equal(t, []int64{101, 102}, g.OffenderBookIDs)

	assert.Equal(t, []auditdomain.Event{auditdomain.EventResolved, auditdomain.EventGrantPublished}, h.ledger.events())
}

func TestApplyResult_RetainsOnRequired(t *testing.T) {
	h := newHarness(t)
	ref := h.intake(t, pending("A1234BC"))

	h.apply(t, 2, events.CheckRequired)
	h.apply(t, 1, events.CheckNotRequired)

	res := h.repo.resolution(ref.ID)
	require.NotNil(t, res)
	assert.Equal(t, domain.Retained, res.Status)
	assert.Equal(t, []int64{2}, res.RetainedBy)
	assert.Contains(t, res.Reason, "UNLAWFULLY_AT_LARGE(2)")
	assert.Empty(t, h.pub.On(topics.DeletionGranted))
}

func TestApplyResult_Idempotent(t *testing.T) {
	h := newHarness(t)
	ref := h.intake(t, pending("A1234BC"))
	h.apply(t, 1, events.CheckRequired)
	h.apply(t, 2, events.CheckNotRequired)
	before := h.repo.resolution(ref.ID)

	c := h.apply(t, 1, events.CheckRequired)
	assert.Equal(t, events.CheckRequired, c.Status)
	c = h.apply(t, 1, events.CheckNotRequired)
	assert.Equal(t, events.CheckRequired, c.Status, "terminal checks never change")

	assert.Equal(t, before, h.repo.resolution(ref.ID))
	assert.Equal(t, 1, h.repo.inserts)
}

func TestApplyResult_Rejects(t *testing.T) {
	h := newHarness(t)
	h.intake(t, pending("A1234BC"))

	_, err := h.svc.ApplyResult(context.Background(), domain.Outcome{CheckID: 42, Status: events.CheckRequired})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	_, err = h.svc.ApplyResult(context.Background(), domain.Outcome{CheckID: 1, Status: events.CheckPending})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))

	_, rollbacks := h.tx.Counts()
	_, err = h.svc.ApplyResult(context.Background(), domain.Outcome{CheckID: 1, Kind: events.CheckMappaReferral, Status: events.CheckRequired})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
	_, after := h.tx.Counts()
	assert.Equal(t, rollbacks+1, after)
}

func TestApplyResult_RedeliveredOnTerminalCheckIgnoresKind(t *testing.T) {
	h := newHarness(t)
	h.intake(t, pending("A1234BC"))
	h.apply(t, 1, events.CheckRequired)

	commits, rollbacks := h.tx.Counts()
	c, err := h.svc.ApplyResult(context.Background(), domain.Outcome{CheckID: 1, Kind: events.CheckMappaReferral, Status: events.CheckNotRequired})
	require.NoError(t, err)
	assert.Equal(t, events.CheckManualRetention, c.Kind)
	assert.Equal(t, events.CheckRequired, c.Status)

	afterCommits, afterRollbacks := h.tx.Counts()
	assert.Equal(t, commits+1, afterCommits)
	assert.Equal(t, rollbacks, afterRollbacks)
	assert.Equal(t, 0, h.repo.inserts)
}

func TestApplyResult_ConcurrentResultsResolveOnce(t *testing.T) {
	h := newHarness(t, events.AllCheckKinds...)
	h.repo.uploads["A1234BC"] = true
	ref := h.intake(t, pending("A1234BC"))
	require.Len(t, h.repo.checks, len(events.AllCheckKinds))

	var wg sync.WaitGroup
	for _, c := range h.repo.checks {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := h.svc.ApplyResult(context.Background(), domain.Outcome{CheckID: id, Status: events.CheckNotRequired})
			assert.NoError(t, err)
		}(c.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, h.repo.inserts)
	assert.Equal(t, domain.DeletionGranted, h.repo.resolution(ref.ID).Status)
	assert.Len(t, h.pub.On(topics.DeletionGranted), 1)
}

func TestApplyResult_LinksDuplicates(t *testing.T) {
	h := newHarness(t)
	h.intake(t, pending("A1234BC"))

	payload := json.RawMessage(`{"matched":"B2345CD"}`)
	_, err := h.svc.ApplyResult(context.Background(), domain.Outcome{
		CheckID: 1,
		Status:  events.CheckRequired,
		DataDuplicates: []events.DataDuplicateFound{
			{DuplicateOffenderNo: "B2345CD", Method: "PNC", Confidence: 100},
			{DuplicateOffenderNo: "A1234BC", Method: "PNC", Confidence: 100},
		},
		ImageDuplicateIDs: []int64{7, 8},
		Payload:           payload,
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{7, 8}, h.repo.imageLinks[1])
	assert.Len(t, h.repo.dataLinks[1], 1, "self matches are dropped")
	c, _ := h.repo.GetCheck(context.Background(), 1)
	assert.JSONEq(t, string(payload), string(c.Payload))
}

func TestGrantPublishFailure_Republished(t *testing.T) {
	h := newHarness(t, events.CheckManualRetention)
	ref := h.intake(t, pending("A1234BC"))

	h.pub.Err, h.pub.FailTopic = errors.New("broker down"), topics.DeletionGranted
	h.apply(t, 1, events.CheckNotRequired)
	res := h.repo.resolution(ref.ID)
	require.NotNil(t, res)
	assert.Equal(t, domain.DeletionGranted, res.Status)
	assert.Nil(t, res.PublishedAt)

	n, err := h.svc.RepublishGrants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	h.pub.Err = nil
	n, err = h.svc.RepublishGrants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, h.pub.On(topics.DeletionGranted), 1)
	assert.NotNil(t, h.repo.resolution(ref.ID).PublishedAt)

	n, _ = h.svc.RepublishGrants(context.Background())
	assert.Equal(t, 0, n)
}

func TestMarkDeleted(t *testing.T) {
	h := newHarness(t, events.CheckManualRetention)
	ref := h.intake(t, pending("A1234BC"))

	_, err := h.svc.MarkDeleted(context.Background(), ref.ID)
	assert.True(t, perr.IsCode(err, perr.ErrorCodePrecondition), "pending referral")

	h.apply(t, 1, events.CheckNotRequired)
	res, err := h.svc.MarkDeleted(context.Background(), ref.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Deleted, res.Status)
	require.NotNil(t, res.DeletedAt)

	done := h.pub.On(topics.DeletionComplete)
	require.Len(t, done, 1)
	msg, err := bustest.DecodeAs[events.DeletionComplete](done[0])
	require.NoError(t, err)
	assert.Equal(t, ref.ID, msg.ReferralID)

	again, err := h.svc.MarkDeleted(context.Background(), ref.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Deleted, again.Status)
	assert.Len(t, h.pub.On(topics.DeletionComplete), 1)

	_, err = h.svc.MarkDeleted(context.Background(), 404)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))
}

func TestMarkDeleted_RetainedIsFinal(t *testing.T) {
	h := newHarness(t, events.CheckManualRetention)
	ref := h.intake(t, pending("A1234BC"))
	h.apply(t, 1, events.CheckRequired)

	_, err := h.svc.MarkDeleted(context.Background(), ref.ID)
	assert.True(t, perr.IsCode(err, perr.ErrorCodePrecondition))
	assert.Equal(t, domain.Retained, h.repo.resolution(ref.ID).Status)
}

func TestBacklog(t *testing.T) {
	h := newHarness(t)
	h.intake(t, pending("A1234BC"))

	b, err := h.svc.Backlog(context.Background())
	require.NoError(t, err)
	assert.Zero(t, b.UnresolvedReferrals)
	assert.NotNil(t, b.UnresolvedIDs)

	h.clock.Advance(25 * time.Hour)
	b, err = h.svc.Backlog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, b.UnresolvedReferrals)
	assert.Equal(t, []int64{1}, b.UnresolvedIDs)
	assert.Equal(t, 24*time.Hour, b.Tolerance)
}

func TestRunMaintenance_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.NoError(t, h.svc.RunMaintenance(ctx, 5*time.Millisecond))
}

func TestHandlers(t *testing.T) {
	h := newHarness(t, events.CheckManualRetention)

	body, _ := json.Marshal(pending("A1234BC"))
	require.NoError(t, h.svc.HandlePendingDeletion(context.Background(), bus.Message{Value: body}))
	require.Len(t, h.repo.referrals, 1)

	err := h.svc.HandlePendingDeletion(context.Background(), bus.Message{Value: []byte(`{"batchId":3,"offenderNo":"nope"}`)})
	assert.True(t, perr.Terminal(err))

	require.NoError(t, h.svc.HandleCheckResult(context.Background(),
		bus.Message{Value: []byte(`{"checkId":1,"kind":"MANUAL_RETENTION","status":"RETENTION_NOT_REQUIRED"}`)}))
	assert.Equal(t, domain.DeletionGranted, h.repo.resolution(1).Status)

	require.NoError(t, h.svc.HandleExternalDeletion(context.Background(), bus.Message{Value: []byte(`{"referralId":1}`)}))
	assert.Equal(t, domain.Deleted, h.repo.resolution(1).Status)

	err = h.svc.HandleCheckResult(context.Background(), bus.Message{Value: []byte(`{"checkId":1,"status":"MAYBE"}`)})
	assert.True(t, perr.Terminal(err))
}

func TestNewPanicsOnMissingDeps(t *testing.T) {
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return newFakeRepo() })
	assert.Panics(t, func() { New(nil, binder, &bustest.Recorder{}, nil, Config{}) })
	assert.Panics(t, func() { New(&storetest.Tx{}, nil, &bustest.Recorder{}, nil, Config{}) })
	assert.Panics(t, func() { New(&storetest.Tx{}, binder, nil, nil, Config{}) })

	s := New(&storetest.Tx{}, binder, &bustest.Recorder{}, nil, Config{})
	assert.Len(t, s.cfg.Policy.Kinds, len(events.AllCheckKinds))
}
