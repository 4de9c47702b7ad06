package service

import (
	"context"
	"sort"
	"sync"
	"time"

	perr "datacompliance/internal/platform/errors"
	auditdomain "datacompliance/internal/services/audit/domain"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
)

type storedReferral struct {
	batchID    int64
	subject    domain.Subject
	receivedAt time.Time
}

type dataDup struct {
	id        int64
	reference string
	duplicate string
	method    string
}

type fakeRepo struct {
	mu          sync.Mutex
	referrals   map[int64]*storedReferral
	resolutions map[int64]*domain.Resolution
	checks      []*domain.Check
	uploads     map[string]bool
	imageLinks  map[int64][]int64
	dataDups    []dataDup
	dataLinks   map[int64][]int64
	inserts     int
	locks       int
	records     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		referrals:   map[int64]*storedReferral{},
		resolutions: map[int64]*domain.Resolution{},
		uploads:     map[string]bool{},
		imageLinks:  map[int64][]int64{},
		dataLinks:   map[int64][]int64{},
	}
}

func (f *fakeRepo) InsertReferral(_ context.Context, batchID int64, s domain.Subject, at time.Time) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.referrals {
		if r.batchID == batchID && r.subject.OffenderNo() == s.OffenderNo() {
			return id, false, nil
		}
	}
	id := int64(len(f.referrals) + 1)
	f.referrals[id] = &storedReferral{batchID: batchID, subject: s, receivedAt: at}
	return id, true, nil
}

func (f *fakeRepo) InsertRecords(_ context.Context, _ int64, records []domain.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records += len(records)
	return nil
}

func (f *fakeRepo) HasImageUploads(_ context.Context, offenderNo string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads[offenderNo], nil
}

func (f *fakeRepo) InsertCheck(_ context.Context, referralID int64, kind events.CheckKind, at time.Time) (domain.Check, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.checks {
		if c.ReferralID == referralID && c.Kind == kind {
			return *c, nil
		}
	}
	c := &domain.Check{ID: int64(len(f.checks) + 1), ReferralID: referralID, Kind: kind, Status: events.CheckPending, CreatedAt: at}
	f.checks = append(f.checks, c)
	return *c, nil
}

func (f *fakeRepo) MarkDispatched(_ context.Context, checkID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.check(checkID); c != nil {
		c.DispatchedAt = &at
	}
	return nil
}

func (f *fakeRepo) check(id int64) *domain.Check {
	if id < 1 || int(id) > len(f.checks) {
		return nil
	}
	return f.checks[id-1]
}

func (f *fakeRepo) GetCheck(_ context.Context, id int64) (domain.Check, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.check(id)
	if c == nil {
		return domain.Check{}, perr.NotFoundf("retention check %d not found", id)
	}
	return *c, nil
}

func (f *fakeRepo) ApplyOutcome(_ context.Context, id int64, status events.CheckStatus, at time.Time, payload []byte) (domain.Check, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.check(id)
	if c == nil {
		return domain.Check{}, false, perr.NotFoundf("retention check %d not found", id)
	}
	if c.Status != events.CheckPending {
		return *c, false, nil
	}
	c.Status, c.CheckedAt = status, &at
	if len(payload) > 0 {
		c.Payload = payload
	}
	return *c, true, nil
}

func (f *fakeRepo) ChecksFor(_ context.Context, referralID int64) ([]domain.Check, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Check
	for _, c := range f.checks {
		if c.ReferralID == referralID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeRepo) LinkImageDuplicates(_ context.Context, checkID int64, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageLinks[checkID] = append(f.imageLinks[checkID], ids...)
	return nil
}

func (f *fakeRepo) LinkDataDuplicates(_ context.Context, checkID int64, reference string, found []events.DataDuplicateFound, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range found {
		if d.DuplicateOffenderNo == reference {
			continue
		}
		id := f.findDup(reference, d.DuplicateOffenderNo, d.Method)
		if id == 0 {
			id = int64(len(f.dataDups) + 1)
			f.dataDups = append(f.dataDups, dataDup{id: id, reference: reference, duplicate: d.DuplicateOffenderNo, method: d.Method})
		}
		f.dataLinks[checkID] = append(f.dataLinks[checkID], id)
	}
	return nil
}

func (f *fakeRepo) findDup(a, b, method string) int64 {
	for _, d := range f.dataDups {
		if d.method == method && ((d.reference == a && d.duplicate == b) || (d.reference == b && d.duplicate == a)) {
			return d.id
		}
	}
	return 0
}

func (f *fakeRepo) FindDataDuplicate(_ context.Context, a, b, method string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id := f.findDup(a, b, method); id != 0 {
		return id, nil
	}
	return 0, perr.NotFoundf("no data duplicate %s/%s", a, b)
}

func (f *fakeRepo) load(id int64) (domain.Referral, error) {
	r, ok := f.referrals[id]
	if !ok {
		return domain.Referral{}, perr.NotFoundf("referral %d not found", id)
	}
	ref := domain.Referral{ID: id, BatchID: r.batchID, Subject: r.subject, ReceivedAt: r.receivedAt}
	if res, ok := f.resolutions[id]; ok {
		cp := *res
		ref.Resolution = &cp
	}
	return ref, nil
}

func (f *fakeRepo) LockReferral(_ context.Context, id int64) (domain.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locks++
	return f.load(id)
}

func (f *fakeRepo) GetReferral(_ context.Context, id int64) (domain.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(id)
}

func (f *fakeRepo) InsertResolution(_ context.Context, r domain.Resolution) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resolutions[r.ReferralID]; ok {
		return false, nil
	}
	f.inserts++
	f.resolutions[r.ReferralID] = &r
	return true, nil
}

func (f *fakeRepo) MarkPublished(_ context.Context, referralID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.resolutions[referralID]; ok && r.PublishedAt == nil {
		r.PublishedAt = &at
	}
	return nil
}

func (f *fakeRepo) MarkDeleted(_ context.Context, referralID int64, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resolutions[referralID]
	if !ok || r.Status != domain.DeletionGranted {
		return false, nil
	}
	r.Status, r.DeletedAt = domain.Deleted, &at
	return true, nil
}

func (f *fakeRepo) UnpublishedGrants(_ context.Context, limit int) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id, r := range f.resolutions {
		if r.Status == domain.DeletionGranted && r.PublishedAt == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeRepo) Backlog(_ context.Context, olderThan time.Time, _ int) (domain.Backlog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b domain.Backlog
	for id, r := range f.referrals {
		if _, done := f.resolutions[id]; !done && r.receivedAt.Before(olderThan) {
			b.UnresolvedReferrals++
			b.UnresolvedIDs = append(b.UnresolvedIDs, id)
		}
	}
	return b, nil
}

func (f *fakeRepo) resolution(id int64) *domain.Resolution {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.resolutions[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []auditdomain.Entry
}

func (l *fakeLedger) Append(_ context.Context, e ...auditdomain.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e...)
	return nil
}

func (l *fakeLedger) History(context.Context, string, int) ([]auditdomain.Entry, error) {
	return nil, nil
}

func (l *fakeLedger) events() []auditdomain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []auditdomain.Event
	for _, e := range l.entries {
		out = append(out, e.Event)
	}
	return out
}
