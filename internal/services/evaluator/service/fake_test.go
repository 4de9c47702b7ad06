package service

import (
	"context"
	"sync"
	"time"

	perr "datacompliance/internal/platform/errors"
	dupdomain "datacompliance/internal/services/duplicates/domain"
	"datacompliance/internal/services/evaluator/domain"
	"datacompliance/internal/services/evaluator/repo"
)

type fakeRepo struct {
	mu      sync.Mutex
	manual  map[string]domain.ManualRetention
	ual     []domain.UALOffender
	lookups []domain.Identifier
	err     error
}

var _ repo.Repo = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo { return &fakeRepo{manual: map[string]domain.ManualRetention{}} }

func (f *fakeRepo) GetManualRetention(_ context.Context, offenderNo string) (domain.ManualRetention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.ManualRetention{}, f.err
	}
	m, ok := f.manual[offenderNo]
	if !ok {
		return m, perr.NotFoundf("no manual retention for %s", offenderNo)
	}
	return m, nil
}

func (f *fakeRepo) UpsertManualRetention(_ context.Context, m domain.ManualRetention) (domain.ManualRetention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.Version = f.manual[m.OffenderNo].Version + 1
	f.manual[m.OffenderNo] = m
	return m, nil
}

func (f *fakeRepo) DeleteManualRetention(_ context.Context, offenderNo string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.manual[offenderNo]
	delete(f.manual, offenderNo)
	return ok, nil
}

func (f *fakeRepo) FindUAL(_ context.Context, by domain.Identifier, value string) ([]domain.UALOffender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, by)
	var out []domain.UALOffender
	for _, u := range f.ual {
		var v string
		switch by {
		case domain.ByOffenderNo:
			v = u.OffenderNo
		case domain.ByBookingNo:
			v = u.BookingNo
		case domain.ByPNC:
			v = u.PNC
		case domain.ByCRO:
			v = u.CRO
		}
		if v != "" && v == value {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeImages struct {
	finding dupdomain.Finding
	err     error
	calls   int
}

func (f *fakeImages) CheckImageDuplicates(_ context.Context, offenderNo string) (dupdomain.Finding, error) {
	f.calls++
	f.finding.OffenderNo = offenderNo
	return f.finding, f.err
}

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
