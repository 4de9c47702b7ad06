package repo

import (
	"context"
	"testing"
	"time"

	"datacompliance/internal/platform/store"
	"datacompliance/internal/services/audit/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Next() bool { r.i++; return r.i <= len(r.data) }
func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	*(dest[0].(*time.Time)) = row[0].(time.Time)
	*(dest[1].(*string)) = row[1].(string)
	*(dest[2].(*int64)) = row[2].(int64)
	*(dest[3].(*int64)) = row[3].(int64)
	*(dest[4].(*string)) = row[4].(string)
	*(dest[5].(*string)) = row[5].(string)
	*(dest[6].(*string)) = row[6].(string)
	*(dest[7].(*[]int64)) = row[7].([]int64)
	return nil
}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

type fakeCH struct {
	table string
	rows  [][]any
	exec  string
	query string
	args  []any
	out   *fakeRows
}

func (f *fakeCH) AppendBatch(_ context.Context, table string, rows [][]any) error {
	f.table, f.rows = table, rows
	return nil
}

func (f *fakeCH) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	f.query, f.args = sql, args
	return f.out, nil
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error { f.exec = sql; return nil }
func (f *fakeCH) Close() error                                       { return nil }

func TestAppendMapsColumns(t *testing.T) {
	ch := &fakeCH{}
	r := NewClickhouse(ch)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	err := r.Append(context.Background(), []domain.Entry{{
		At: at, Event: domain.EventResolved, BatchID: 3, ReferralID: 7, OffenderNo: "A1234BC",
		Status: "RETAINED", Reason: "retained by MANUAL_RETENTION(11)",
	}})
	require.NoError(t, err)
	assert.Equal(t, Table, ch.table)
	require.Len(t, ch.rows, 1)
	assert.Equal(t, []any{at, "RESOLVED", int64(3), int64(7), "A1234BC", "RETAINED", "retained by MANUAL_RETENTION(11)", []int64{}}, ch.rows[0])
}

func TestHistoryScans(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ch := &fakeCH{out: &fakeRows{data: [][]any{
		{at, "DELETED", int64(1), int64(2), "A1234BC", "DELETED", "", []int64{4}},
	}}}
	got, err := NewClickhouse(ch).History(context.Background(), "A1234BC", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventDeleted, got[0].Event)
	assert.Equal(t, []int64{4}, got[0].CheckIDs)
	assert.Equal(t, []any{"A1234BC", 10}, ch.args)
}

func TestEnsureSchema(t *testing.T) {
	ch := &fakeCH{}
	require.NoError(t, NewClickhouse(ch).EnsureSchema(context.Background()))
	assert.Contains(t, ch.exec, "CREATE TABLE IF NOT EXISTS retention_decisions")
}
