package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

func TestSnapshotQueryQuotesIdentifiers(t *testing.T) {
	q := snapshotQuery("complaint_tickets", "accepted_at")
	assert.Equal(t,
		`SELECT * FROM "complaint_tickets" WHERE "accepted_at" >= $1 AND "accepted_at" <= $2 ORDER BY "accepted_at"`,
		q)

	q = snapshotQuery(`bad"name`, "受理时间")
	assert.Contains(t, q, `"bad""name"`)
	assert.Contains(t, q, `"受理时间"`)
}

func TestMemoryReportStoreRoundTrip(t *testing.T) {
	store := NewMemoryReportStore()
	ctx := context.Background()
	report := &domain.AnalysisReport{RunID: "run-1", Strategy: domain.StrategySubstring}

	require.NoError(t, store.Save(ctx, report, time.Hour))
	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, domain.StrategySubstring, got.Strategy)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestMemoryReportStoreExpiry(t *testing.T) {
	store := NewMemoryReportStore().(*memoryReportStore)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.AnalysisReport{RunID: "a"}, time.Minute))
	require.NoError(t, store.Save(ctx, &domain.AnalysisReport{RunID: "b"}, 0))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrReportNotFound)
	_, err = store.Get(ctx, "b")
	assert.NoError(t, err)
}

type fakeRows struct {
	fields []pgconn.FieldDescription
	data   [][]any
	pos    int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) Scan(...any) error                            { return errors.New("not supported") }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) { return r.data[r.pos-1], nil }

type fakeQuerier struct {
	rows *fakeRows
	sql  string
	args []any
	err  error
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestSnapshotRepositoryMapsColumns(t *testing.T) {
	accepted := time.Date(2024, 5, 20, 18, 0, 0, 0, time.UTC)
	rows := &fakeRows{
		fields: []pgconn.FieldDescription{{Name: "ticket_id"}, {Name: "accepted_at"}, {Name: "subscriber_number"}},
		data: [][]any{
			{"T1", accepted, "13800000000"},
			{"T2", accepted.Add(time.Hour), nil},
		},
	}
	q := &fakeQuerier{rows: rows}
	repo := NewSnapshotRepository(q, "complaint_tickets", "accepted_at")

	start, end := accepted.AddDate(0, 0, -30), accepted.Add(24*time.Hour)
	got, err := repo.ListAccepted(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.RawRow{"ticket_id": "T1", "accepted_at": accepted, "subscriber_number": "13800000000"}, got[0])
	assert.Nil(t, got[1]["subscriber_number"])
	assert.Equal(t, []any{start, end}, q.args)
	assert.Equal(t, snapshotQuery("complaint_tickets", "accepted_at"), q.sql)
	assert.True(t, rows.closed)
}

func TestSnapshotRepositoryQueryError(t *testing.T) {
	boom := errors.New("relation does not exist")
	repo := NewSnapshotRepository(&fakeQuerier{err: boom}, "t", "c")
	_, err := repo.ListAccepted(context.Background(), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, boom)
}
