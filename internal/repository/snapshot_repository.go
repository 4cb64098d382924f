package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// SnapshotSource supplies the raw complaint rows accepted within a period.
type SnapshotSource interface {
	ListAccepted(ctx context.Context, start, end time.Time) ([]domain.RawRow, error)
}

// Querier is the subset of pgxpool.Pool used by the snapshot repository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type snapshotRepository struct {
	db    Querier
	query string
}

// NewSnapshotRepository reads tickets from table, filtering on the
// acceptance time column. Column names come from the schema mapping.
func NewSnapshotRepository(db Querier, table, acceptedAtColumn string) SnapshotSource {
	return &snapshotRepository{db: db, query: snapshotQuery(table, acceptedAtColumn)}
}

func snapshotQuery(table, acceptedAtColumn string) string {
	col := pgx.Identifier{acceptedAtColumn}.Sanitize()
	return fmt.Sprintf(
		`SELECT * FROM %s WHERE %s >= $1 AND %s <= $2 ORDER BY %s`,
		pgx.Identifier{table}.Sanitize(), col, col, col,
	)
}

func (r *snapshotRepository) ListAccepted(ctx context.Context, start, end time.Time) ([]domain.RawRow, error) {
	rows, err := r.db.Query(ctx, r.query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []domain.RawRow
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(domain.RawRow, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
