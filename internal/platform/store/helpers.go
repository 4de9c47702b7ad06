package store

import (
	"context"
	"fmt"

	perr "datacompliance/internal/platform/errors"
)

// ExecOne runs a write and asserts exactly one row was affected
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n != 1 {
		return fmt.Errorf("expected exactly one row affected, got %d", n)
	}
	return nil
}

// Scalar queries the first row, first column into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	if err := q.QueryRow(ctx, sql, args...).Scan(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// One maps exactly one row into T using scan; no rows is perr.ErrNotFound
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, err
		}
		return zero, perr.ErrNotFound
	}
	item, err := scan(rows)
	if err != nil {
		return zero, err
	}
	if rows.Next() {
		return zero, fmt.Errorf("expected 1 row, got more")
	}
	return item, rows.Err()
}

// Many maps every row into []T using scan
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Column collects a single-column result into []T
func Column[T any](ctx context.Context, q RowQuerier, sql string, args ...any) ([]T, error) {
	return Many(ctx, q, func(r Row) (T, error) {
		var v T
		err := r.Scan(&v)
		return v, err
	}, sql, args...)
}
