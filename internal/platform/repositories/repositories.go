package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/database"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type rowScanner interface {
	Scan(dest ...any) error
}

type store struct {
	db *database.DB
}

func (s store) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, apperrors.Store(op, err)
	}
	return res, nil
}

// execOne runs a statement that must touch exactly one row; zero rows means
// the target does not exist in the caller's org.
func (s store) execOne(ctx context.Context, op, resource, query string, args ...any) error {
	res, err := s.exec(ctx, op, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Store(op, err)
	}
	if n == 0 {
		return apperrors.NotFound(resource)
	}
	return nil
}

func (s store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.db.Rebind(query), args...)
}

func (s store) query(ctx context.Context, op, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, apperrors.Store(op, err)
	}
	return rows, nil
}

// scanErr maps a point-lookup scan failure.
func scanErr(op, resource string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource)
	}
	return apperrors.Store(op, err)
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
