// Package postgres is the PostgreSQL implementation of the repository
// interfaces. It uses database/sql with parameterized queries and
// contains no business logic; counter clamps and status guards are
// expressed directly in the SQL so they hold under concurrency.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"maktaba/internal/repository"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, so each repository can
// run standalone or inside an atomic unit.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// guardedExec runs an UPDATE that is expected to touch exactly one row
// and maps zero affected rows to repository.ErrStaleState.
func guardedExec(ctx context.Context, db dbtx, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStaleState
	}
	return nil
}

// mapCommitErr translates transient PostgreSQL failures into the
// retryable conflict sentinel. 40001 is serialization_failure, 40P01 is
// deadlock_detected.
func mapCommitErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return repository.ErrConflictRetryable
		}
	}
	return err
}
