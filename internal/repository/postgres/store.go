package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"maktaba/internal/repository"
)

// Store bundles the PostgreSQL repositories over a shared pool and
// provides the atomic unit-of-work used by circulation transitions.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Books() repository.BookRepository {
	return NewBookPostgres(s.db)
}

func (s *Store) Students() repository.StudentRepository {
	return NewStudentPostgres(s.db)
}

func (s *Store) Loans() repository.LoanRepository {
	return NewLoanPostgres(s.db)
}

func (s *Store) Publications() repository.PublicationRepository {
	return NewPublicationPostgres(s.db)
}

// RunAtomic runs fn inside a single transaction. fn's error aborts the
// unit unchanged; commit-time serialization failures surface as
// repository.ErrConflictRetryable so the caller can retry with the same
// inputs.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", mapCommitErr(err))
	}

	if err := fn(ctx, &storeTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return mapCommitErr(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", mapCommitErr(err))
	}
	return nil
}

// storeTx exposes the repositories bound to one open transaction.
type storeTx struct {
	tx *sql.Tx
}

var _ repository.Tx = (*storeTx)(nil)

func (t *storeTx) Books() repository.BookRepository {
	return NewBookPostgres(t.tx)
}

func (t *storeTx) Students() repository.StudentRepository {
	return NewStudentPostgres(t.tx)
}

func (t *storeTx) Loans() repository.LoanRepository {
	return NewLoanPostgres(t.tx)
}
