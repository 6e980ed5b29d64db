// Package repository contains data access abstractions for the library.
// Implementations live in subpackages (e.g., postgres) and hold SQL only;
// circulation rules stay in the service layer.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"maktaba/internal/model"
)

var (
	// ErrStaleState reports a guarded update that matched no row: the row
	// is gone or its state no longer permits the change. Callers decide
	// what that means (no copies left, transition already applied, ...).
	ErrStaleState = errors.New("stale state")

	// ErrConflictRetryable reports an atomic unit that failed to commit
	// for transient reasons (serialization failure, deadlock). Retrying
	// the whole unit with the same inputs is safe.
	ErrConflictRetryable = errors.New("persistence conflict")
)

// BookRepository defines data access for books and their copy counters.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) (*model.Book, error)
	FindByID(ctx context.Context, id string) (*model.Book, error)
	List(ctx context.Context, f BookFilter, pq PageQuery) (*PageResult[model.Book], error)

	// Update rewrites the catalog fields and applies the total_copies
	// delta to available_copies in the same statement, guarded so the
	// new total cannot drop below the copies currently on loan. Returns
	// ErrStaleState when the guard fails or the book is gone.
	Update(ctx context.Context, book *model.Book) (*model.Book, error)

	// Delete removes a book, guarded so it only succeeds while every
	// copy is on the shelf. ErrStaleState when copies are on loan or
	// the book is gone.
	Delete(ctx context.Context, id string) error

	// ReserveCopy decrements available_copies by one, guarded so the
	// counter can never go below zero. Returns ErrStaleState when no
	// copy was available to reserve.
	ReserveCopy(ctx context.Context, id string) error

	// ReleaseCopy increments available_copies by one, clamped at
	// total_copies. Returns ErrStaleState when the book does not exist.
	ReleaseCopy(ctx context.Context, id string) error
}

// StudentRepository defines data access for students and their
// borrowed-count / fines-due counters.
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) (*model.Student, error)
	FindByID(ctx context.Context, id string) (*model.Student, error)
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Student], error)

	// Update rewrites the registry fields, leaving the borrowed and
	// fine counters alone. ErrStaleState when the student is gone.
	Update(ctx context.Context, student *model.Student) (*model.Student, error)

	// Delete removes a student, guarded so it only succeeds while no
	// books are out. ErrStaleState when loans are active or the
	// student is gone.
	Delete(ctx context.Context, id string) error

	IncrementBorrowed(ctx context.Context, id string) error
	// DecrementBorrowed clamps at zero rather than erroring; returns on
	// an already-zero counter are tolerated.
	DecrementBorrowed(ctx context.Context, id string) error

	AddFine(ctx context.Context, id string, amount decimal.Decimal) error
	// SettleFine subtracts amount from fines_due, clamped at zero.
	SettleFine(ctx context.Context, id string, amount decimal.Decimal) error
}

// LoanRepository defines data access for loans. Loans are append-only;
// state changes go through the guarded Mark* updates, which only match
// rows still in a compatible status so that two racing transitions
// cannot both succeed.
type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) (*model.Loan, error)
	FindByID(ctx context.Context, id string) (*model.Loan, error)
	List(ctx context.Context, f LoanFilter, pq PageQuery) (*PageResult[model.Loan], error)

	// MarkReturned flips Borrowed/Overdue to Returned, recording the
	// return date, fine, and remarks (empty remarks leave the stored
	// value alone). ErrStaleState when the loan was not in an active
	// status.
	MarkReturned(ctx context.Context, id string, returnDate time.Time, fine decimal.Decimal, remarks string) error

	// MarkLost flips Borrowed/Overdue to Lost. Same guard as MarkReturned.
	MarkLost(ctx context.Context, id string, returnDate time.Time, fine decimal.Decimal) error

	// MarkOverdue flips Borrowed to Overdue. Idempotent: a loan already
	// Overdue (or terminal) is left untouched and no error is returned.
	MarkOverdue(ctx context.Context, id string) error

	// AddFinePayment adds amount to fine_settled and flips fine_paid
	// once the fine is fully covered, guarded so the settled total can
	// never exceed the fine. ErrStaleState when the payment would
	// overshoot or the fine is already paid.
	AddFinePayment(ctx context.Context, id string, amount decimal.Decimal) error
}

// PublicationRepository defines data access for Risala publications.
type PublicationRepository interface {
	Create(ctx context.Context, pub *model.Publication) (*model.Publication, error)
	FindByID(ctx context.Context, id string) (*model.Publication, error)
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Publication], error)
	// UpdateMeta rewrites title and description, leaving the stored
	// objects alone. sql.ErrNoRows when the publication is gone.
	UpdateMeta(ctx context.Context, id, title, description string) (*model.Publication, error)
	// Delete removes a publication by ID. It returns nil if the row was
	// deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// Tx is the set of repositories visible inside an atomic unit.
type Tx interface {
	Books() BookRepository
	Students() StudentRepository
	Loans() LoanRepository
}

// Store is the full persistence surface. Direct accessors run each call
// on its own connection; RunAtomic runs fn inside a single database
// transaction, committing only if fn returns nil.
type Store interface {
	Tx
	Publications() PublicationRepository

	// RunAtomic executes fn within one transaction. Every circulation
	// transition that touches more than one aggregate goes through here,
	// so no intermediate state is ever visible outside the unit.
	RunAtomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// BookFilter narrows book listings. Query matches title or author,
// Category matches exactly; empty fields are ignored.
type BookFilter struct {
	Query    string
	Category string
}

// LoanFilter narrows loan listings; zero values are ignored.
type LoanFilter struct {
	Status    model.LoanStatus
	StudentID string
	BookID    string
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
