package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	// StatusBorrowed is the initial state of every loan.
	StatusBorrowed LoanStatus = "Borrowed"
	// StatusOverdue is a Borrowed loan whose due date has passed. It is
	// derived from the clock at read time, not by a background job, and
	// the loan can still be returned or marked lost.
	StatusOverdue LoanStatus = "Overdue"
	// StatusReturned is terminal.
	StatusReturned LoanStatus = "Returned"
	// StatusLost is terminal. The copy is presumed destroyed and never
	// goes back into the available pool.
	StatusLost LoanStatus = "Lost"
)

// Terminal reports whether no further circulation transition is allowed.
func (s LoanStatus) Terminal() bool {
	return s == StatusReturned || s == StatusLost
}

// Active reports whether the loan counts against the student's
// borrowed-books counter.
func (s LoanStatus) Active() bool {
	return s == StatusBorrowed || s == StatusOverdue
}

// Loan records one book being lent to one student, from issue until
// return or loss. Loans are append-only: they reference Book and Student
// by id and are never deleted.
type Loan struct {
	ID         string          `json:"id"`
	BookID     string          `json:"book_id"`
	StudentID  string          `json:"student_id"`
	BorrowDate time.Time       `json:"borrow_date"`
	DueDate    time.Time       `json:"due_date"`
	ReturnDate *time.Time      `json:"return_date,omitempty"`
	Status     LoanStatus      `json:"status"`
	FineAmount decimal.Decimal `json:"fine_amount"`
	// FineSettled accumulates payments against FineAmount; FinePaid
	// flips once the two are equal.
	FineSettled decimal.Decimal `json:"fine_settled"`
	FinePaid    bool            `json:"fine_paid"`
	Remarks     string          `json:"remarks,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FineOutstanding is the part of the fine not yet paid.
func (l *Loan) FineOutstanding() decimal.Decimal {
	return l.FineAmount.Sub(l.FineSettled)
}
