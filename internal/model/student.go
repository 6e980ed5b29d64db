package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Student is a registered borrower. BorrowedBooks and FinesDue are
// aggregate counters kept in sync with the student's loans; they are
// mutated only by circulation transitions and fine payments.
type Student struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	RollNumber    string          `json:"roll_number"`
	Grade         string          `json:"grade"`
	ContactNumber string          `json:"contact_number,omitempty"`
	Address       string          `json:"address,omitempty"`
	BorrowedBooks int             `json:"borrowed_books"`
	FinesDue      decimal.Decimal `json:"fines_due"`
	CreatedAt     time.Time       `json:"created_at"`
}
