// Package policy holds the fine policy: pure calculations deriving
// monetary penalties from loan timing and configured rates. No I/O and
// no side effects live here; every page of the old system carried its
// own copy of this math, this package is the single authority now.
package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan duration bounds accepted when issuing a loan.
const (
	MinLoanDurationDays = 1
	MaxLoanDurationDays = 30
)

// Config carries the configurable policy constants. Amounts are in
// whole currency units (rupees).
type Config struct {
	// PerDayRate is charged for every started day past the due date.
	PerDayRate decimal.Decimal
	// ProcessingFee is added on top of the replacement cost for a lost book.
	ProcessingFee decimal.Decimal
	// ReplacementCost is the fallback replacement charge when the book
	// has no recorded price.
	ReplacementCost decimal.Decimal
	// LoanDurationDays is used when the caller does not pick a duration.
	LoanDurationDays int
	// BorrowWarnThreshold is the active-loan count at which issuing
	// produces a warning (never a rejection).
	BorrowWarnThreshold int
}

// Default returns the policy constants the school settled on:
// ₹5/day late fee, ₹100 processing fee, ₹500 fallback replacement cost,
// 14-day loans, warning at 3 concurrent loans.
func Default() Config {
	return Config{
		PerDayRate:          decimal.NewFromInt(5),
		ProcessingFee:       decimal.NewFromInt(100),
		ReplacementCost:     decimal.NewFromInt(500),
		LoanDurationDays:    14,
		BorrowWarnThreshold: 3,
	}
}

// ValidDuration reports whether days is an acceptable loan duration.
func ValidDuration(days int) bool {
	return days >= MinLoanDurationDays && days <= MaxLoanDurationDays
}

// DaysLate returns the number of started 24h periods between dueDate and
// returnDate, or 0 when the return is on time. Returning exactly at the
// due date is on time.
func DaysLate(dueDate, returnDate time.Time) int {
	if !returnDate.After(dueDate) {
		return 0
	}
	elapsed := returnDate.Sub(dueDate)
	days := int(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// LateFine computes the penalty for a late return: started days late
// times the per-day rate, zero when on time.
func LateFine(dueDate, returnDate time.Time, perDayRate decimal.Decimal) decimal.Decimal {
	days := DaysLate(dueDate, returnDate)
	if days == 0 {
		return decimal.Zero
	}
	return perDayRate.Mul(decimal.NewFromInt(int64(days)))
}

// LostBookFine is the flat charge for a lost copy: replacement cost plus
// the processing fee.
func LostBookFine(replacementCost, processingFee decimal.Decimal) decimal.Decimal {
	return replacementCost.Add(processingFee)
}

// IsOverdue reports whether a loan still out at now has passed its due date.
func IsOverdue(now, dueDate time.Time) bool {
	return now.After(dueDate)
}
