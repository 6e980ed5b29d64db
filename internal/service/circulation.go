package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"maktaba/internal/model"
	"maktaba/internal/policy"
	"maktaba/internal/repository"
)

// Warning is a non-blocking eligibility flag reported alongside a
// successful issue. The school never hard-blocks on these; the
// librarian sees them and decides.
type Warning string

const (
	WarnStudentOverLimit Warning = "student_over_limit"
	WarnUnpaidFines      Warning = "student_has_unpaid_fines"
)

// Eligibility is the result of a read-only pre-issue check.
type Eligibility struct {
	CanIssue bool      `json:"can_issue"`
	Reason   string    `json:"reason,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// IssueResult carries the created loan plus any soft warnings.
type IssueResult struct {
	Loan     *model.Loan `json:"loan"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

// LoanListResult is the service-level DTO for paginated loans.
type LoanListResult struct {
	Items []model.Loan `json:"data"`
	Total int          `json:"total"`
}

// LoanQuery narrows loan listings.
type LoanQuery struct {
	Status    model.LoanStatus
	StudentID string
	BookID    string
}

// CirculationService owns the loan lifecycle and keeps the book/student
// counters consistent with it. Every transition that touches more than
// one aggregate runs as a single atomic unit.
type CirculationService interface {
	// Issue lends a copy of the book to the student. durationDays of 0
	// picks the configured default; otherwise it must be within bounds.
	// remarks is a free-form librarian note stored on the loan.
	Issue(ctx context.Context, bookID, studentID string, durationDays int, remarks string) (*IssueResult, error)

	// Return closes an active loan, releases the copy, and charges the
	// late fine if the due date has passed. Non-empty remarks replace
	// the note recorded at issue time.
	Return(ctx context.Context, loanID, remarks string) (*model.Loan, error)

	// MarkLost closes an active loan as lost. The copy is presumed
	// destroyed and stays out of the pool; the student is charged the
	// replacement cost plus the processing fee.
	MarkLost(ctx context.Context, loanID string) (*model.Loan, error)

	// PayFine settles (part of) the fine on a closed loan against the
	// student's outstanding balance. Payments accumulate: the fine is
	// marked paid once they cover it, and a payment can never push the
	// settled total past the fine.
	PayFine(ctx context.Context, loanID string, amount decimal.Decimal) (*model.Loan, error)

	// Get returns a loan, refreshing its overdue status against the clock.
	Get(ctx context.Context, loanID string) (*model.Loan, error)

	// List returns loans, refreshing overdue statuses against the clock.
	List(ctx context.Context, q LoanQuery, limit, offset int) (*LoanListResult, error)

	// CheckEligibility runs the pre-issue checks without changing anything.
	CheckEligibility(ctx context.Context, bookID, studentID string) (*Eligibility, error)
}

type circulationService struct {
	store repository.Store
	cfg   policy.Config
	now   func() time.Time
}

// NewCirculationService constructs a CirculationService with the given
// policy constants.
func NewCirculationService(store repository.Store, cfg policy.Config) CirculationService {
	return &circulationService{store: store, cfg: cfg, now: time.Now}
}

func (s *circulationService) Issue(ctx context.Context, bookID, studentID string, durationDays int, remarks string) (*IssueResult, error) {
	if bookID == "" || studentID == "" {
		return nil, ErrIDRequired
	}
	if durationDays == 0 {
		durationDays = s.cfg.LoanDurationDays
	}
	if !policy.ValidDuration(durationDays) {
		return nil, fmt.Errorf("%w: duration must be between %d and %d days",
			ErrValidation, policy.MinLoanDurationDays, policy.MaxLoanDurationDays)
	}

	var result IssueResult
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repository.Tx) error {
		book, err := tx.Books().FindByID(ctx, bookID)
		if err != nil {
			return mapNoRows(err, "book")
		}
		student, err := tx.Students().FindByID(ctx, studentID)
		if err != nil {
			return mapNoRows(err, "student")
		}

		result.Warnings = s.warningsFor(student)

		if book.AvailableCopies == 0 {
			return ErrBookUnavailable
		}
		if err := tx.Books().ReserveCopy(ctx, bookID); err != nil {
			// Lost the race for the last copy.
			if errors.Is(err, repository.ErrStaleState) {
				return ErrBookUnavailable
			}
			return err
		}
		if err := tx.Students().IncrementBorrowed(ctx, studentID); err != nil {
			return mapStale(err)
		}

		now := s.now().UTC()
		loan := &model.Loan{
			ID:          uuid.New().String(),
			BookID:      bookID,
			StudentID:   studentID,
			BorrowDate:  now,
			DueDate:     now.Add(time.Duration(durationDays) * 24 * time.Hour),
			Status:      model.StatusBorrowed,
			FineAmount:  decimal.Zero,
			FineSettled: decimal.Zero,
			Remarks:     remarks,
			CreatedAt:   now,
		}
		stored, err := tx.Loans().Create(ctx, loan)
		if err != nil {
			return err
		}
		result.Loan = stored
		return nil
	})
	if err != nil {
		return nil, mapConflict(err)
	}
	return &result, nil
}

func (s *circulationService) Return(ctx context.Context, loanID, remarks string) (*model.Loan, error) {
	if loanID == "" {
		return nil, ErrIDRequired
	}

	var returned *model.Loan
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repository.Tx) error {
		loan, err := tx.Loans().FindByID(ctx, loanID)
		if err != nil {
			return mapNoRows(err, "loan")
		}
		if loan.Status.Terminal() {
			return fmt.Errorf("%w: loan is already %s", ErrInvalidTransition, loan.Status)
		}

		now := s.now().UTC()
		fine := policy.LateFine(loan.DueDate, now, s.cfg.PerDayRate)

		if err := tx.Loans().MarkReturned(ctx, loanID, now, fine, remarks); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return fmt.Errorf("%w: loan was closed concurrently", ErrInvalidTransition)
			}
			return err
		}
		if err := tx.Books().ReleaseCopy(ctx, loan.BookID); err != nil {
			return mapStale(err)
		}
		if err := tx.Students().DecrementBorrowed(ctx, loan.StudentID); err != nil {
			return mapStale(err)
		}
		if fine.IsPositive() {
			if err := tx.Students().AddFine(ctx, loan.StudentID, fine); err != nil {
				return mapStale(err)
			}
		}

		loan.Status = model.StatusReturned
		loan.ReturnDate = &now
		loan.FineAmount = fine
		if remarks != "" {
			loan.Remarks = remarks
		}
		returned = loan
		return nil
	})
	if err != nil {
		return nil, mapConflict(err)
	}
	return returned, nil
}

func (s *circulationService) MarkLost(ctx context.Context, loanID string) (*model.Loan, error) {
	if loanID == "" {
		return nil, ErrIDRequired
	}

	var lost *model.Loan
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repository.Tx) error {
		loan, err := tx.Loans().FindByID(ctx, loanID)
		if err != nil {
			return mapNoRows(err, "loan")
		}
		if loan.Status.Terminal() {
			return fmt.Errorf("%w: loan is already %s", ErrInvalidTransition, loan.Status)
		}

		book, err := tx.Books().FindByID(ctx, loan.BookID)
		if err != nil {
			return mapNoRows(err, "book")
		}
		replacement := book.Price
		if !replacement.IsPositive() {
			replacement = s.cfg.ReplacementCost
		}
		fine := policy.LostBookFine(replacement, s.cfg.ProcessingFee)

		now := s.now().UTC()
		if err := tx.Loans().MarkLost(ctx, loanID, now, fine); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return fmt.Errorf("%w: loan was closed concurrently", ErrInvalidTransition)
			}
			return err
		}
		// The copy is gone; it is not released back to the pool.
		if err := tx.Students().DecrementBorrowed(ctx, loan.StudentID); err != nil {
			return mapStale(err)
		}
		if err := tx.Students().AddFine(ctx, loan.StudentID, fine); err != nil {
			return mapStale(err)
		}

		loan.Status = model.StatusLost
		loan.ReturnDate = &now
		loan.FineAmount = fine
		lost = loan
		return nil
	})
	if err != nil {
		return nil, mapConflict(err)
	}
	return lost, nil
}

func (s *circulationService) PayFine(ctx context.Context, loanID string, amount decimal.Decimal) (*model.Loan, error) {
	if loanID == "" {
		return nil, ErrIDRequired
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}

	var paid *model.Loan
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repository.Tx) error {
		loan, err := tx.Loans().FindByID(ctx, loanID)
		if err != nil {
			return mapNoRows(err, "loan")
		}
		if !loan.Status.Terminal() {
			return fmt.Errorf("%w: fines are settled after the loan is closed", ErrInvalidTransition)
		}
		if !loan.FineAmount.IsPositive() || loan.FinePaid {
			return fmt.Errorf("%w: no outstanding fine on this loan", ErrInvalidTransition)
		}
		outstanding := loan.FineOutstanding()
		if amount.GreaterThan(outstanding) {
			return fmt.Errorf("%w: payment exceeds the outstanding fine of %s", ErrValidation, outstanding)
		}

		if err := tx.Loans().AddFinePayment(ctx, loanID, amount); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return fmt.Errorf("%w: fine was settled concurrently", ErrInvalidTransition)
			}
			return err
		}
		if err := tx.Students().SettleFine(ctx, loan.StudentID, amount); err != nil {
			return mapStale(err)
		}

		loan.FineSettled = loan.FineSettled.Add(amount)
		loan.FinePaid = loan.FineSettled.GreaterThanOrEqual(loan.FineAmount)
		paid = loan
		return nil
	})
	if err != nil {
		return nil, mapConflict(err)
	}
	return paid, nil
}

// Get refreshes the loan's overdue status lazily: there is no background
// job, the flip happens when somebody looks.
func (s *circulationService) Get(ctx context.Context, loanID string) (*model.Loan, error) {
	if loanID == "" {
		return nil, ErrIDRequired
	}
	loan, err := s.store.Loans().FindByID(ctx, loanID)
	if err != nil {
		return nil, mapNoRows(err, "loan")
	}
	if err := s.refreshOverdue(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *circulationService) List(ctx context.Context, q LoanQuery, limit, offset int) (*LoanListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.store.Loans().List(ctx,
		repository.LoanFilter{Status: q.Status, StudentID: q.StudentID, BookID: q.BookID},
		repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	for i := range res.Items {
		if err := s.refreshOverdue(ctx, &res.Items[i]); err != nil {
			return nil, err
		}
	}
	return &LoanListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *circulationService) CheckEligibility(ctx context.Context, bookID, studentID string) (*Eligibility, error) {
	if bookID == "" || studentID == "" {
		return nil, ErrIDRequired
	}
	book, err := s.store.Books().FindByID(ctx, bookID)
	if err != nil {
		return nil, mapNoRows(err, "book")
	}
	student, err := s.store.Students().FindByID(ctx, studentID)
	if err != nil {
		return nil, mapNoRows(err, "student")
	}

	el := &Eligibility{CanIssue: true, Warnings: s.warningsFor(student)}
	if book.AvailableCopies == 0 {
		el.CanIssue = false
		el.Reason = "no copies available"
	}
	return el, nil
}

// warningsFor flags the soft limits. Neither blocks an issue.
func (s *circulationService) warningsFor(student *model.Student) []Warning {
	var warnings []Warning
	if student.BorrowedBooks >= s.cfg.BorrowWarnThreshold {
		warnings = append(warnings, WarnStudentOverLimit)
	}
	if student.FinesDue.IsPositive() {
		warnings = append(warnings, WarnUnpaidFines)
	}
	return warnings
}

// refreshOverdue persists the Borrowed -> Overdue flip so later reads
// are cheap. Writing through MarkOverdue keeps the flip idempotent: a
// loan some other reader already flipped matches no row.
func (s *circulationService) refreshOverdue(ctx context.Context, loan *model.Loan) error {
	if loan.Status != model.StatusBorrowed || !policy.IsOverdue(s.now().UTC(), loan.DueDate) {
		return nil
	}
	if err := s.store.Loans().MarkOverdue(ctx, loan.ID); err != nil {
		return err
	}
	loan.Status = model.StatusOverdue
	return nil
}

func mapNoRows(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// mapStale covers counter updates that should always match a row once
// the aggregates were loaded in the same transaction.
func mapStale(err error) error {
	if errors.Is(err, repository.ErrStaleState) {
		return ErrInvariantViolation
	}
	return err
}

func mapConflict(err error) error {
	if errors.Is(err, repository.ErrConflictRetryable) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
