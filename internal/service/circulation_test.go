package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"maktaba/internal/model"
	"maktaba/internal/policy"
	"maktaba/internal/repository"
	repoMocks "maktaba/internal/repository/mocks"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestCirculation(ms *repoMocks.MockStore, now time.Time) *circulationService {
	return &circulationService{store: ms, cfg: policy.Default(), now: fixedClock(now)}
}

func amount(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func amountEq(n int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(amount(n)) })
}

func TestCirculationService_Issue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		bookID       string
		studentID    string
		durationDays int
		remarks      string
		setupMocks   func(ms *repoMocks.MockStore)
		wantErr      error
		checkRes     func(t *testing.T, res *IssueResult)
	}{
		{
			name:      "remarks stored on the new loan",
			bookID:    "b1",
			studentID: "s1",
			remarks:   "reference copy, handle with care",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.BooksRepo.On("FindByID", ctx, "b1").
					Return(&model.Book{ID: "b1", TotalCopies: 3, AvailableCopies: 2}, nil)
				ms.StudentsRepo.On("FindByID", ctx, "s1").
					Return(&model.Student{ID: "s1", FinesDue: decimal.Zero}, nil)
				ms.BooksRepo.On("ReserveCopy", ctx, "b1").Return(nil)
				ms.StudentsRepo.On("IncrementBorrowed", ctx, "s1").Return(nil)
				ms.LoansRepo.On("Create", ctx, mock.MatchedBy(func(l *model.Loan) bool {
					return l.Remarks == "reference copy, handle with care"
				})).Return(&model.Loan{ID: "l3"}, nil)
			},
			checkRes: func(t *testing.T, res *IssueResult) {
				assert.Equal(t, "l3", res.Loan.ID)
			},
		},
		{
			name:      "happy path with default duration",
			bookID:    "b1",
			studentID: "s1",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.BooksRepo.On("FindByID", ctx, "b1").
					Return(&model.Book{ID: "b1", TotalCopies: 3, AvailableCopies: 2}, nil)
				ms.StudentsRepo.On("FindByID", ctx, "s1").
					Return(&model.Student{ID: "s1", BorrowedBooks: 1, FinesDue: decimal.Zero}, nil)
				ms.BooksRepo.On("ReserveCopy", ctx, "b1").Return(nil)
				ms.StudentsRepo.On("IncrementBorrowed", ctx, "s1").Return(nil)
				ms.LoansRepo.On("Create", ctx, mock.MatchedBy(func(l *model.Loan) bool {
					return l.BookID == "b1" && l.StudentID == "s1" &&
						l.Status == model.StatusBorrowed &&
						l.DueDate.Equal(now.Add(14*24*time.Hour)) &&
						l.FineAmount.IsZero()
				})).Return(&model.Loan{ID: "l1", Status: model.StatusBorrowed}, nil)
			},
			checkRes: func(t *testing.T, res *IssueResult) {
				assert.Equal(t, "l1", res.Loan.ID)
				assert.Empty(t, res.Warnings)
			},
		},
		{
			name:         "warnings reported but do not block",
			bookID:       "b1",
			studentID:    "s1",
			durationDays: 7,
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.BooksRepo.On("FindByID", ctx, "b1").
					Return(&model.Book{ID: "b1", TotalCopies: 3, AvailableCopies: 1}, nil)
				ms.StudentsRepo.On("FindByID", ctx, "s1").
					Return(&model.Student{ID: "s1", BorrowedBooks: 3, FinesDue: amount(25)}, nil)
				ms.BooksRepo.On("ReserveCopy", ctx, "b1").Return(nil)
				ms.StudentsRepo.On("IncrementBorrowed", ctx, "s1").Return(nil)
				ms.LoansRepo.On("Create", ctx, mock.MatchedBy(func(l *model.Loan) bool {
					return l.DueDate.Equal(now.Add(7 * 24 * time.Hour))
				})).Return(&model.Loan{ID: "l2"}, nil)
			},
			checkRes: func(t *testing.T, res *IssueResult) {
				assert.ElementsMatch(t, []Warning{WarnStudentOverLimit, WarnUnpaidFines}, res.Warnings)
			},
		},
		{
			name:      "no copies available",
			bookID:    "b1",
			studentID: "s1",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.BooksRepo.On("FindByID", ctx, "b1").
					Return(&model.Book{ID: "b1", TotalCopies: 3, AvailableCopies: 0}, nil)
				ms.StudentsRepo.On("FindByID", ctx, "s1").
					Return(&model.Student{ID: "s1"}, nil)
			},
			wantErr: ErrBookUnavailable,
		},
		{
			name:      "lost the race for the last copy",
			bookID:    "b1",
			studentID: "s1",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.BooksRepo.On("FindByID", ctx, "b1").
					Return(&model.Book{ID: "b1", TotalCopies: 3, AvailableCopies: 1}, nil)
				ms.StudentsRepo.On("FindByID", ctx, "s1").
					Return(&model.Student{ID: "s1"}, nil)
				ms.BooksRepo.On("ReserveCopy", ctx, "b1").Return(repository.ErrStaleState)
			},
			wantErr: ErrBookUnavailable,
		},
		{
			name:       "book not found",
			bookID:     "nope",
			studentID:  "s1",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.BooksRepo.On("FindByID", ctx, "nope").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:         "duration out of bounds",
			bookID:       "b1",
			studentID:    "s1",
			durationDays: 45,
			setupMocks:   func(ms *repoMocks.MockStore) {},
			wantErr:      ErrValidation,
		},
		{
			name:       "missing ids",
			bookID:     "",
			studentID:  "s1",
			setupMocks: func(ms *repoMocks.MockStore) {},
			wantErr:    ErrIDRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := repoMocks.NewMockStore()
			tt.setupMocks(ms)
			svc := newTestCirculation(ms, now)

			res, err := svc.Issue(ctx, tt.bookID, tt.studentID, tt.durationDays, tt.remarks)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				if tt.checkRes != nil {
					tt.checkRes(t, res)
				}
			}
			ms.AssertExpectations(t)
		})
	}
}

func TestCirculationService_Return(t *testing.T) {
	ctx := context.Background()
	due := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	activeLoan := func(status model.LoanStatus) *model.Loan {
		return &model.Loan{
			ID: "l1", BookID: "b1", StudentID: "s1",
			BorrowDate: due.Add(-14 * 24 * time.Hour),
			DueDate:    due,
			Status:     status,
			FineAmount: decimal.Zero,
		}
	}

	tests := []struct {
		name       string
		now        time.Time
		remarks    string
		setupMocks func(ms *repoMocks.MockStore)
		wantErr    error
		wantFine   int64
	}{
		{
			name:    "return remarks are recorded",
			now:     due.Add(-2 * time.Hour),
			remarks: "cover torn",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(activeLoan(model.StatusBorrowed), nil)
				ms.LoansRepo.On("MarkReturned", ctx, "l1", due.Add(-2*time.Hour), amountEq(0), "cover torn").Return(nil)
				ms.BooksRepo.On("ReleaseCopy", ctx, "b1").Return(nil)
				ms.StudentsRepo.On("DecrementBorrowed", ctx, "s1").Return(nil)
			},
			wantFine: 0,
		},
		{
			name: "on time return carries no fine",
			now:  due.Add(-2 * time.Hour),
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(activeLoan(model.StatusBorrowed), nil)
				ms.LoansRepo.On("MarkReturned", ctx, "l1", due.Add(-2*time.Hour), amountEq(0), "").Return(nil)
				ms.BooksRepo.On("ReleaseCopy", ctx, "b1").Return(nil)
				ms.StudentsRepo.On("DecrementBorrowed", ctx, "s1").Return(nil)
			},
			wantFine: 0,
		},
		{
			name: "five days late charges 25",
			now:  due.Add(5 * 24 * time.Hour),
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(activeLoan(model.StatusOverdue), nil)
				ms.LoansRepo.On("MarkReturned", ctx, "l1", due.Add(5*24*time.Hour), amountEq(25), "").Return(nil)
				ms.BooksRepo.On("ReleaseCopy", ctx, "b1").Return(nil)
				ms.StudentsRepo.On("DecrementBorrowed", ctx, "s1").Return(nil)
				ms.StudentsRepo.On("AddFine", ctx, "s1", amountEq(25)).Return(nil)
			},
			wantFine: 25,
		},
		{
			name: "ten days late charges 50",
			now:  due.Add(10 * 24 * time.Hour),
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(activeLoan(model.StatusOverdue), nil)
				ms.LoansRepo.On("MarkReturned", ctx, "l1", due.Add(10*24*time.Hour), amountEq(50), "").Return(nil)
				ms.BooksRepo.On("ReleaseCopy", ctx, "b1").Return(nil)
				ms.StudentsRepo.On("DecrementBorrowed", ctx, "s1").Return(nil)
				ms.StudentsRepo.On("AddFine", ctx, "s1", amountEq(50)).Return(nil)
			},
			wantFine: 50,
		},
		{
			name: "an hour late counts as a full day",
			now:  due.Add(time.Hour),
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(activeLoan(model.StatusBorrowed), nil)
				ms.LoansRepo.On("MarkReturned", ctx, "l1", due.Add(time.Hour), amountEq(5), "").Return(nil)
				ms.BooksRepo.On("ReleaseCopy", ctx, "b1").Return(nil)
				ms.StudentsRepo.On("DecrementBorrowed", ctx, "s1").Return(nil)
				ms.StudentsRepo.On("AddFine", ctx, "s1", amountEq(5)).Return(nil)
			},
			wantFine: 5,
		},
		{
			name: "double return rejected",
			now:  due,
			setupMocks: func(ms *repoMocks.MockStore) {
				returned := activeLoan(model.StatusReturned)
				rd := due.Add(-time.Hour)
				returned.ReturnDate = &rd
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(returned, nil)
			},
			wantErr: ErrInvalidTransition,
		},
		{
			name: "closed concurrently between read and update",
			now:  due,
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(activeLoan(model.StatusBorrowed), nil)
				ms.LoansRepo.On("MarkReturned", ctx, "l1", due, amountEq(0), "").
					Return(repository.ErrStaleState)
			},
			wantErr: ErrInvalidTransition,
		},
		{
			name: "loan not found",
			now:  due,
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := repoMocks.NewMockStore()
			tt.setupMocks(ms)
			svc := newTestCirculation(ms, tt.now)

			loan, err := svc.Return(ctx, "l1", tt.remarks)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.StatusReturned, loan.Status)
				assert.NotNil(t, loan.ReturnDate)
				assert.True(t, loan.FineAmount.Equal(amount(tt.wantFine)),
					"fine = %s, want %d", loan.FineAmount, tt.wantFine)
				if tt.remarks != "" {
					assert.Equal(t, tt.remarks, loan.Remarks)
				}
			}
			ms.AssertExpectations(t)
		})
	}
}

func TestCirculationService_MarkLost(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	loan := func() *model.Loan {
		return &model.Loan{
			ID: "l1", BookID: "b1", StudentID: "s1",
			DueDate: now.Add(24 * time.Hour),
			Status:  model.StatusBorrowed,
		}
	}

	tests := []struct {
		name       string
		setupMocks func(ms *repoMocks.MockStore)
		wantErr    error
		wantFine   int64
	}{
		{
			name: "priced book charges price plus processing fee",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(loan(), nil)
				ms.BooksRepo.On("FindByID", ctx, "b1").
					Return(&model.Book{ID: "b1", Price: amount(250)}, nil)
				ms.LoansRepo.On("MarkLost", ctx, "l1", now, amountEq(350)).Return(nil)
				ms.StudentsRepo.On("DecrementBorrowed", ctx, "s1").Return(nil)
				ms.StudentsRepo.On("AddFine", ctx, "s1", amountEq(350)).Return(nil)
			},
			wantFine: 350,
		},
		{
			name: "unpriced book falls back to the configured replacement cost",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(loan(), nil)
				ms.BooksRepo.On("FindByID", ctx, "b1").
					Return(&model.Book{ID: "b1", Price: decimal.Zero}, nil)
				ms.LoansRepo.On("MarkLost", ctx, "l1", now, amountEq(600)).Return(nil)
				ms.StudentsRepo.On("DecrementBorrowed", ctx, "s1").Return(nil)
				ms.StudentsRepo.On("AddFine", ctx, "s1", amountEq(600)).Return(nil)
			},
			wantFine: 600,
		},
		{
			name: "already closed loan rejected",
			setupMocks: func(ms *repoMocks.MockStore) {
				closed := loan()
				closed.Status = model.StatusLost
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(closed, nil)
			},
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := repoMocks.NewMockStore()
			tt.setupMocks(ms)
			svc := newTestCirculation(ms, now)

			lost, err := svc.MarkLost(ctx, "l1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.StatusLost, lost.Status)
				assert.True(t, lost.FineAmount.Equal(amount(tt.wantFine)))
			}
			// The copy stays out of the pool: no ReleaseCopy expectation
			// is ever set, so a stray call would fail the mock.
			ms.AssertExpectations(t)
		})
	}
}

func TestCirculationService_PayFine(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

	finedLoan := func() *model.Loan {
		rd := now.Add(-24 * time.Hour)
		return &model.Loan{
			ID: "l1", BookID: "b1", StudentID: "s1",
			Status:     model.StatusReturned,
			ReturnDate: &rd,
			FineAmount: amount(50),
		}
	}

	tests := []struct {
		name        string
		amount      decimal.Decimal
		setupMocks  func(ms *repoMocks.MockStore)
		wantErr     error
		wantPaid    bool
		wantSettled int64
	}{
		{
			name:   "full payment marks the fine paid",
			amount: amount(50),
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(finedLoan(), nil)
				ms.LoansRepo.On("AddFinePayment", ctx, "l1", amountEq(50)).Return(nil)
				ms.StudentsRepo.On("SettleFine", ctx, "s1", amountEq(50)).Return(nil)
			},
			wantPaid:    true,
			wantSettled: 50,
		},
		{
			name:   "partial payment keeps the fine open",
			amount: amount(20),
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(finedLoan(), nil)
				ms.LoansRepo.On("AddFinePayment", ctx, "l1", amountEq(20)).Return(nil)
				ms.StudentsRepo.On("SettleFine", ctx, "s1", amountEq(20)).Return(nil)
			},
			wantPaid:    false,
			wantSettled: 20,
		},
		{
			name:   "second partial that reaches the fine marks it paid",
			amount: amount(30),
			setupMocks: func(ms *repoMocks.MockStore) {
				partial := finedLoan()
				partial.FineSettled = amount(20)
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(partial, nil)
				ms.LoansRepo.On("AddFinePayment", ctx, "l1", amountEq(30)).Return(nil)
				ms.StudentsRepo.On("SettleFine", ctx, "s1", amountEq(30)).Return(nil)
			},
			wantPaid:    true,
			wantSettled: 50,
		},
		{
			name:   "payment above the outstanding balance rejected",
			amount: amount(40),
			setupMocks: func(ms *repoMocks.MockStore) {
				partial := finedLoan()
				partial.FineSettled = amount(20)
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(partial, nil)
			},
			wantErr: ErrValidation,
		},
		{
			name:   "payment above the fine rejected",
			amount: amount(60),
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(finedLoan(), nil)
			},
			wantErr: ErrValidation,
		},
		{
			name:   "fine settled concurrently between read and update",
			amount: amount(50),
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(finedLoan(), nil)
				ms.LoansRepo.On("AddFinePayment", ctx, "l1", amountEq(50)).
					Return(repository.ErrStaleState)
			},
			wantErr: ErrInvalidTransition,
		},
		{
			name:   "active loan has nothing to settle yet",
			amount: amount(10),
			setupMocks: func(ms *repoMocks.MockStore) {
				active := finedLoan()
				active.Status = model.StatusOverdue
				active.ReturnDate = nil
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(active, nil)
			},
			wantErr: ErrInvalidTransition,
		},
		{
			name:   "already settled fine rejected",
			amount: amount(50),
			setupMocks: func(ms *repoMocks.MockStore) {
				settled := finedLoan()
				settled.FinePaid = true
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(settled, nil)
			},
			wantErr: ErrInvalidTransition,
		},
		{
			name:       "non-positive amount rejected",
			amount:     decimal.Zero,
			setupMocks: func(ms *repoMocks.MockStore) {},
			wantErr:    ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := repoMocks.NewMockStore()
			tt.setupMocks(ms)
			svc := newTestCirculation(ms, now)

			loan, err := svc.PayFine(ctx, "l1", tt.amount)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantPaid, loan.FinePaid)
				assert.True(t, loan.FineSettled.Equal(amount(tt.wantSettled)),
					"settled = %s, want %d", loan.FineSettled, tt.wantSettled)
			}
			ms.AssertExpectations(t)
		})
	}
}

func TestCirculationService_OverdueRefresh(t *testing.T) {
	ctx := context.Background()
	due := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		now        time.Time
		loan       *model.Loan
		setupMocks func(ms *repoMocks.MockStore, loan *model.Loan)
		wantStatus model.LoanStatus
	}{
		{
			name: "borrowed past due flips to overdue",
			now:  due.Add(time.Hour),
			loan: &model.Loan{ID: "l1", DueDate: due, Status: model.StatusBorrowed},
			setupMocks: func(ms *repoMocks.MockStore, loan *model.Loan) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(loan, nil)
				ms.LoansRepo.On("MarkOverdue", ctx, "l1").Return(nil)
			},
			wantStatus: model.StatusOverdue,
		},
		{
			name: "borrowed before due stays borrowed",
			now:  due.Add(-time.Hour),
			loan: &model.Loan{ID: "l1", DueDate: due, Status: model.StatusBorrowed},
			setupMocks: func(ms *repoMocks.MockStore, loan *model.Loan) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(loan, nil)
			},
			wantStatus: model.StatusBorrowed,
		},
		{
			name: "already overdue is not flipped again",
			now:  due.Add(48 * time.Hour),
			loan: &model.Loan{ID: "l1", DueDate: due, Status: model.StatusOverdue},
			setupMocks: func(ms *repoMocks.MockStore, loan *model.Loan) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(loan, nil)
			},
			wantStatus: model.StatusOverdue,
		},
		{
			name: "returned loan is left alone",
			now:  due.Add(48 * time.Hour),
			loan: &model.Loan{ID: "l1", DueDate: due, Status: model.StatusReturned},
			setupMocks: func(ms *repoMocks.MockStore, loan *model.Loan) {
				ms.LoansRepo.On("FindByID", ctx, "l1").Return(loan, nil)
			},
			wantStatus: model.StatusReturned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := repoMocks.NewMockStore()
			tt.setupMocks(ms, tt.loan)
			svc := newTestCirculation(ms, tt.now)

			loan, err := svc.Get(ctx, "l1")

			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, loan.Status)
			ms.AssertExpectations(t)
		})
	}
}

func TestCirculationService_List(t *testing.T) {
	ctx := context.Background()
	due := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	now := due.Add(24 * time.Hour)

	ms := repoMocks.NewMockStore()
	ms.LoansRepo.On("List", ctx,
		repository.LoanFilter{StudentID: "s1"},
		repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Loan]{
			Items: []model.Loan{
				{ID: "l1", DueDate: due, Status: model.StatusBorrowed},
				{ID: "l2", DueDate: now.Add(24 * time.Hour), Status: model.StatusBorrowed},
			},
			Total: 2,
		}, nil)
	ms.LoansRepo.On("MarkOverdue", ctx, "l1").Return(nil)

	svc := newTestCirculation(ms, now)
	res, err := svc.List(ctx, LoanQuery{StudentID: "s1"}, 0, -1)

	assert.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, model.StatusOverdue, res.Items[0].Status)
	assert.Equal(t, model.StatusBorrowed, res.Items[1].Status)
	ms.AssertExpectations(t)
}

func TestCirculationService_CheckEligibility(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMocks func(ms *repoMocks.MockStore)
		wantIssue  bool
		wantWarns  []Warning
	}{
		{
			name: "copies available and clean record",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.BooksRepo.On("FindByID", ctx, "b1").
					Return(&model.Book{ID: "b1", AvailableCopies: 2}, nil)
				ms.StudentsRepo.On("FindByID", ctx, "s1").
					Return(&model.Student{ID: "s1"}, nil)
			},
			wantIssue: true,
		},
		{
			name: "no copies blocks, fines only warn",
			setupMocks: func(ms *repoMocks.MockStore) {
				ms.BooksRepo.On("FindByID", ctx, "b1").
					Return(&model.Book{ID: "b1", AvailableCopies: 0}, nil)
				ms.StudentsRepo.On("FindByID", ctx, "s1").
					Return(&model.Student{ID: "s1", FinesDue: amount(30)}, nil)
			},
			wantIssue: false,
			wantWarns: []Warning{WarnUnpaidFines},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := repoMocks.NewMockStore()
			tt.setupMocks(ms)
			svc := newTestCirculation(ms, now)

			el, err := svc.CheckEligibility(ctx, "b1", "s1")

			assert.NoError(t, err)
			assert.Equal(t, tt.wantIssue, el.CanIssue)
			assert.ElementsMatch(t, tt.wantWarns, el.Warnings)
			ms.AssertExpectations(t)
		})
	}
}

func TestCirculationService_ConflictMapping(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ms := repoMocks.NewMockStore()
	ms.AtomicErr = errors.Join(repository.ErrConflictRetryable, errors.New("serialization failure"))

	svc := newTestCirculation(ms, now)
	_, err := svc.Return(ctx, "l1", "")

	assert.ErrorIs(t, err, ErrConflict)
}
