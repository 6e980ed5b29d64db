package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"maktaba/internal/model"
	"maktaba/internal/repository"
)

// LoanPostgres is a PostgreSQL implementation of repository.LoanRepository.
// State transitions are compare-and-swap updates on the status column:
// the WHERE clause names the statuses the transition is legal from, so
// of two racing transitions exactly one matches a row.
type LoanPostgres struct {
	db dbtx
}

// NewLoanPostgres creates a new LoanPostgres repository.
func NewLoanPostgres(db dbtx) *LoanPostgres {
	return &LoanPostgres{db: db}
}

var _ repository.LoanRepository = (*LoanPostgres)(nil)

const loanColumns = `id, book_id, student_id, borrow_date, due_date, return_date, status, fine_amount, fine_settled, fine_paid, remarks, created_at`

func scanLoan(row interface{ Scan(...any) error }) (*model.Loan, error) {
	var l model.Loan
	if err := row.Scan(
		&l.ID,
		&l.BookID,
		&l.StudentID,
		&l.BorrowDate,
		&l.DueDate,
		&l.ReturnDate,
		&l.Status,
		&l.FineAmount,
		&l.FineSettled,
		&l.FinePaid,
		&l.Remarks,
		&l.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a new loan row and returns the stored record.
func (r *LoanPostgres) Create(ctx context.Context, loan *model.Loan) (*model.Loan, error) {
	const q = `
		INSERT INTO loans (id, book_id, student_id, borrow_date, due_date, return_date, status, fine_amount, fine_settled, fine_paid, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + loanColumns
	row := r.db.QueryRowContext(ctx, q,
		loan.ID,
		loan.BookID,
		loan.StudentID,
		loan.BorrowDate,
		loan.DueDate,
		loan.ReturnDate,
		loan.Status,
		loan.FineAmount,
		loan.FineSettled,
		loan.FinePaid,
		loan.Remarks,
		loan.CreatedAt,
	)
	return scanLoan(row)
}

// FindByID fetches a single loan by its ID.
func (r *LoanPostgres) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	const q = `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return scanLoan(r.db.QueryRowContext(ctx, q, id))
}

// List returns loans using LIMIT/OFFSET pagination and a total count.
// Zero-valued filter fields are ignored.
func (r *LoanPostgres) List(ctx context.Context, f repository.LoanFilter, pq repository.PageQuery) (*repository.PageResult[model.Loan], error) {
	const where = `
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR student_id::text = $2)
		  AND ($3 = '' OR book_id::text = $3)
	`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans`+where,
		string(f.Status), f.StudentID, f.BookID).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + loanColumns + ` FROM loans` + where + `
		ORDER BY borrow_date DESC, id DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.db.QueryContext(ctx, q, string(f.Status), f.StudentID, f.BookID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Loan]{Items: items, Total: total}, nil
}

// MarkReturned closes an active loan as Returned. Empty remarks keep
// whatever was recorded at issue time.
func (r *LoanPostgres) MarkReturned(ctx context.Context, id string, returnDate time.Time, fine decimal.Decimal, remarks string) error {
	const q = `
		UPDATE loans
		SET status = 'Returned', return_date = $2, fine_amount = $3,
		    remarks = CASE WHEN $4 = '' THEN remarks ELSE $4 END
		WHERE id = $1 AND status IN ('Borrowed', 'Overdue')
	`
	return guardedExec(ctx, r.db, q, id, returnDate, fine, remarks)
}

// MarkLost closes an active loan as Lost.
func (r *LoanPostgres) MarkLost(ctx context.Context, id string, returnDate time.Time, fine decimal.Decimal) error {
	const q = `
		UPDATE loans
		SET status = 'Lost', return_date = $2, fine_amount = $3
		WHERE id = $1 AND status IN ('Borrowed', 'Overdue')
	`
	return guardedExec(ctx, r.db, q, id, returnDate, fine)
}

// MarkOverdue flips Borrowed to Overdue. A loan already Overdue or
// terminal matches no row and that is fine: the flip is idempotent.
func (r *LoanPostgres) MarkOverdue(ctx context.Context, id string) error {
	const q = `UPDATE loans SET status = 'Overdue' WHERE id = $1 AND status = 'Borrowed'`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// AddFinePayment accumulates a payment against the fine. fine_paid
// flips in the same statement the moment the fine is fully covered, so
// two partial payments that sum to the fine settle it without a
// separate full payment ever being needed.
func (r *LoanPostgres) AddFinePayment(ctx context.Context, id string, amount decimal.Decimal) error {
	const q = `
		UPDATE loans
		SET fine_settled = fine_settled + $2,
		    fine_paid = fine_settled + $2 >= fine_amount
		WHERE id = $1 AND fine_amount > 0 AND fine_paid = FALSE
		  AND fine_settled + $2 <= fine_amount
	`
	return guardedExec(ctx, r.db, q, id, amount)
}
