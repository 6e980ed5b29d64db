package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"maktaba/internal/model"
	"maktaba/internal/repository"
)

// StudentPostgres is a PostgreSQL implementation of repository.StudentRepository.
type StudentPostgres struct {
	db dbtx
}

// NewStudentPostgres creates a new StudentPostgres repository.
func NewStudentPostgres(db dbtx) *StudentPostgres {
	return &StudentPostgres{db: db}
}

var _ repository.StudentRepository = (*StudentPostgres)(nil)

const studentColumns = `id, name, roll_number, grade, contact_number, address, borrowed_books, fines_due, created_at`

func scanStudent(row interface{ Scan(...any) error }) (*model.Student, error) {
	var s model.Student
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.RollNumber,
		&s.Grade,
		&s.ContactNumber,
		&s.Address,
		&s.BorrowedBooks,
		&s.FinesDue,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new student row and returns the stored record.
func (r *StudentPostgres) Create(ctx context.Context, student *model.Student) (*model.Student, error) {
	const q = `
		INSERT INTO students (id, name, roll_number, grade, contact_number, address, borrowed_books, fines_due, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + studentColumns
	row := r.db.QueryRowContext(ctx, q,
		student.ID,
		student.Name,
		student.RollNumber,
		student.Grade,
		student.ContactNumber,
		student.Address,
		student.BorrowedBooks,
		student.FinesDue,
		student.CreatedAt,
	)
	return scanStudent(row)
}

// FindByID fetches a single student by its ID.
func (r *StudentPostgres) FindByID(ctx context.Context, id string) (*model.Student, error) {
	const q = `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return scanStudent(r.db.QueryRowContext(ctx, q, id))
}

// List returns students using LIMIT/OFFSET pagination and a total count.
func (r *StudentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Student], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&total); err != nil {
		return nil, err
	}

	const q = `SELECT ` + studentColumns + ` FROM students
		ORDER BY name ASC, id ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Student]{Items: items, Total: total}, nil
}

// Update rewrites the registry fields. The borrowed and fine counters
// belong to circulation and are not touched.
func (r *StudentPostgres) Update(ctx context.Context, student *model.Student) (*model.Student, error) {
	const q = `
		UPDATE students
		SET name = $2, roll_number = $3, grade = $4, contact_number = $5, address = $6
		WHERE id = $1
		RETURNING ` + studentColumns
	s, err := scanStudent(r.db.QueryRowContext(ctx, q,
		student.ID,
		student.Name,
		student.RollNumber,
		student.Grade,
		student.ContactNumber,
		student.Address,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrStaleState
	}
	return s, err
}

// Delete removes a student only while no books are out against them.
func (r *StudentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM students WHERE id = $1 AND borrowed_books = 0`
	return guardedExec(ctx, r.db, q, id)
}

// IncrementBorrowed bumps the active-loan counter by one.
func (r *StudentPostgres) IncrementBorrowed(ctx context.Context, id string) error {
	const q = `UPDATE students SET borrowed_books = borrowed_books + 1 WHERE id = $1`
	return guardedExec(ctx, r.db, q, id)
}

// DecrementBorrowed lowers the counter by one, clamped at zero.
func (r *StudentPostgres) DecrementBorrowed(ctx context.Context, id string) error {
	const q = `UPDATE students SET borrowed_books = GREATEST(borrowed_books - 1, 0) WHERE id = $1`
	return guardedExec(ctx, r.db, q, id)
}

// AddFine raises fines_due by amount.
func (r *StudentPostgres) AddFine(ctx context.Context, id string, amount decimal.Decimal) error {
	const q = `UPDATE students SET fines_due = fines_due + $2 WHERE id = $1`
	return guardedExec(ctx, r.db, q, id, amount)
}

// SettleFine lowers fines_due by amount, clamped at zero.
func (r *StudentPostgres) SettleFine(ctx context.Context, id string, amount decimal.Decimal) error {
	const q = `UPDATE students SET fines_due = GREATEST(fines_due - $2, 0) WHERE id = $1`
	return guardedExec(ctx, r.db, q, id, amount)
}
