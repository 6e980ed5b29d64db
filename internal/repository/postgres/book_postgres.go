package postgres

import (
	"context"
	"database/sql"
	"errors"

	"maktaba/internal/model"
	"maktaba/internal/repository"
)

// BookPostgres is a PostgreSQL implementation of repository.BookRepository.
type BookPostgres struct {
	db dbtx
}

// NewBookPostgres creates a new BookPostgres repository.
func NewBookPostgres(db dbtx) *BookPostgres {
	return &BookPostgres{db: db}
}

var _ repository.BookRepository = (*BookPostgres)(nil)

const bookColumns = `id, title, author, isbn, category, price, total_copies, available_copies, created_at`

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	var b model.Book
	if err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.ISBN,
		&b.Category,
		&b.Price,
		&b.TotalCopies,
		&b.AvailableCopies,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new book row and returns the stored record.
func (r *BookPostgres) Create(ctx context.Context, book *model.Book) (*model.Book, error) {
	const q = `
		INSERT INTO books (id, title, author, isbn, category, price, total_copies, available_copies, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + bookColumns
	row := r.db.QueryRowContext(ctx, q,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Category,
		book.Price,
		book.TotalCopies,
		book.AvailableCopies,
		book.CreatedAt,
	)
	return scanBook(row)
}

// FindByID fetches a single book by its ID.
func (r *BookPostgres) FindByID(ctx context.Context, id string) (*model.Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

// List returns books using LIMIT/OFFSET pagination and a total count.
// Query matches title or author case-insensitively; category matches exactly.
func (r *BookPostgres) List(ctx context.Context, f repository.BookFilter, pq repository.PageQuery) (*repository.PageResult[model.Book], error) {
	const where = `
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
	`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, f.Query, f.Category).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + bookColumns + ` FROM books` + where + `
		ORDER BY title ASC, id ASC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, q, f.Query, f.Category, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Book]{Items: items, Total: total}, nil
}

// Update rewrites the catalog fields. The total_copies delta is applied
// to available_copies in the same statement; the guard rejects a new
// total below the copies currently on loan, which would break the
// 0 <= available <= total ledger bound.
func (r *BookPostgres) Update(ctx context.Context, book *model.Book) (*model.Book, error) {
	const q = `
		UPDATE books
		SET title = $2, author = $3, isbn = $4, category = $5, price = $6,
		    available_copies = available_copies + ($7 - total_copies),
		    total_copies = $7
		WHERE id = $1 AND $7 >= total_copies - available_copies
		RETURNING ` + bookColumns
	b, err := scanBook(r.db.QueryRowContext(ctx, q,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Category,
		book.Price,
		book.TotalCopies,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrStaleState
	}
	return b, err
}

// Delete removes a book only while every copy is on the shelf, so no
// active loan can reference a missing book.
func (r *BookPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM books WHERE id = $1 AND available_copies = total_copies`
	return guardedExec(ctx, r.db, q, id)
}

// ReserveCopy takes one copy off the shelf. The predicate keeps the
// counter from ever going negative; zero affected rows means no copy
// was left (or the book is gone).
func (r *BookPostgres) ReserveCopy(ctx context.Context, id string) error {
	const q = `
		UPDATE books
		SET available_copies = available_copies - 1
		WHERE id = $1 AND available_copies > 0
	`
	return guardedExec(ctx, r.db, q, id)
}

// ReleaseCopy puts one copy back, clamped at total_copies so a stray
// double release cannot push the counter past the owned stock.
func (r *BookPostgres) ReleaseCopy(ctx context.Context, id string) error {
	const q = `
		UPDATE books
		SET available_copies = LEAST(available_copies + 1, total_copies)
		WHERE id = $1
	`
	return guardedExec(ctx, r.db, q, id)
}
