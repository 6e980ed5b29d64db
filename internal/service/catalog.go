package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"maktaba/internal/model"
	"maktaba/internal/repository"
)

// BookInput is the payload for adding a title to the catalog.
type BookInput struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	ISBN        string          `json:"isbn"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	TotalCopies int             `json:"total_copies"`
}

// StudentInput is the payload for registering a borrower.
type StudentInput struct {
	Name          string `json:"name"`
	RollNumber    string `json:"roll_number"`
	Grade         string `json:"grade"`
	ContactNumber string `json:"contact_number"`
	Address       string `json:"address"`
}

// BookListResult is the service-level DTO for paginated books.
type BookListResult struct {
	Items []model.Book `json:"data"`
	Total int          `json:"total"`
}

// StudentListResult is the service-level DTO for paginated students.
type StudentListResult struct {
	Items []model.Student `json:"data"`
	Total int             `json:"total"`
}

// CatalogService manages the book catalog and the student registry.
// Copy counters and fine balances are owned by the circulation service;
// this one only seeds them.
type CatalogService interface {
	AddBook(ctx context.Context, in BookInput) (*model.Book, error)
	GetBook(ctx context.Context, id string) (*model.Book, error)
	ListBooks(ctx context.Context, query, category string, limit, offset int) (*BookListResult, error)

	// UpdateBook rewrites the catalog fields. Lowering total_copies
	// below the copies currently on loan fails validation.
	UpdateBook(ctx context.Context, id string, in BookInput) (*model.Book, error)

	// DeleteBook removes a title; it is rejected while any copy is out.
	DeleteBook(ctx context.Context, id string) error

	RegisterStudent(ctx context.Context, in StudentInput) (*model.Student, error)
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	ListStudents(ctx context.Context, limit, offset int) (*StudentListResult, error)

	// UpdateStudent rewrites the registry fields, never the counters.
	UpdateStudent(ctx context.Context, id string, in StudentInput) (*model.Student, error)

	// DeleteStudent removes a student; rejected while books are out.
	DeleteStudent(ctx context.Context, id string) error
}

type catalogService struct {
	store repository.Store
	now   func() time.Time
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(store repository.Store) CatalogService {
	return &catalogService{store: store, now: time.Now}
}

func validateBookInput(in BookInput) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return fmt.Errorf("%w: title and author are required", ErrValidation)
	}
	if in.TotalCopies < 1 {
		return fmt.Errorf("%w: total_copies must be at least 1", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return nil
}

func (s *catalogService) AddBook(ctx context.Context, in BookInput) (*model.Book, error) {
	if err := validateBookInput(in); err != nil {
		return nil, err
	}

	book := &model.Book{
		ID:              uuid.New().String(),
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		ISBN:            strings.TrimSpace(in.ISBN),
		Category:        strings.TrimSpace(in.Category),
		Price:           in.Price,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies, // all copies start on the shelf
		CreatedAt:       s.now().UTC(),
	}
	return s.store.Books().Create(ctx, book)
}

func (s *catalogService) GetBook(ctx context.Context, id string) (*model.Book, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	book, err := s.store.Books().FindByID(ctx, id)
	if err != nil {
		return nil, mapNoRows(err, "book")
	}
	return book, nil
}

func (s *catalogService) ListBooks(ctx context.Context, query, category string, limit, offset int) (*BookListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.store.Books().List(ctx,
		repository.BookFilter{Query: query, Category: category},
		repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &BookListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *catalogService) UpdateBook(ctx context.Context, id string, in BookInput) (*model.Book, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if err := validateBookInput(in); err != nil {
		return nil, err
	}
	// Resolve existence first so a failed counter guard below cannot be
	// mistaken for a missing book.
	if _, err := s.store.Books().FindByID(ctx, id); err != nil {
		return nil, mapNoRows(err, "book")
	}

	updated, err := s.store.Books().Update(ctx, &model.Book{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		ISBN:        strings.TrimSpace(in.ISBN),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		TotalCopies: in.TotalCopies,
	})
	if errors.Is(err, repository.ErrStaleState) {
		return nil, fmt.Errorf("%w: total_copies cannot drop below the copies currently on loan", ErrValidation)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *catalogService) DeleteBook(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if _, err := s.store.Books().FindByID(ctx, id); err != nil {
		return mapNoRows(err, "book")
	}
	if err := s.store.Books().Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return fmt.Errorf("%w: book has copies on loan", ErrInvalidTransition)
		}
		return err
	}
	return nil
}

func (s *catalogService) RegisterStudent(ctx context.Context, in StudentInput) (*model.Student, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.RollNumber) == "" {
		return nil, fmt.Errorf("%w: name and roll_number are required", ErrValidation)
	}

	student := &model.Student{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(in.Name),
		RollNumber:    strings.TrimSpace(in.RollNumber),
		Grade:         strings.TrimSpace(in.Grade),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Address:       strings.TrimSpace(in.Address),
		BorrowedBooks: 0,
		FinesDue:      decimal.Zero,
		CreatedAt:     s.now().UTC(),
	}
	return s.store.Students().Create(ctx, student)
}

func (s *catalogService) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	student, err := s.store.Students().FindByID(ctx, id)
	if err != nil {
		return nil, mapNoRows(err, "student")
	}
	return student, nil
}

func (s *catalogService) ListStudents(ctx context.Context, limit, offset int) (*StudentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.store.Students().List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &StudentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *catalogService) UpdateStudent(ctx context.Context, id string, in StudentInput) (*model.Student, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.RollNumber) == "" {
		return nil, fmt.Errorf("%w: name and roll_number are required", ErrValidation)
	}

	updated, err := s.store.Students().Update(ctx, &model.Student{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		RollNumber:    strings.TrimSpace(in.RollNumber),
		Grade:         strings.TrimSpace(in.Grade),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Address:       strings.TrimSpace(in.Address),
	})
	if errors.Is(err, repository.ErrStaleState) {
		return nil, fmt.Errorf("%w: student", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *catalogService) DeleteStudent(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if _, err := s.store.Students().FindByID(ctx, id); err != nil {
		return mapNoRows(err, "student")
	}
	if err := s.store.Students().Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return fmt.Errorf("%w: student has books on loan", ErrInvalidTransition)
		}
		return err
	}
	return nil
}
