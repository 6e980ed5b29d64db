package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"maktaba/internal/repository"
)

// MockStore wires the repository mocks together behind the Store
// interface. RunAtomic executes fn against the same mocks, so a test
// sets expectations once and they hold inside and outside the unit;
// set AtomicErr to simulate a commit failure instead.
type MockStore struct {
	BooksRepo        *MockBookRepository
	StudentsRepo     *MockStudentRepository
	LoansRepo        *MockLoanRepository
	PublicationsRepo *MockPublicationRepository
	AtomicErr        error
}

func NewMockStore() *MockStore {
	return &MockStore{
		BooksRepo:        new(MockBookRepository),
		StudentsRepo:     new(MockStudentRepository),
		LoansRepo:        new(MockLoanRepository),
		PublicationsRepo: new(MockPublicationRepository),
	}
}

var _ repository.Store = (*MockStore)(nil)

func (m *MockStore) Books() repository.BookRepository { return m.BooksRepo }

func (m *MockStore) Students() repository.StudentRepository { return m.StudentsRepo }

func (m *MockStore) Loans() repository.LoanRepository { return m.LoansRepo }

func (m *MockStore) Publications() repository.PublicationRepository { return m.PublicationsRepo }

func (m *MockStore) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.AtomicErr != nil {
		return m.AtomicErr
	}
	return fn(ctx, m)
}

// AssertExpectations verifies every repository mock.
func (m *MockStore) AssertExpectations(t mock.TestingT) {
	m.BooksRepo.AssertExpectations(t)
	m.StudentsRepo.AssertExpectations(t)
	m.LoansRepo.AssertExpectations(t)
	m.PublicationsRepo.AssertExpectations(t)
}
