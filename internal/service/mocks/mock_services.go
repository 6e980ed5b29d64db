package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"maktaba/internal/model"
	"maktaba/internal/service"
)

type MockCirculationService struct {
	mock.Mock
}

func (m *MockCirculationService) Issue(ctx context.Context, bookID, studentID string, durationDays int, remarks string) (*service.IssueResult, error) {
	args := m.Called(ctx, bookID, studentID, durationDays, remarks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssueResult), args.Error(1)
}

func (m *MockCirculationService) Return(ctx context.Context, loanID, remarks string) (*model.Loan, error) {
	args := m.Called(ctx, loanID, remarks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Loan), args.Error(1)
}

func (m *MockCirculationService) MarkLost(ctx context.Context, loanID string) (*model.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Loan), args.Error(1)
}

func (m *MockCirculationService) PayFine(ctx context.Context, loanID string, amount decimal.Decimal) (*model.Loan, error) {
	args := m.Called(ctx, loanID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Loan), args.Error(1)
}

func (m *MockCirculationService) Get(ctx context.Context, loanID string) (*model.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Loan), args.Error(1)
}

func (m *MockCirculationService) List(ctx context.Context, q service.LoanQuery, limit, offset int) (*service.LoanListResult, error) {
	args := m.Called(ctx, q, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoanListResult), args.Error(1)
}

func (m *MockCirculationService) CheckEligibility(ctx context.Context, bookID, studentID string) (*service.Eligibility, error) {
	args := m.Called(ctx, bookID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Eligibility), args.Error(1)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) AddBook(ctx context.Context, in service.BookInput) (*model.Book, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockCatalogService) GetBook(ctx context.Context, id string) (*model.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockCatalogService) ListBooks(ctx context.Context, query, category string, limit, offset int) (*service.BookListResult, error) {
	args := m.Called(ctx, query, category, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BookListResult), args.Error(1)
}

func (m *MockCatalogService) UpdateBook(ctx context.Context, id string, in service.BookInput) (*model.Book, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockCatalogService) DeleteBook(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogService) RegisterStudent(ctx context.Context, in service.StudentInput) (*model.Student, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockCatalogService) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockCatalogService) ListStudents(ctx context.Context, limit, offset int) (*service.StudentListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StudentListResult), args.Error(1)
}

func (m *MockCatalogService) UpdateStudent(ctx context.Context, id string, in service.StudentInput) (*model.Student, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockCatalogService) DeleteStudent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPublicationService struct {
	mock.Mock
}

func (m *MockPublicationService) Upload(ctx context.Context, up service.PublicationUpload) (*model.Publication, error) {
	args := m.Called(ctx, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Publication), args.Error(1)
}

func (m *MockPublicationService) List(ctx context.Context, limit, offset int) (*service.PublicationListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublicationListResult), args.Error(1)
}

func (m *MockPublicationService) Get(ctx context.Context, id string) (*model.Publication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Publication), args.Error(1)
}

func (m *MockPublicationService) Update(ctx context.Context, id, title, description string) (*model.Publication, error) {
	args := m.Called(ctx, id, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Publication), args.Error(1)
}

func (m *MockPublicationService) PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockPublicationService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
