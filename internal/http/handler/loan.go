package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"maktaba/internal/model"
	"maktaba/internal/service"
)

type issueRequest struct {
	BookID       string `json:"book_id"`
	StudentID    string `json:"student_id"`
	DurationDays int    `json:"duration_days"`
	Remarks      string `json:"remarks"`
}

type returnRequest struct {
	Remarks string `json:"remarks"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// IssueLoan godoc
//
//	@Summary	Issue a book to a student
//	@Tags		loans
//	@Accept		json
//	@Produce	json
//	@Param		loan	body		issueRequest	true	"Issue payload"
//	@Success	201		{object}	service.IssueResult
//	@Failure	409		{object}	errorPayload
//	@Router		/loans [post]
func IssueLoan(svc service.CirculationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req issueRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if _, err := uuid.Parse(req.BookID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid book_id format")
		}
		if _, err := uuid.Parse(req.StudentID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid student_id format")
		}
		res, err := svc.Issue(c.UserContext(), req.BookID, req.StudentID, req.DurationDays, req.Remarks)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ReturnLoan godoc
//
//	@Summary	Return a borrowed book
//	@Tags		loans
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Loan ID"
//	@Param		return	body		returnRequest	false	"Return payload"
//	@Success	200		{object}	model.Loan
//	@Failure	409		{object}	errorPayload
//	@Router		/loans/{id}/return [post]
func ReturnLoan(svc service.CirculationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req returnRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
			}
		}
		loan, err := svc.Return(c.UserContext(), id, req.Remarks)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(loan)
	}
}

// ReportLost godoc
//
//	@Summary	Report a borrowed book as lost
//	@Tags		loans
//	@Produce	json
//	@Param		id	path		string	true	"Loan ID"
//	@Success	200	{object}	model.Loan
//	@Failure	409	{object}	errorPayload
//	@Router		/loans/{id}/lost [post]
func ReportLost(svc service.CirculationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		loan, err := svc.MarkLost(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(loan)
	}
}

// PayFine godoc
//
//	@Summary	Pay a fine on a closed loan
//	@Tags		loans
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Loan ID"
//	@Param		payment	body		paymentRequest	true	"Payment payload"
//	@Success	200		{object}	model.Loan
//	@Failure	422		{object}	errorPayload
//	@Router		/loans/{id}/payments [post]
func PayFine(svc service.CirculationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req paymentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		loan, err := svc.PayFine(c.UserContext(), id, req.Amount)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(loan)
	}
}

// GetLoan godoc
//
//	@Summary	Get a loan by ID
//	@Tags		loans
//	@Produce	json
//	@Param		id	path		string	true	"Loan ID"
//	@Success	200	{object}	model.Loan
//	@Failure	404	{object}	errorPayload
//	@Router		/loans/{id} [get]
func GetLoan(svc service.CirculationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		loan, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(loan)
	}
}

// ListLoans godoc
//
//	@Summary	List loans with optional filters
//	@Tags		loans
//	@Produce	json
//	@Param		status		query		string	false	"Loan status"
//	@Param		student_id	query		string	false	"Student ID"
//	@Param		book_id		query		string	false	"Book ID"
//	@Param		limit		query		int		false	"Page size"
//	@Param		offset		query		int		false	"Page offset"
//	@Success	200			{object}	service.LoanListResult
//	@Router		/loans [get]
func ListLoans(svc service.CirculationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		q := service.LoanQuery{
			Status:    model.LoanStatus(c.Query("status")),
			StudentID: c.Query("student_id"),
			BookID:    c.Query("book_id"),
		}
		res, err := svc.List(c.UserContext(), q, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// CheckEligibility godoc
//
//	@Summary	Pre-issue eligibility check
//	@Tags		loans
//	@Produce	json
//	@Param		book_id		query		string	true	"Book ID"
//	@Param		student_id	query		string	true	"Student ID"
//	@Success	200			{object}	service.Eligibility
//	@Failure	404			{object}	errorPayload
//	@Router		/circulation/eligibility [get]
func CheckEligibility(svc service.CirculationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bookID, studentID := c.Query("book_id"), c.Query("student_id")
		if _, err := uuid.Parse(bookID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid book_id format")
		}
		if _, err := uuid.Parse(studentID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid student_id format")
		}
		el, err := svc.CheckEligibility(c.UserContext(), bookID, studentID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(el)
	}
}
