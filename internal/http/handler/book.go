package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"maktaba/internal/service"
)

// AddBook godoc
//
//	@Summary	Add a book to the catalog
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		service.BookInput	true	"Book payload"
//	@Success	201		{object}	model.Book
//	@Failure	422		{object}	errorPayload
//	@Router		/books [post]
func AddBook(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.BookInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		book, err := svc.AddBook(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(book)
	}
}

// GetBook godoc
//
//	@Summary	Get a book by ID
//	@Tags		books
//	@Produce	json
//	@Param		id	path		string	true	"Book ID"
//	@Success	200	{object}	model.Book
//	@Failure	404	{object}	errorPayload
//	@Router		/books/{id} [get]
func GetBook(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		book, err := svc.GetBook(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(book)
	}
}

// UpdateBook godoc
//
//	@Summary	Update a book's details
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Book ID"
//	@Param		book	body		service.BookInput	true	"Book payload"
//	@Success	200		{object}	model.Book
//	@Failure	404		{object}	errorPayload
//	@Failure	422		{object}	errorPayload
//	@Router		/books/{id} [put]
func UpdateBook(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in service.BookInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		book, err := svc.UpdateBook(c.UserContext(), id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(book)
	}
}

// DeleteBook godoc
//
//	@Summary	Remove a book from the catalog
//	@Tags		books
//	@Param		id	path	string	true	"Book ID"
//	@Success	204
//	@Failure	404	{object}	errorPayload
//	@Failure	409	{object}	errorPayload
//	@Router		/books/{id} [delete]
func DeleteBook(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.DeleteBook(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListBooks godoc
//
//	@Summary	List books with optional search
//	@Tags		books
//	@Produce	json
//	@Param		q			query		string	false	"Title or author search"
//	@Param		category	query		string	false	"Exact category"
//	@Param		limit		query		int		false	"Page size"
//	@Param		offset		query		int		false	"Page offset"
//	@Success	200			{object}	service.BookListResult
//	@Router		/books [get]
func ListBooks(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		res, err := svc.ListBooks(c.UserContext(), c.Query("q"), c.Query("category"), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
