package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"maktaba/internal/service"
)

// RegisterStudent godoc
//
//	@Summary	Register a student
//	@Tags		students
//	@Accept		json
//	@Produce	json
//	@Param		student	body		service.StudentInput	true	"Student payload"
//	@Success	201		{object}	model.Student
//	@Failure	422		{object}	errorPayload
//	@Router		/students [post]
func RegisterStudent(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.StudentInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		student, err := svc.RegisterStudent(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(student)
	}
}

// GetStudent godoc
//
//	@Summary	Get a student by ID
//	@Tags		students
//	@Produce	json
//	@Param		id	path		string	true	"Student ID"
//	@Success	200	{object}	model.Student
//	@Failure	404	{object}	errorPayload
//	@Router		/students/{id} [get]
func GetStudent(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		student, err := svc.GetStudent(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(student)
	}
}

// UpdateStudent godoc
//
//	@Summary	Update a student's details
//	@Tags		students
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Student ID"
//	@Param		student	body		service.StudentInput	true	"Student payload"
//	@Success	200		{object}	model.Student
//	@Failure	404		{object}	errorPayload
//	@Failure	422		{object}	errorPayload
//	@Router		/students/{id} [put]
func UpdateStudent(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in service.StudentInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		student, err := svc.UpdateStudent(c.UserContext(), id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(student)
	}
}

// DeleteStudent godoc
//
//	@Summary	Remove a student
//	@Tags		students
//	@Param		id	path	string	true	"Student ID"
//	@Success	204
//	@Failure	404	{object}	errorPayload
//	@Failure	409	{object}	errorPayload
//	@Router		/students/{id} [delete]
func DeleteStudent(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.DeleteStudent(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListStudents godoc
//
//	@Summary	List students
//	@Tags		students
//	@Produce	json
//	@Param		limit	query		int	false	"Page size"
//	@Param		offset	query		int	false	"Page offset"
//	@Success	200		{object}	service.StudentListResult
//	@Router		/students [get]
func ListStudents(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		res, err := svc.ListStudents(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
