package handler

import (
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"maktaba/internal/service"
)

// presignExpiry is how long a generated download link stays valid.
const presignExpiry = 15 * time.Minute

// UploadPublication godoc
//
//	@Summary	Upload a Risala publication
//	@Tags		publications
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		title		formData	string	true	"Publication title"
//	@Param		description	formData	string	false	"Publication description"
//	@Param		booklet		formData	file	true	"Booklet PDF"
//	@Param		audio		formData	file	false	"Audio recording"
//	@Param		thumbnail	formData	file	false	"Cover thumbnail"
//	@Success	201			{object}	model.Publication
//	@Failure	400			{object}	errorPayload
//	@Router		/publications [post]
func UploadPublication(svc service.PublicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("booklet")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "booklet file is required")
		}

		up := service.PublicationUpload{
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
		}

		booklet, err := openUpload(fh)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer booklet.close()
		up.Booklet = booklet.file

		if fh, err := c.FormFile("audio"); err == nil {
			audio, err := openUpload(fh)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer audio.close()
			up.Audio = audio.file
		}
		if fh, err := c.FormFile("thumbnail"); err == nil {
			thumb, err := openUpload(fh)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer thumb.close()
			up.Thumbnail = thumb.file
		}

		pub, err := svc.Upload(c.UserContext(), up)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(pub)
	}
}

type openedUpload struct {
	file  service.UploadFile
	close func() error
}

func openUpload(fh *multipart.FileHeader) (openedUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return openedUpload{}, err
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return openedUpload{
		file: service.UploadFile{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
		},
		close: f.Close,
	}, nil
}

// ListPublications godoc
//
//	@Summary	List publications
//	@Tags		publications
//	@Produce	json
//	@Param		limit	query		int	false	"Page size"
//	@Param		offset	query		int	false	"Page offset"
//	@Success	200		{object}	service.PublicationListResult
//	@Router		/publications [get]
func ListPublications(svc service.PublicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetPublication godoc
//
//	@Summary	Get a publication by ID
//	@Tags		publications
//	@Produce	json
//	@Param		id	path		string	true	"Publication ID"
//	@Success	200	{object}	model.Publication
//	@Failure	404	{object}	errorPayload
//	@Router		/publications/{id} [get]
func GetPublication(svc service.PublicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		pub, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(pub)
	}
}

type publicationUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdatePublication godoc
//
//	@Summary	Update a publication's title and description
//	@Tags		publications
//	@Accept		json
//	@Produce	json
//	@Param		id			path		string						true	"Publication ID"
//	@Param		publication	body		publicationUpdateRequest	true	"Metadata payload"
//	@Success	200			{object}	model.Publication
//	@Failure	404			{object}	errorPayload
//	@Failure	422			{object}	errorPayload
//	@Router		/publications/{id} [put]
func UpdatePublication(svc service.PublicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req publicationUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		pub, err := svc.Update(c.UserContext(), id, req.Title, req.Description)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(pub)
	}
}

// DownloadPublication godoc
//
//	@Summary	Get a presigned download URL for the booklet
//	@Tags		publications
//	@Produce	json
//	@Param		id	path		string	true	"Publication ID"
//	@Success	200	{object}	map[string]string
//	@Failure	404	{object}	errorPayload
//	@Router		/publications/{id}/download [get]
func DownloadPublication(svc service.PublicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.PresignDownload(c.UserContext(), id, presignExpiry)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// DeletePublication godoc
//
//	@Summary	Delete a publication
//	@Tags		publications
//	@Param		id	path	string	true	"Publication ID"
//	@Success	204
//	@Failure	404	{object}	errorPayload
//	@Router		/publications/{id} [delete]
func DeletePublication(svc service.PublicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
