package media

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/:bucket", authMiddleware, func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file field required")
		}
		src, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer src.Close()

		userID, _ := c.Locals("user_id").(string)
		obj, err := svc.Upload(c.Context(), userID, c.Params("bucket"),
			fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, src)
		if err != nil {
			var sizeErr *SizeLimitError
			var typeErr *ContentTypeError
			switch {
			case errors.As(err, &sizeErr):
				return fiber.NewError(fiber.StatusRequestEntityTooLarge, err.Error())
			case errors.As(err, &typeErr):
				return fiber.NewError(fiber.StatusUnsupportedMediaType, err.Error())
			case errors.Is(err, ErrUnknownBucket):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	})

	r.Get("/objects/:id", func(c *fiber.Ctx) error {
		obj, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrObjectNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(obj)
	})

	r.Delete("/objects/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Delete(c.Context(), c.Params("id"), userID); err != nil {
			if errors.Is(err, ErrObjectNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
