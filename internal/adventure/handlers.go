package adventure

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Adventure
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.UserID, _ = c.Locals("user_id").(string)
		adv, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(adv)
	})

	r.Get("/user/:userID", func(c *fiber.Ctx) error {
		viewerID, _ := c.Locals("user_id").(string)
		advs, err := svc.ListByUser(c.Context(), c.Params("userID"), viewerID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(advs)
	})

	r.Get("/user/:userID/featured", func(c *fiber.Ctx) error {
		advs, err := svc.Featured(c.Context(), c.Params("userID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(advs)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		viewerID, _ := c.Locals("user_id").(string)
		adv, err := svc.Get(c.Context(), c.Params("id"), viewerID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(adv)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var patch Adventure
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)
		adv, err := svc.Update(c.Context(), c.Params("id"), userID, patch)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(adv)
	})

	r.Post("/:id/featured", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Featured bool `json:"featured"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)
		if err := svc.SetFeatured(c.Context(), c.Params("id"), userID, body.Featured); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
