package social

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/follow/:userID", authMiddleware, func(c *fiber.Ctx) error {
		followerID, _ := c.Locals("user_id").(string)
		if err := svc.Follow(c.Context(), followerID, c.Params("userID")); err != nil {
			if errors.Is(err, ErrSelfFollow) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Delete("/follow/:userID", authMiddleware, func(c *fiber.Ctx) error {
		followerID, _ := c.Locals("user_id").(string)
		if err := svc.Unfollow(c.Context(), followerID, c.Params("userID")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/followers/:userID", func(c *fiber.Ctx) error {
		followers, err := svc.Followers(c.Context(), c.Params("userID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(followers)
	})

	r.Get("/following/:userID", func(c *fiber.Ctx) error {
		following, err := svc.Following(c.Context(), c.Params("userID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(following)
	})

	r.Get("/follow/:userID", authMiddleware, func(c *fiber.Ctx) error {
		followerID, _ := c.Locals("user_id").(string)
		following, err := svc.IsFollowing(c.Context(), followerID, c.Params("userID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"following": following})
	})
}
