package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, hub *Hub, authMiddleware fiber.Handler) {
	r.Post("/:tripID/messages", authMiddleware, func(c *fiber.Ctx) error {
		var req Message
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.TripID = c.Params("tripID")
		req.UserID, _ = c.Locals("user_id").(string)
		msg, err := svc.Send(c.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, ErrEmptyMessage):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, ErrNotParticipant):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	})

	r.Get("/:tripID/messages", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit"))
		offset, _ := strconv.Atoi(c.Query("offset"))
		msgs, err := svc.Messages(c.Context(), c.Params("tripID"), userID, limit, offset)
		if err != nil {
			if errors.Is(err, ErrNotParticipant) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(msgs)
	})

	r.Get("/ws/:tripID", authMiddleware, websocket.New(func(c *websocket.Conn) {
		tripID := c.Params("tripID")
		userID, _ := c.Locals("user_id").(string)

		ok, err := svc.members.IsMember(context.Background(), tripID, userID)
		if err != nil || !ok {
			c.Close()
			return
		}

		client := hub.Register(tripID, userID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				break
			}
			var incoming Message
			if err := json.Unmarshal(data, &incoming); err != nil {
				continue
			}
			incoming.TripID = tripID
			incoming.UserID = userID
			if _, err := svc.Send(context.Background(), incoming); err != nil {
				continue
			}
		}
		<-done
	}))
}
