package bid

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the bid endpoints. Bids hang off their location for
// creation and owner listing, and off /bids for bidder-side operations.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/locations/:id/bids", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Amount  float64 `json:"amount"`
			Message string  `json:"message"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		b, err := svc.Create(c.Context(), actorID(c), c.Params("id"), body.Amount, body.Message)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	})

	r.Get("/locations/:id/bids", authMiddleware, func(c *fiber.Ctx) error {
		views, err := svc.ListForLocation(c.Context(), actorID(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(views)
	})

	r.Get("/bids/mine", authMiddleware, func(c *fiber.Ctx) error {
		views, err := svc.ListMine(c.Context(), actorID(c))
		if err != nil {
			return err
		}
		return c.JSON(views)
	})

	r.Put("/bids/:id", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Amount  *float64 `json:"amount"`
			Message *string  `json:"message"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		b, err := svc.Update(c.Context(), actorID(c), c.Params("id"), body.Amount, body.Message)
		if err != nil {
			return err
		}
		return c.JSON(b)
	})

	r.Delete("/bids/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), actorID(c), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/bids/:id/status", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil || body.Status == "" {
			return fiber.NewError(fiber.StatusBadRequest, "status required")
		}
		b, err := svc.SetStatus(c.Context(), actorID(c), c.Params("id"), Status(body.Status))
		if err != nil {
			return err
		}
		return c.JSON(b)
	})
}

func actorID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
