package sweep

import "github.com/gofiber/fiber/v2"

// RegisterRoutes exposes an on-demand sweep next to the scheduled one, plus a
// dry-run count for observability.
func RegisterRoutes(r fiber.Router, cleaner *Cleaner, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		deleted, err := cleaner.Sweep(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"deleted": deleted})
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		count, err := cleaner.DryRun(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"would_delete": count})
	})
}
