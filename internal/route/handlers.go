package route

import (
	"github.com/Stevenalenga/plink-sub000/internal/expiry"
	"github.com/Stevenalenga/plink-sub000/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

type createRequest struct {
	Name       string      `json:"name"`
	URL        string      `json:"url"`
	Waypoints  []geo.Point `json:"waypoints"`
	Visibility string      `json:"visibility"`
	Expires    string      `json:"expires"`
	ExpiresIn  int         `json:"expires_hours"`
	SharedWith []string    `json:"shared_with"`
}

type updateRequest struct {
	Name       *string     `json:"name"`
	URL        *string     `json:"url"`
	Waypoints  []geo.Point `json:"waypoints"`
	Visibility *string     `json:"visibility"`
	Expires    *string     `json:"expires"`
	ExpiresIn  int         `json:"expires_hours"`
	SharedWith []string    `json:"shared_with"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, viewerMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		rt, err := svc.Create(c.Context(), actorID(c), CreateInput{
			Name:         req.Name,
			URL:          req.URL,
			Waypoints:    req.Waypoints,
			Visibility:   req.Visibility,
			ExpiryOption: expiry.Option(req.Expires),
			ExpiryHours:  req.ExpiresIn,
			SharedWith:   req.SharedWith,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(rt)
	})

	r.Get("/", viewerMiddleware, func(c *fiber.Ctx) error {
		routes, err := svc.ListVisible(c.Context(), actorID(c))
		if err != nil {
			return err
		}
		return c.JSON(routes)
	})

	r.Get("/:id", viewerMiddleware, func(c *fiber.Ctx) error {
		rt, err := svc.Get(c.Context(), actorID(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(rt)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req updateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		patch := UpdateInput{
			Name:        req.Name,
			URL:         req.URL,
			Waypoints:   req.Waypoints,
			Visibility:  req.Visibility,
			ExpiryHours: req.ExpiresIn,
			SharedWith:  req.SharedWith,
		}
		if req.Expires != nil {
			opt := expiry.Option(*req.Expires)
			patch.ExpiryOption = &opt
		}
		rt, err := svc.Update(c.Context(), actorID(c), c.Params("id"), patch)
		if err != nil {
			return err
		}
		return c.JSON(rt)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), actorID(c), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func actorID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
