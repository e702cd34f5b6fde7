package server

import (
	"errors"
	"time"

	"github.com/Stevenalenga/plink-sub000/internal/apperr"
	"github.com/Stevenalenga/plink-sub000/internal/auth"
	"github.com/Stevenalenga/plink-sub000/internal/bid"
	"github.com/Stevenalenga/plink-sub000/internal/clock"
	"github.com/Stevenalenga/plink-sub000/internal/config"
	"github.com/Stevenalenga/plink-sub000/internal/follow"
	"github.com/Stevenalenga/plink-sub000/internal/location"
	"github.com/Stevenalenga/plink-sub000/internal/ratelimit"
	"github.com/Stevenalenga/plink-sub000/internal/route"
	"github.com/Stevenalenga/plink-sub000/internal/sweep"
	"github.com/Stevenalenga/plink-sub000/internal/visibility"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Cleaner *sweep.Cleaner
	Limiter *ratelimit.Memory
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	clk := clock.System()
	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	viewerMiddleware := auth.ViewerMiddleware(s.Cfg.JWTSecret)

	resolver := visibility.NewResolver(follow.NewGraph(s.DB), clk)
	limiter := bidLimiter(s, clk)
	s.Cleaner = sweep.NewCleaner(s.DB, clk, time.Duration(s.Cfg.SweepMaxAgeHours)*time.Hour)

	location.RegisterRoutes(s.App.Group("/locations"), location.NewService(s.DB, resolver, clk), jwtMiddleware, viewerMiddleware)
	route.RegisterRoutes(s.App.Group("/routes"), route.NewService(s.DB, resolver, clk), jwtMiddleware, viewerMiddleware)
	bid.RegisterRoutes(s.App, bid.NewService(s.DB, limiter, clk), jwtMiddleware)
	sweep.RegisterRoutes(s.App.Group("/sweep"), s.Cleaner, jwtMiddleware)
}

func bidLimiter(s *Server, clk clock.Clock) ratelimit.Limiter {
	window := time.Duration(s.Cfg.RateLimitWindowSec) * time.Second
	if s.Cfg.RateLimitBackend == "redis" && s.Redis != nil {
		return ratelimit.NewRedis(s.Redis, s.Cfg.RateLimitMax, window)
	}
	mem := ratelimit.NewMemory(s.Cfg.RateLimitMax, window, clk)
	s.Limiter = mem
	return mem
}

// errorHandler maps the error taxonomy to HTTP statuses. Internal failures
// stay generic so storage details never reach the caller.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		code := fiber.StatusInternalServerError
		msg := appErr.Msg
		switch appErr.Kind {
		case apperr.KindNotFound:
			code = fiber.StatusNotFound
		case apperr.KindForbidden:
			code = fiber.StatusForbidden
		case apperr.KindInvalidArgument:
			code = fiber.StatusBadRequest
		case apperr.KindConflict:
			code = fiber.StatusConflict
		case apperr.KindRateLimited:
			code = fiber.StatusTooManyRequests
		case apperr.KindInternal:
			msg = "internal error"
		}
		return c.Status(code).JSON(fiber.Map{"error": msg, "kind": appErr.Kind})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
