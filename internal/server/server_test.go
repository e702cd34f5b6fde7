package server

import (
	"net/http/httptest"
	"testing"

	"github.com/Stevenalenga/plink-sub000/internal/apperr"
	"github.com/Stevenalenga/plink-sub000/internal/config"

	"github.com/gofiber/fiber/v2"
)

func TestHealthRoute(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestErrorHandlerMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{apperr.NotFound("gone"), fiber.StatusNotFound},
		{apperr.Forbidden("not yours"), fiber.StatusForbidden},
		{apperr.InvalidArgument("bad amount"), fiber.StatusBadRequest},
		{apperr.Conflict("already decided"), fiber.StatusConflict},
		{apperr.RateLimited("slow down"), fiber.StatusTooManyRequests},
		{apperr.Internal(nil, "db down"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
		failing := tc.err
		app.Get("/fail", func(c *fiber.Ctx) error { return failing })

		resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
		if err != nil {
			t.Fatalf("test request: %v", err)
		}
		if resp.StatusCode != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, resp.StatusCode)
		}
	}
}

func TestBidLimiterBackends(t *testing.T) {
	s := &Server{Cfg: config.Config{RateLimitMax: 5, RateLimitWindowSec: 60, RateLimitBackend: "redis"}}
	// redis requested but no client connected falls back to memory
	if lim := bidLimiter(s, nil); lim == nil {
		t.Fatalf("expected a limiter")
	}
	if s.Limiter == nil {
		t.Fatalf("expected memory fallback without a redis client")
	}
}
