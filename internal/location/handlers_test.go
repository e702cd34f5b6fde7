package location

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Stevenalenga/plink-sub000/internal/clock"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func asUser(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		return c.Next()
	}
}

func TestLocationHandlers(t *testing.T) {
	mock := newMock(t)
	svc := newService(mock, clock.NewFake(t0), fakeFollows{})

	mock.ExpectQuery(`INSERT INTO locations`).
		WithArgs(pgxmock.AnyArg(), "owner-1", "Harbor view", 106.8, -6.2, "", "public", true, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(t0))
	mock.ExpectExec(`DELETE FROM selective_shares`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	mock.ExpectQuery(`SELECT id, owner_id, name, ST_Y\(coords::geometry\)`).
		WithArgs("owner-1").
		WillReturnRows(locationRows().
			AddRow("loc-1", "owner-1", "Harbor view", -6.2, 106.8, "", "public", true, t0, nil))
	mock.ExpectQuery(`SELECT record_id, follower_id FROM selective_shares`).
		WithArgs([]string{"loc-1"}).
		WillReturnRows(pgxmock.NewRows([]string{"record_id", "follower_id"}))

	app := fiber.New()
	RegisterRoutes(app.Group("/locations"), svc, asUser("owner-1"), asUser("owner-1"))

	body, _ := json.Marshal(map[string]any{
		"name": "Harbor view", "lat": -6.2, "lng": 106.8,
		"accepts_bids": true, "expires": "24h",
	})
	req := httptest.NewRequest(http.MethodPost, "/locations/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create location status: %v %d", err, resp.StatusCode)
	}
	var created Location
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ExpiresAt == nil || !created.ExpiresAt.Equal(t0.Add(24*time.Hour)) {
		t.Fatalf("expiry missing from response: %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/locations/", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
	var listed []Location
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Harbor view" {
		t.Fatalf("unexpected list payload: %+v", listed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocationHandlersAnonymousList(t *testing.T) {
	mock := newMock(t)
	svc := newService(mock, clock.NewFake(t0), fakeFollows{})

	// anonymous viewers still see the public feed
	mock.ExpectQuery(`SELECT id, owner_id, name, ST_Y\(coords::geometry\)`).
		WithArgs("").
		WillReturnRows(locationRows().
			AddRow("loc-1", "owner-1", "Harbor view", -6.2, 106.8, "", "public", true, t0, nil))
	mock.ExpectQuery(`SELECT record_id, follower_id FROM selective_shares`).
		WithArgs([]string{"loc-1"}).
		WillReturnRows(pgxmock.NewRows([]string{"record_id", "follower_id"}))

	app := fiber.New()
	anonymous := func(c *fiber.Ctx) error { return c.Next() }
	RegisterRoutes(app.Group("/locations"), svc, anonymous, anonymous)

	req := httptest.NewRequest(http.MethodGet, "/locations/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("anonymous list status: %v", err)
	}
}

func TestLocationHandlersBadRequest(t *testing.T) {
	app := fiber.New()
	svc := newService(nil, clock.NewFake(t0), fakeFollows{})
	RegisterRoutes(app.Group("/locations"), svc, asUser("owner-1"), asUser("owner-1"))

	req := httptest.NewRequest(http.MethodPost, "/locations/", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}
