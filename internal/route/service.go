package route

import (
	"context"
	"errors"

	"github.com/Stevenalenga/plink-sub000/internal/apperr"
	"github.com/Stevenalenga/plink-sub000/internal/clock"
	"github.com/Stevenalenga/plink-sub000/internal/db"
	"github.com/Stevenalenga/plink-sub000/internal/expiry"
	"github.com/Stevenalenga/plink-sub000/internal/shared/geo"
	"github.com/Stevenalenga/plink-sub000/internal/visibility"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db       db.Querier
	resolver *visibility.Resolver
	clock    clock.Clock
}

func NewService(db db.Querier, resolver *visibility.Resolver, clk clock.Clock) *Service {
	return &Service{db: db, resolver: resolver, clock: clk}
}

type CreateInput struct {
	Name         string
	URL          string
	Waypoints    []geo.Point
	Visibility   string
	ExpiryOption expiry.Option
	ExpiryHours  int
	SharedWith   []string
}

func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (Route, error) {
	if input.Name == "" {
		return Route{}, apperr.InvalidArgument("name required")
	}
	if len(input.Waypoints) < 2 {
		return Route{}, apperr.InvalidArgument("a route needs at least two waypoints")
	}
	if input.Visibility == "" {
		input.Visibility = visibility.Public
	}
	if !visibility.Valid(input.Visibility) {
		return Route{}, apperr.InvalidArgument("unknown visibility %q", input.Visibility)
	}

	expiresAt, err := expiry.Compute(input.ExpiryOption, input.ExpiryHours, s.clock.Now())
	if err != nil {
		return Route{}, err
	}

	r := Route{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Name:            input.Name,
		URL:             input.URL,
		Waypoints:       input.Waypoints,
		TotalDistanceKm: geo.PathLengthKm(input.Waypoints),
		Visibility:      input.Visibility,
		ExpiresAt:       expiresAt,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO routes (id, owner_id, name, url, path, total_distance_km, visibility, expires_at)
		VALUES ($1,$2,$3,$4, ST_GeogFromText($5), $6,$7,$8)
		RETURNING created_at
	`, r.ID, r.OwnerID, r.Name, r.URL, toWKT(r.Waypoints), r.TotalDistanceKm, r.Visibility, r.ExpiresAt)
	if err := row.Scan(&r.CreatedAt); err != nil {
		return Route{}, apperr.Internal(err, "insert route")
	}

	if r.Visibility == visibility.Followers && len(input.SharedWith) > 0 {
		if err := s.replaceShares(ctx, r.ID, input.SharedWith); err != nil {
			return Route{}, err
		}
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, viewerID, id string) (Route, error) {
	r, err := s.fetch(ctx, id)
	if err != nil {
		return Route{}, err
	}
	shares, err := s.shares(ctx, id)
	if err != nil {
		return Route{}, err
	}
	ok, err := s.resolver.CanView(ctx, viewerID, r, shares)
	if err != nil {
		return Route{}, apperr.Internal(err, "resolve visibility")
	}
	if !ok {
		return Route{}, apperr.NotFound("route %s not found", id)
	}
	return r, nil
}

func (s *Service) ListVisible(ctx context.Context, viewerID string) ([]Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, COALESCE(url,''), ST_AsText(path::geometry),
		       total_distance_km, visibility, created_at, expires_at
		FROM routes
		WHERE owner_id=$1
		   OR visibility='public'
		   OR (visibility='followers' AND owner_id IN (
		        SELECT following_id FROM user_follows WHERE follower_id=$1))
		ORDER BY created_at DESC
	`, viewerID)
	if err != nil {
		return nil, apperr.Internal(err, "list routes")
	}
	defer rows.Close()

	var candidates []Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, r)
	}

	var visible []Route
	for _, r := range candidates {
		shares, err := s.shares(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		ok, err := s.resolver.CanView(ctx, viewerID, r, shares)
		if err != nil {
			return nil, apperr.Internal(err, "resolve visibility")
		}
		if ok {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

type UpdateInput struct {
	Name         *string
	URL          *string
	Waypoints    []geo.Point
	Visibility   *string
	ExpiryOption *expiry.Option
	ExpiryHours  int
	SharedWith   []string
}

func (s *Service) Update(ctx context.Context, actorID, id string, patch UpdateInput) (Route, error) {
	r, err := s.fetch(ctx, id)
	if err != nil {
		return Route{}, err
	}
	if !visibility.IsOwner(r, actorID) {
		return Route{}, apperr.Forbidden("only the owner may update a route")
	}

	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.URL != nil {
		r.URL = *patch.URL
	}
	if patch.Waypoints != nil {
		if len(patch.Waypoints) < 2 {
			return Route{}, apperr.InvalidArgument("a route needs at least two waypoints")
		}
		r.Waypoints = patch.Waypoints
		r.TotalDistanceKm = geo.PathLengthKm(patch.Waypoints)
	}
	if patch.Visibility != nil {
		if !visibility.Valid(*patch.Visibility) {
			return Route{}, apperr.InvalidArgument("unknown visibility %q", *patch.Visibility)
		}
		r.Visibility = *patch.Visibility
	}
	if patch.ExpiryOption != nil {
		expiresAt, err := expiry.Compute(*patch.ExpiryOption, patch.ExpiryHours, s.clock.Now())
		if err != nil {
			return Route{}, err
		}
		r.ExpiresAt = expiresAt
	}

	_, err = s.db.Exec(ctx, `
		UPDATE routes
		SET name=$2, url=$3, path=ST_GeogFromText($4), total_distance_km=$5,
		    visibility=$6, expires_at=$7
		WHERE id=$1
	`, r.ID, r.Name, r.URL, toWKT(r.Waypoints), r.TotalDistanceKm, r.Visibility, r.ExpiresAt)
	if err != nil {
		return Route{}, apperr.Internal(err, "update route")
	}

	if patch.Visibility != nil || patch.SharedWith != nil {
		sharedWith := patch.SharedWith
		if r.Visibility != visibility.Followers {
			sharedWith = nil
		}
		if err := s.replaceShares(ctx, r.ID, sharedWith); err != nil {
			return Route{}, err
		}
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	r, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if !visibility.IsOwner(r, actorID) {
		return apperr.Forbidden("only the owner may delete a route")
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM routes WHERE id=$1`, id); err != nil {
		return apperr.Internal(err, "delete route")
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, id string) (Route, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, name, COALESCE(url,''), ST_AsText(path::geometry),
		       total_distance_km, visibility, created_at, expires_at
		FROM routes WHERE id=$1
	`, id)
	r, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Route{}, apperr.NotFound("route %s not found", id)
	}
	if err != nil {
		return Route{}, err
	}
	return r, nil
}

func scanRoute(row pgx.Row) (Route, error) {
	var r Route
	var wkt string
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.URL, &wkt,
		&r.TotalDistanceKm, &r.Visibility, &r.CreatedAt, &r.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Route{}, err
	}
	if err != nil {
		return Route{}, apperr.Internal(err, "scan route")
	}
	points, err := parseWKT(wkt)
	if err != nil {
		return Route{}, apperr.Internal(err, "decode route path")
	}
	r.Waypoints = points
	return r, nil
}

func (s *Service) shares(ctx context.Context, recordID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT follower_id FROM selective_shares WHERE record_id=$1
	`, recordID)
	if err != nil {
		return nil, apperr.Internal(err, "load shares")
	}
	defer rows.Close()

	var shares []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Internal(err, "scan share")
		}
		shares = append(shares, id)
	}
	return shares, nil
}

func (s *Service) replaceShares(ctx context.Context, recordID string, sharedWith []string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM selective_shares WHERE record_id=$1`, recordID); err != nil {
		return apperr.Internal(err, "clear shares")
	}
	for _, followerID := range sharedWith {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO selective_shares (record_id, follower_id)
			VALUES ($1,$2)
			ON CONFLICT DO NOTHING
		`, recordID, followerID); err != nil {
			return apperr.Internal(err, "insert share")
		}
	}
	return nil
}
