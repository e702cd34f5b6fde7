package location

import (
	"context"
	"errors"

	"github.com/Stevenalenga/plink-sub000/internal/apperr"
	"github.com/Stevenalenga/plink-sub000/internal/clock"
	"github.com/Stevenalenga/plink-sub000/internal/db"
	"github.com/Stevenalenga/plink-sub000/internal/expiry"
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

// CreateInput carries the owner-facing fields of a create or update request.
type CreateInput struct {
	Name         string
	Lat          float64
	Lng          float64
	URL          string
	Visibility   string
	AcceptsBids  bool
	ExpiryOption expiry.Option
	ExpiryHours  int
	// SharedWith narrows a followers-visibility record to these follower ids.
	// Empty means every current follower may see it.
	SharedWith []string
}

func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (Location, error) {
	if err := validate(input); err != nil {
		return Location{}, err
	}
	if input.Visibility == "" {
		input.Visibility = visibility.Public
	}

	now := s.clock.Now()
	expiresAt, err := expiry.Compute(input.ExpiryOption, input.ExpiryHours, now)
	if err != nil {
		return Location{}, err
	}

	loc := Location{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        input.Name,
		Lat:         input.Lat,
		Lng:         input.Lng,
		URL:         input.URL,
		Visibility:  input.Visibility,
		AcceptsBids: input.AcceptsBids,
		ExpiresAt:   expiresAt,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO locations (id, owner_id, name, coords, url, visibility, accepts_bids, expires_at)
		VALUES ($1,$2,$3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography, $6,$7,$8,$9)
		RETURNING created_at
	`, loc.ID, loc.OwnerID, loc.Name, loc.Lng, loc.Lat, loc.URL, loc.Visibility, loc.AcceptsBids, loc.ExpiresAt)
	if err := row.Scan(&loc.CreatedAt); err != nil {
		return Location{}, apperr.Internal(err, "insert location")
	}

	if err := s.replaceShares(ctx, loc.ID, sharesFor(loc.Visibility, input.SharedWith)); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Get returns the location if the viewer may see it. Denied viewers get
// NotFound so a guessed id discloses nothing.
func (s *Service) Get(ctx context.Context, viewerID, id string) (Location, error) {
	loc, err := s.fetch(ctx, id)
	if err != nil {
		return Location{}, err
	}
	shares, err := s.Shares(ctx, id)
	if err != nil {
		return Location{}, err
	}
	ok, err := s.resolver.CanView(ctx, viewerID, loc, shares)
	if err != nil {
		return Location{}, apperr.Internal(err, "resolve visibility")
	}
	if !ok {
		return Location{}, apperr.NotFound("location %s not found", id)
	}
	return loc, nil
}

// ListVisible returns every location the viewer may see. The visibility
// predicate is applied per record; the SQL only narrows the candidate set.
func (s *Service) ListVisible(ctx context.Context, viewerID string) ([]Location, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, ST_Y(coords::geometry), ST_X(coords::geometry),
		       COALESCE(url,''), visibility, accepts_bids, created_at, expires_at
		FROM locations
		WHERE owner_id=$1
		   OR visibility='public'
		   OR (visibility='followers' AND owner_id IN (
		        SELECT following_id FROM user_follows WHERE follower_id=$1))
		ORDER BY created_at DESC
	`, viewerID)
	if err != nil {
		return nil, apperr.Internal(err, "list locations")
	}
	defer rows.Close()

	var candidates []Location
	var ids []string
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.OwnerID, &loc.Name, &loc.Lat, &loc.Lng,
			&loc.URL, &loc.Visibility, &loc.AcceptsBids, &loc.CreatedAt, &loc.ExpiresAt); err != nil {
			return nil, apperr.Internal(err, "scan location")
		}
		candidates = append(candidates, loc)
		ids = append(ids, loc.ID)
	}

	shares, err := s.sharesByRecord(ctx, ids)
	if err != nil {
		return nil, err
	}

	var visible []Location
	for _, loc := range candidates {
		ok, err := s.resolver.CanView(ctx, viewerID, loc, shares[loc.ID])
		if err != nil {
			return nil, apperr.Internal(err, "resolve visibility")
		}
		if ok {
			visible = append(visible, loc)
		}
	}
	return visible, nil
}

// UpdateInput patches a location. Nil fields are left unchanged.
type UpdateInput struct {
	Name         *string
	Lat          *float64
	Lng          *float64
	URL          *string
	Visibility   *string
	AcceptsBids  *bool
	ExpiryOption *expiry.Option
	ExpiryHours  int
	SharedWith   []string
}

func (s *Service) Update(ctx context.Context, actorID, id string, patch UpdateInput) (Location, error) {
	loc, err := s.fetch(ctx, id)
	if err != nil {
		return Location{}, err
	}
	if !visibility.IsOwner(loc, actorID) {
		return Location{}, apperr.Forbidden("only the owner may update a location")
	}

	if patch.Name != nil {
		loc.Name = *patch.Name
	}
	if patch.Lat != nil {
		loc.Lat = *patch.Lat
	}
	if patch.Lng != nil {
		loc.Lng = *patch.Lng
	}
	if patch.URL != nil {
		loc.URL = *patch.URL
	}
	if patch.Visibility != nil {
		if !visibility.Valid(*patch.Visibility) {
			return Location{}, apperr.InvalidArgument("unknown visibility %q", *patch.Visibility)
		}
		loc.Visibility = *patch.Visibility
	}
	if patch.AcceptsBids != nil {
		loc.AcceptsBids = *patch.AcceptsBids
	}
	if loc.Visibility == visibility.Private && loc.AcceptsBids {
		return Location{}, apperr.InvalidArgument("a private location cannot accept bids")
	}
	if patch.ExpiryOption != nil {
		expiresAt, err := expiry.Compute(*patch.ExpiryOption, patch.ExpiryHours, s.clock.Now())
		if err != nil {
			return Location{}, err
		}
		loc.ExpiresAt = expiresAt
	}

	_, err = s.db.Exec(ctx, `
		UPDATE locations
		SET name=$2, coords=ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography,
		    url=$5, visibility=$6, accepts_bids=$7, expires_at=$8
		WHERE id=$1
	`, loc.ID, loc.Name, loc.Lng, loc.Lat, loc.URL, loc.Visibility, loc.AcceptsBids, loc.ExpiresAt)
	if err != nil {
		return Location{}, apperr.Internal(err, "update location")
	}

	// Shares are replaced wholesale on every visibility-affecting update so no
	// stale partial state survives.
	if patch.Visibility != nil || patch.SharedWith != nil {
		if err := s.replaceShares(ctx, loc.ID, sharesFor(loc.Visibility, patch.SharedWith)); err != nil {
			return Location{}, err
		}
	}
	return loc, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	loc, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if !visibility.IsOwner(loc, actorID) {
		return apperr.Forbidden("only the owner may delete a location")
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM locations WHERE id=$1`, id); err != nil {
		return apperr.Internal(err, "delete location")
	}
	return nil
}

// Shares returns the selective allow-list for a record, empty when the record
// is shared with all followers.
func (s *Service) Shares(ctx context.Context, recordID string) ([]string, error) {
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

func (s *Service) fetch(ctx context.Context, id string) (Location, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, name, ST_Y(coords::geometry), ST_X(coords::geometry),
		       COALESCE(url,''), visibility, accepts_bids, created_at, expires_at
		FROM locations WHERE id=$1
	`, id)
	var loc Location
	err := row.Scan(&loc.ID, &loc.OwnerID, &loc.Name, &loc.Lat, &loc.Lng,
		&loc.URL, &loc.Visibility, &loc.AcceptsBids, &loc.CreatedAt, &loc.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, apperr.NotFound("location %s not found", id)
	}
	if err != nil {
		return Location{}, apperr.Internal(err, "fetch location")
	}
	return loc, nil
}

func (s *Service) sharesByRecord(ctx context.Context, recordIDs []string) (map[string][]string, error) {
	if len(recordIDs) == 0 {
		return map[string][]string{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT record_id, follower_id FROM selective_shares WHERE record_id = ANY($1)
	`, recordIDs)
	if err != nil {
		return nil, apperr.Internal(err, "load shares")
	}
	defer rows.Close()

	shares := map[string][]string{}
	for rows.Next() {
		var recordID, followerID string
		if err := rows.Scan(&recordID, &followerID); err != nil {
			return nil, apperr.Internal(err, "scan share")
		}
		shares[recordID] = append(shares[recordID], followerID)
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

func validate(input CreateInput) error {
	if input.Name == "" {
		return apperr.InvalidArgument("name required")
	}
	if input.Visibility != "" && !visibility.Valid(input.Visibility) {
		return apperr.InvalidArgument("unknown visibility %q", input.Visibility)
	}
	if input.Visibility == visibility.Private && input.AcceptsBids {
		return apperr.InvalidArgument("a private location cannot accept bids")
	}
	return nil
}

func sharesFor(vis string, sharedWith []string) []string {
	// The allow-list only has meaning under followers visibility.
	if vis != visibility.Followers {
		return nil
	}
	return sharedWith
}
