package bid

import (
	"context"
	"errors"
	"time"

	"github.com/Stevenalenga/plink-sub000/internal/apperr"
	"github.com/Stevenalenga/plink-sub000/internal/clock"
	"github.com/Stevenalenga/plink-sub000/internal/db"
	"github.com/Stevenalenga/plink-sub000/internal/expiry"
	"github.com/Stevenalenga/plink-sub000/internal/ratelimit"
	"github.com/Stevenalenga/plink-sub000/internal/visibility"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const anonymousPlaceholder = "anonymous"

type Service struct {
	db      db.Querier
	limiter ratelimit.Limiter
	clock   clock.Clock
}

func NewService(db db.Querier, limiter ratelimit.Limiter, clk clock.Clock) *Service {
	return &Service{db: db, limiter: limiter, clock: clk}
}

// Create places a pending bid on a public, bid-accepting, unexpired location.
// The single-pending-bid-per-(location,bidder) invariant is enforced by the
// partial unique index on bids(location_id, bidder_id) WHERE status='pending';
// an application-side read-then-write would race under concurrent requests.
func (s *Service) Create(ctx context.Context, bidderID, locationID string, amount float64, message string) (Bid, error) {
	if err := validateFields(&amount, &message); err != nil {
		return Bid{}, err
	}

	loc, err := s.fetchLocation(ctx, locationID)
	if err != nil {
		return Bid{}, err
	}
	now := s.clock.Now()
	if loc.visibility != visibility.Public || !loc.acceptsBids || expiry.Expired(loc.expiresAt, now) {
		return Bid{}, apperr.Conflict("location %s does not accept bids", locationID)
	}
	if bidderID == loc.ownerID {
		return Bid{}, apperr.Forbidden("owners cannot bid on their own location")
	}

	ok, err := s.limiter.Allow(ctx, bidderID)
	if err != nil {
		return Bid{}, apperr.Internal(err, "rate limiter")
	}
	if !ok {
		return Bid{}, apperr.RateLimited("too many bids, try again shortly")
	}

	b := Bid{
		ID:         uuid.NewString(),
		LocationID: locationID,
		BidderID:   bidderID,
		Amount:     amount,
		Message:    message,
		Status:     StatusPending,
		ExpiresAt:  now.Add(AnonymityWindow),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO bids (id, location_id, bidder_id, amount, message, status, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, b.ID, b.LocationID, b.BidderID, b.Amount, b.Message, string(b.Status), b.ExpiresAt)
	if err := row.Scan(&b.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return Bid{}, apperr.Conflict("a pending bid on this location already exists")
		}
		return Bid{}, apperr.Internal(err, "insert bid")
	}
	return b, nil
}

// Update lets the bidder change amount or message while the bid is pending
// and its anonymity window is still open.
func (s *Service) Update(ctx context.Context, bidderID, bidID string, amount *float64, message *string) (Bid, error) {
	if amount == nil && message == nil {
		return Bid{}, apperr.InvalidArgument("nothing to update")
	}
	if err := validateFields(amount, message); err != nil {
		return Bid{}, err
	}

	b, err := s.fetch(ctx, bidID)
	if err != nil {
		return Bid{}, err
	}
	if b.BidderID != bidderID {
		return Bid{}, apperr.Forbidden("only the bidder may update a bid")
	}
	if b.Status != StatusPending {
		return Bid{}, apperr.Conflict("bid is already %s", b.Status)
	}
	now := s.clock.Now()
	if !now.Before(b.ExpiresAt) {
		return Bid{}, apperr.Conflict("the bid window has closed")
	}
	loc, err := s.fetchLocation(ctx, b.LocationID)
	if err != nil {
		return Bid{}, err
	}
	if expiry.Expired(loc.expiresAt, now) {
		return Bid{}, apperr.Conflict("the location has expired")
	}

	if amount != nil {
		b.Amount = *amount
	}
	if message != nil {
		b.Message = *message
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bids SET amount=$2, message=$3
		WHERE id=$1 AND status='pending'
	`, b.ID, b.Amount, b.Message)
	if err != nil {
		return Bid{}, apperr.Internal(err, "update bid")
	}
	if tag.RowsAffected() == 0 {
		return Bid{}, apperr.Conflict("bid was decided concurrently")
	}
	return b, nil
}

// Delete lets the bidder withdraw a pending bid. Unlike Update, the anonymity
// deadline is deliberately not re-checked here.
func (s *Service) Delete(ctx context.Context, bidderID, bidID string) error {
	b, err := s.fetch(ctx, bidID)
	if err != nil {
		return err
	}
	if b.BidderID != bidderID {
		return apperr.Forbidden("only the bidder may delete a bid")
	}
	if b.Status != StatusPending {
		return apperr.Conflict("bid is already %s", b.Status)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM bids WHERE id=$1 AND status='pending'`, b.ID)
	if err != nil {
		return apperr.Internal(err, "delete bid")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("bid was decided concurrently")
	}
	return nil
}

// SetStatus is the owner's accept/reject decision, allowed only after the
// anonymity window has fully elapsed. The pending→terminal transition is a
// conditional update keyed on the current status; losing the race surfaces
// as a Conflict, not a double decision.
func (s *Service) SetStatus(ctx context.Context, ownerID, bidID string, target Status) (Bid, error) {
	if target != StatusAccepted && target != StatusRejected {
		return Bid{}, apperr.InvalidArgument("status must be accepted or rejected")
	}

	b, err := s.fetch(ctx, bidID)
	if err != nil {
		return Bid{}, err
	}
	loc, err := s.fetchLocation(ctx, b.LocationID)
	if err != nil {
		return Bid{}, err
	}
	if loc.ownerID != ownerID {
		return Bid{}, apperr.Forbidden("only the location owner may decide a bid")
	}
	if b.Status != StatusPending {
		return Bid{}, apperr.Conflict("bid is already %s", b.Status)
	}
	if s.clock.Now().Before(b.ExpiresAt) {
		return Bid{}, apperr.Conflict("the anonymity window has not elapsed")
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE bids SET status=$2, decided_at=now()
		WHERE id=$1 AND status='pending'
	`, b.ID, string(target))
	if err != nil {
		return Bid{}, apperr.Internal(err, "decide bid")
	}
	if tag.RowsAffected() == 0 {
		return Bid{}, apperr.Conflict("bid was decided concurrently")
	}
	b.Status = target
	return b, nil
}

// ListForLocation returns every bid on a location the caller owns, highest
// amount first with earlier bids winning ties. Bids still inside their window
// have the bidder's identity replaced with a placeholder; amount, message and
// timestamps stay visible.
func (s *Service) ListForLocation(ctx context.Context, ownerID, locationID string) ([]OwnerView, error) {
	loc, err := s.fetchLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc.ownerID != ownerID {
		return nil, apperr.Forbidden("only the location owner may list its bids")
	}

	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.location_id, b.bidder_id, b.amount, COALESCE(b.message,''),
		       b.status, b.created_at, b.expires_at,
		       COALESCE(u.username,''), COALESCE(u.avatar_url,''), COALESCE(u.email,'')
		FROM bids b
		LEFT JOIN users u ON u.id = b.bidder_id
		WHERE b.location_id=$1
		ORDER BY b.amount DESC, b.created_at ASC
	`, locationID)
	if err != nil {
		return nil, apperr.Internal(err, "list bids")
	}
	defer rows.Close()

	now := s.clock.Now()
	var views []OwnerView
	for rows.Next() {
		var v OwnerView
		var status string
		if err := rows.Scan(&v.ID, &v.LocationID, &v.BidderID, &v.Amount, &v.Message,
			&status, &v.CreatedAt, &v.ExpiresAt,
			&v.BidderName, &v.BidderAvatarURL, &v.BidderEmail); err != nil {
			return nil, apperr.Internal(err, "scan bid")
		}
		v.Status = Status(status)
		v.EffectiveStatus = v.Bid.EffectiveStatus(now)
		if now.Before(v.ExpiresAt) {
			v.BidderID = anonymousPlaceholder
			v.BidderName = anonymousPlaceholder
			v.BidderAvatarURL = ""
			v.BidderEmail = ""
		}
		views = append(views, v)
	}
	return views, nil
}

// ListMine returns the caller's own bids across all locations, with the
// outcome and the bidder's own identity intact.
func (s *Service) ListMine(ctx context.Context, bidderID string) ([]MineView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.location_id, b.bidder_id, b.amount, COALESCE(b.message,''),
		       b.status, b.created_at, b.expires_at, COALESCE(l.name,'')
		FROM bids b
		LEFT JOIN locations l ON l.id = b.location_id
		WHERE b.bidder_id=$1
		ORDER BY b.created_at DESC
	`, bidderID)
	if err != nil {
		return nil, apperr.Internal(err, "list own bids")
	}
	defer rows.Close()

	now := s.clock.Now()
	var views []MineView
	for rows.Next() {
		var v MineView
		var status string
		if err := rows.Scan(&v.ID, &v.LocationID, &v.BidderID, &v.Amount, &v.Message,
			&status, &v.CreatedAt, &v.ExpiresAt, &v.LocationName); err != nil {
			return nil, apperr.Internal(err, "scan bid")
		}
		v.Status = Status(status)
		v.EffectiveStatus = v.Bid.EffectiveStatus(now)
		views = append(views, v)
	}
	return views, nil
}

type locationRow struct {
	ownerID     string
	visibility  string
	acceptsBids bool
	expiresAt   *time.Time
}

func (s *Service) fetchLocation(ctx context.Context, id string) (locationRow, error) {
	row := s.db.QueryRow(ctx, `
		SELECT owner_id, visibility, accepts_bids, expires_at
		FROM locations WHERE id=$1
	`, id)
	var loc locationRow
	err := row.Scan(&loc.ownerID, &loc.visibility, &loc.acceptsBids, &loc.expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return locationRow{}, apperr.NotFound("location %s not found", id)
	}
	if err != nil {
		return locationRow{}, apperr.Internal(err, "fetch location")
	}
	return loc, nil
}

func (s *Service) fetch(ctx context.Context, id string) (Bid, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, location_id, bidder_id, amount, COALESCE(message,''), status, created_at, expires_at
		FROM bids WHERE id=$1
	`, id)
	var b Bid
	var status string
	err := row.Scan(&b.ID, &b.LocationID, &b.BidderID, &b.Amount, &b.Message, &status, &b.CreatedAt, &b.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bid{}, apperr.NotFound("bid %s not found", id)
	}
	if err != nil {
		return Bid{}, apperr.Internal(err, "fetch bid")
	}
	b.Status = Status(status)
	return b, nil
}

func validateFields(amount *float64, message *string) error {
	if amount != nil && *amount <= 0 {
		return apperr.InvalidArgument("amount must be positive")
	}
	if message != nil && len(*message) > maxMessageLen {
		return apperr.InvalidArgument("message exceeds %d characters", maxMessageLen)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
