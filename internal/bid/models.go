package bid

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	// StatusExpired is never stored; it is derived at read time for bids whose
	// anonymity window passed without an owner decision.
	StatusExpired Status = "expired"
)

const (
	// AnonymityWindow is the period after creation during which the bidder's
	// identity is withheld from the location owner. The owner may only decide
	// once it has fully elapsed.
	AnonymityWindow = 24 * time.Hour

	maxMessageLen = 500
)

type Bid struct {
	ID         string    `json:"id"`
	LocationID string    `json:"location_id"`
	BidderID   string    `json:"bidder_id"`
	Amount     float64   `json:"amount"`
	Message    string    `json:"message,omitempty"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// EffectiveStatus substitutes expired for pending once the window has passed.
// The stored status stays authoritative; transitions are gated separately.
func (b Bid) EffectiveStatus(now time.Time) Status {
	if b.Status == StatusPending && !now.Before(b.ExpiresAt) {
		return StatusExpired
	}
	return b.Status
}

// OwnerView is a bid as shown to the location owner. Identity fields are
// anonymized while the bid's window is still open.
type OwnerView struct {
	Bid
	EffectiveStatus Status `json:"effective_status"`
	BidderName      string `json:"bidder_name"`
	BidderAvatarURL string `json:"bidder_avatar_url,omitempty"`
	BidderEmail     string `json:"bidder_email,omitempty"`
}

// MineView is a bid as shown to its bidder, never anonymized.
type MineView struct {
	Bid
	EffectiveStatus Status `json:"effective_status"`
	LocationName    string `json:"location_name"`
}
