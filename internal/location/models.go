package location

import "time"

type Location struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	URL         string     `json:"url,omitempty"`
	Visibility  string     `json:"visibility"`
	AcceptsBids bool       `json:"accepts_bids"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (l Location) RecordOwner() string         { return l.OwnerID }
func (l Location) RecordVisibility() string    { return l.Visibility }
func (l Location) RecordExpiresAt() *time.Time { return l.ExpiresAt }
