package route

import (
	"time"

	"github.com/Stevenalenga/plink-sub000/internal/shared/geo"
)

// Route is the path-shaped sibling of a Location: same ownership, visibility,
// selective sharing and expiration rules, but an ordered waypoint sequence
// instead of a single point, and no bidding.
type Route struct {
	ID              string      `json:"id"`
	OwnerID         string      `json:"owner_id"`
	Name            string      `json:"name"`
	URL             string      `json:"url,omitempty"`
	Waypoints       []geo.Point `json:"waypoints"`
	TotalDistanceKm float64     `json:"total_distance_km"`
	Visibility      string      `json:"visibility"`
	CreatedAt       time.Time   `json:"created_at"`
	ExpiresAt       *time.Time  `json:"expires_at,omitempty"`
}

func (r Route) RecordOwner() string         { return r.OwnerID }
func (r Route) RecordVisibility() string    { return r.Visibility }
func (r Route) RecordExpiresAt() *time.Time { return r.ExpiresAt }
