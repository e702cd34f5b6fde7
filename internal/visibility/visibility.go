package visibility

import (
	"context"
	"time"

	"github.com/Stevenalenga/plink-sub000/internal/clock"
	"github.com/Stevenalenga/plink-sub000/internal/expiry"
	"github.com/Stevenalenga/plink-sub000/internal/follow"
)

const (
	Public    = "public"
	Followers = "followers"
	Private   = "private"
)

func Valid(v string) bool {
	return v == Public || v == Followers || v == Private
}

// Record is the disclosure-relevant view of a location or route.
type Record interface {
	RecordOwner() string
	RecordVisibility() string
	RecordExpiresAt() *time.Time
}

// IsOwner reports whether the actor owns the record.
func IsOwner(rec Record, actorID string) bool {
	return actorID != "" && rec.RecordOwner() == actorID
}

// Resolver decides whether a viewer may read a record. It is a pure predicate
// over the record and its already-fetched selective-share list, plus at most
// one follow-edge lookup.
type Resolver struct {
	follows follow.Checker
	clock   clock.Clock
}

func NewResolver(follows follow.Checker, clk clock.Clock) *Resolver {
	return &Resolver{follows: follows, clock: clk}
}

// CanView applies the disclosure rules. shares is the record's selective
// allow-list; an empty list under followers visibility means every current
// follower may see it. viewerID may be empty for anonymous viewers.
func (r *Resolver) CanView(ctx context.Context, viewerID string, rec Record, shares []string) (bool, error) {
	if IsOwner(rec, viewerID) {
		return true, nil
	}
	// Expiration hides the record from everyone but the owner.
	if expiry.Expired(rec.RecordExpiresAt(), r.clock.Now()) {
		return false, nil
	}

	switch rec.RecordVisibility() {
	case Public:
		return true, nil
	case Private:
		return false, nil
	case Followers:
		if viewerID == "" {
			return false, nil
		}
		following, err := r.follows.IsFollowing(ctx, viewerID, rec.RecordOwner())
		if err != nil {
			return false, err
		}
		if !following {
			return false, nil
		}
		if len(shares) == 0 {
			return true, nil
		}
		for _, id := range shares {
			if id == viewerID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}
