package sweep

import (
	"context"
	"log"
	"time"

	"github.com/Stevenalenga/plink-sub000/internal/apperr"
	"github.com/Stevenalenga/plink-sub000/internal/clock"
	"github.com/Stevenalenga/plink-sub000/internal/db"
)

// Cleaner bulk-deletes public locations older than maxAge. The criterion is
// creation age, not each record's own expires_at; the two deletion triggers
// are independent on purpose. The delete is set-based, so concurrent sweeps
// and a fixed schedule are both safe.
type Cleaner struct {
	db     db.Querier
	clock  clock.Clock
	maxAge time.Duration
}

func NewCleaner(db db.Querier, clk clock.Clock, maxAge time.Duration) *Cleaner {
	return &Cleaner{db: db, clock: clk, maxAge: maxAge}
}

// Sweep deletes every public location created before now-maxAge and returns
// how many rows went away.
func (c *Cleaner) Sweep(ctx context.Context) (int64, error) {
	cutoff := c.clock.Now().Add(-c.maxAge)
	tag, err := c.db.Exec(ctx, `
		DELETE FROM locations WHERE visibility='public' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, apperr.Internal(err, "sweep public locations")
	}
	return tag.RowsAffected(), nil
}

// DryRun counts what Sweep would delete without touching anything.
func (c *Cleaner) DryRun(ctx context.Context) (int64, error) {
	cutoff := c.clock.Now().Add(-c.maxAge)
	var count int64
	err := c.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM locations WHERE visibility='public' AND created_at < $1
	`, cutoff).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(err, "count sweepable locations")
	}
	return count, nil
}

// Start runs Sweep on a fixed schedule until ctx is done.
func (c *Cleaner) Start(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n, err := c.Sweep(ctx); err != nil {
					log.Printf("sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("sweep removed %d public locations", n)
				}
			}
		}
	}()
}
