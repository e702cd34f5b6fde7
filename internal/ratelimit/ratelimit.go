package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/Stevenalenga/plink-sub000/internal/clock"
)

// Limiter throttles an action per actor. Allow reports whether the actor may
// proceed right now; a denial carries no error.
type Limiter interface {
	Allow(ctx context.Context, actorID string) (bool, error)
}

// Memory is a fixed-window counter keyed by actor id. State is process-local
// and not durable: a restart resets everyone's quota. With multiple instances
// this is a best-effort per-instance throttle; use the Redis limiter for a
// shared one.
type Memory struct {
	mu      sync.Mutex
	actors  map[string]*window
	max     int
	period  time.Duration
	clock   clock.Clock
	idleTTL time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

func NewMemory(max int, period time.Duration, clk clock.Clock) *Memory {
	return &Memory{
		actors:  make(map[string]*window),
		max:     max,
		period:  period,
		clock:   clk,
		idleTTL: 5 * period,
	}
}

func (m *Memory) Allow(_ context.Context, actorID string) (bool, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.actors[actorID]
	if !ok || !now.Before(w.resetAt) {
		m.actors[actorID] = &window{count: 1, resetAt: now.Add(m.period)}
		return true, nil
	}
	if w.count >= m.max {
		return false, nil
	}
	w.count++
	return true, nil
}

// Cleanup drops windows that reset long ago so idle actors do not leak.
func (m *Memory) Cleanup() {
	cutoff := m.clock.Now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, w := range m.actors {
		if w.resetAt.Before(cutoff) {
			delete(m.actors, id)
		}
	}
}

// StartJanitor cleans idle windows periodically until ctx is done.
func (m *Memory) StartJanitor(ctx context.Context, every time.Duration) {
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
				m.Cleanup()
			}
		}
	}()
}
