package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/Stevenalenga/plink-sub000/internal/clock"
)

func TestMemoryAllowWithinWindow(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	lim := NewMemory(5, time.Minute, clk)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := lim.Allow(ctx, "bidder-1")
		if err != nil || !ok {
			t.Fatalf("attempt %d should pass: %v", i+1, err)
		}
		clk.Advance(2 * time.Second)
	}

	ok, err := lim.Allow(ctx, "bidder-1")
	if err != nil || ok {
		t.Fatalf("6th attempt within window should be denied: %v", err)
	}
}

func TestMemoryWindowResets(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	lim := NewMemory(5, time.Minute, clk)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if ok, _ := lim.Allow(ctx, "bidder-1"); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if ok, _ := lim.Allow(ctx, "bidder-1"); ok {
		t.Fatalf("over quota should be denied")
	}

	clk.Advance(61 * time.Second)
	if ok, _ := lim.Allow(ctx, "bidder-1"); !ok {
		t.Fatalf("new window should pass")
	}
}

func TestMemoryActorsIndependent(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	lim := NewMemory(1, time.Minute, clk)
	ctx := context.Background()

	if ok, _ := lim.Allow(ctx, "bidder-1"); !ok {
		t.Fatalf("first bidder-1 attempt should pass")
	}
	if ok, _ := lim.Allow(ctx, "bidder-1"); ok {
		t.Fatalf("second bidder-1 attempt should be denied")
	}
	if ok, _ := lim.Allow(ctx, "bidder-2"); !ok {
		t.Fatalf("bidder-2 has its own window")
	}
}

func TestMemoryCleanup(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	lim := NewMemory(5, time.Minute, clk)
	ctx := context.Background()

	_, _ = lim.Allow(ctx, "bidder-1")
	clk.Advance(10 * time.Minute)
	lim.Cleanup()

	lim.mu.Lock()
	n := len(lim.actors)
	lim.mu.Unlock()
	if n != 0 {
		t.Fatalf("idle windows should be dropped, %d left", n)
	}
}

func TestMemoryConcurrentSingleSlot(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	lim := NewMemory(1, time.Minute, clk)
	ctx := context.Background()

	const callers = 20
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		go func() {
			ok, _ := lim.Allow(ctx, "bidder-1")
			results <- ok
		}()
	}

	allowed := 0
	for i := 0; i < callers; i++ {
		if <-results {
			allowed++
		}
	}
	if allowed != 1 {
		t.Fatalf("exactly one concurrent caller should pass, got %d", allowed)
	}
}
