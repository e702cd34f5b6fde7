package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if KindOf(NotFound("location %s not found", "loc-1")) != KindNotFound {
		t.Fatalf("expected NotFound kind")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("plain errors map to Internal")
	}
	wrapped := fmt.Errorf("handler: %w", Conflict("bid already decided"))
	if KindOf(wrapped) != KindConflict {
		t.Fatalf("wrapped errors keep their kind")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause, "lookup bid")
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	if err.Error() != "lookup bid: connection refused" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestIsKind(t *testing.T) {
	err := RateLimited("too many bids")
	if !IsKind(err, KindRateLimited) {
		t.Fatalf("expected RateLimited")
	}
	if IsKind(err, KindForbidden) {
		t.Fatalf("unexpected Forbidden")
	}
}
