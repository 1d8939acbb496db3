package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_CategorizedError(t *testing.T) {
	err := NoCapacity("no slots left")
	if got := KindOf(err); got != KindNoCapacity {
		t.Fatalf("expected kind %q, got %q", KindNoCapacity, got)
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("book appointment: %w", Conflict("slot was just taken"))
	if got := KindOf(err); got != KindConflict {
		t.Fatalf("expected kind %q, got %q", KindConflict, got)
	}
	if got := MessageOf(err); got != "slot was just taken" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestKindOf_UncategorizedDefaultsToPersistence(t *testing.T) {
	if got := KindOf(errors.New("connection refused")); got != KindPersistence {
		t.Fatalf("expected kind %q, got %q", KindPersistence, got)
	}
}

func TestPersistence_UnwrapsCause(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := Persistence(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
}
