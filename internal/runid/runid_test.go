package runid

import (
	"testing"

	"github.com/google/uuid"
)

// TestNewUnique ensures run ids are distinct, valid, and version 7.
func TestNewUnique(t *testing.T) {
	t.Parallel()

	id1, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	id2, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if id1 == id2 {
		t.Fatalf("expected unique ids, got %s twice", id1)
	}
	parsed, err := uuid.Parse(id1)
	if err != nil {
		t.Fatalf("id not a valid UUID: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
	if id2 < id1 {
		t.Fatalf("expected ids to sort by creation: %s < %s", id2, id1)
	}
}
