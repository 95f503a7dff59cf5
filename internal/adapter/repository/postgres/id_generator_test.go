package postgres

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestULIDGenerator(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	gen := NewULIDGenerator().WithClock(func() time.Time { return at })

	first := gen.Generate()
	second := gen.Generate()
	if first == second {
		t.Fatalf("expected unique ids, got %s twice", first)
	}

	id, err := ulid.Parse(first)
	if err != nil {
		t.Fatalf("expected valid ulid, got %v", err)
	}
	if !ulid.Time(id.Time()).Equal(at) {
		t.Fatalf("expected timestamp %s, got %s", at, ulid.Time(id.Time()))
	}
}
