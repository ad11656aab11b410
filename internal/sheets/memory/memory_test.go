package memory

import (
	"context"
	"testing"
	"time"

	"stammtisch/internal/core"
)

func TestAppendAndEntries(t *testing.T) {
	s := New()
	ctx := context.Background()

	entry := core.JournalEntry{
		Date:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Kind:        core.JournalPenalty,
		Description: "Zu spät",
		MemberName:  "Alice",
		Amount:      core.Money{Cents: 500},
	}

	ref, err := s.Append(ctx, entry)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	entries := s.Entries()
	if len(entries) != 1 || entries[0].Description != "Zu spät" {
		t.Errorf("entries = %+v, want the appended row", entries)
	}

	// Entries returns a copy; mutating it must not affect the store.
	entries[0].Description = "mutated"
	if s.Entries()[0].Description != "Zu spät" {
		t.Error("Entries() exposed internal state")
	}
}
