// Package memory is the in-process ledger export used by tests and as the
// default backend when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"stammtisch/internal/core"
)

type Store struct {
	mu      sync.Mutex
	entries []core.JournalEntry
}

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, entry core.JournalEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return fmt.Sprintf("mem:%d", len(s.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (s *Store) Entries() []core.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.JournalEntry(nil), s.entries...)
}
