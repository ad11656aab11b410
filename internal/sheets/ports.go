package sheets

import (
	"context"

	"stammtisch/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter appends cash book rows to the treasurer's export target.
	LedgerWriter interface {
		Append(ctx context.Context, entry core.JournalEntry) (rowRef string, err error)
	}
)
