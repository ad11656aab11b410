// Package worker reacts to document-change notifications: it re-runs the
// cash box derivation rules and feeds the treasurer's ledger export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stammtisch/internal/amqp"
	"stammtisch/internal/core"
	"stammtisch/internal/services"
	"stammtisch/internal/sheets"
	"stammtisch/internal/storage"
)

// Store is the slice of the repository the worker reads documents from.
type Store interface {
	GetPenalty(ctx context.Context, id string) (core.Penalty, error)
	GetContribution(ctx context.Context, id string) (core.Contribution, error)
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetMember(ctx context.Context, id string) (core.Member, error)
}

// ChangeWorker consumes change messages. Cash box changes trigger a full
// reconciliation recompute; member changes re-sync birthday events; created
// cash documents are appended to the ledger export.
type ChangeWorker struct {
	store      Store
	reconciler *services.Reconciler
	birthdays  *services.BirthdayGenerator
	ledger     sheets.LedgerWriter
}

func NewChangeWorker(store Store, reconciler *services.Reconciler, birthdays *services.BirthdayGenerator, ledger sheets.LedgerWriter) *ChangeWorker {
	return &ChangeWorker{
		store:      store,
		reconciler: reconciler,
		birthdays:  birthdays,
		ledger:     ledger,
	}
}

// HandleChange processes a single change message. A returned error requeues
// the delivery.
func (w *ChangeWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"collection", msg.Collection,
		"doc_id", msg.DocID,
		"op", msg.Op)

	switch msg.Collection {
	case amqp.CollectionPenalties, amqp.CollectionContributions,
		amqp.CollectionExpenses, amqp.CollectionCashConfig:
		if _, _, err := w.reconciler.Reconcile(ctx); err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
		if msg.Op == amqp.OpCreated {
			w.exportJournalRow(ctx, msg)
		}
		return nil

	case amqp.CollectionMembers:
		return w.handleMemberChange(ctx, msg)

	default:
		// Unknown collections are dropped, not requeued; a newer server
		// may publish kinds this worker does not know yet.
		slog.WarnContext(ctx, "Ignoring change for unknown collection",
			"collection", msg.Collection)
		return nil
	}
}

func (w *ChangeWorker) handleMemberChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Op == amqp.OpDeleted {
		if err := w.birthdays.Sync(ctx, msg.DocID, "", ""); err != nil {
			return fmt.Errorf("remove birthday events: %w", err)
		}
		return nil
	}

	m, err := w.store.GetMember(ctx, msg.DocID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between notification and processing; the delete
		// notification will clean up.
		slog.DebugContext(ctx, "Member vanished before birthday sync", "member_id", msg.DocID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}

	if err := w.birthdays.Sync(ctx, m.ID, m.Name, m.Birthday); err != nil {
		return fmt.Errorf("sync birthday events: %w", err)
	}
	return nil
}

// exportJournalRow appends the created document to the ledger export. Export
// failures are logged, never requeued: the cash box itself is already
// consistent and a stale spreadsheet is acceptable.
func (w *ChangeWorker) exportJournalRow(ctx context.Context, msg *amqp.ChangeMessage) {
	if w.ledger == nil {
		return
	}

	entry, err := w.journalEntry(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build journal entry",
			"collection", msg.Collection,
			"doc_id", msg.DocID,
			"error", err)
		return
	}

	ref, err := w.ledger.Append(ctx, entry)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to append journal row",
			"collection", msg.Collection,
			"doc_id", msg.DocID,
			"error", err)
		return
	}
	slog.InfoContext(ctx, "Exported journal row",
		"collection", msg.Collection,
		"doc_id", msg.DocID,
		"row_ref", ref)
}

func (w *ChangeWorker) journalEntry(ctx context.Context, msg *amqp.ChangeMessage) (core.JournalEntry, error) {
	switch msg.Collection {
	case amqp.CollectionPenalties:
		p, err := w.store.GetPenalty(ctx, msg.DocID)
		if err != nil {
			return core.JournalEntry{}, err
		}
		return core.JournalFromPenalty(p, w.memberName(ctx, p.MemberID)), nil

	case amqp.CollectionContributions:
		c, err := w.store.GetContribution(ctx, msg.DocID)
		if err != nil {
			return core.JournalEntry{}, err
		}
		return core.JournalFromContribution(c, w.memberName(ctx, c.MemberID)), nil

	case amqp.CollectionExpenses:
		e, err := w.store.GetExpense(ctx, msg.DocID)
		if err != nil {
			return core.JournalEntry{}, err
		}
		return core.JournalFromExpense(e), nil

	default:
		return core.JournalEntry{}, fmt.Errorf("collection %s has no journal representation", msg.Collection)
	}
}

func (w *ChangeWorker) memberName(ctx context.Context, id string) string {
	m, err := w.store.GetMember(ctx, id)
	if err != nil {
		return core.UnknownMemberName
	}
	return m.Name
}
