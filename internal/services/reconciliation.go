// Package services wires the cash box derivation rules to storage and the
// change stream.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stammtisch/internal/core"
	"stammtisch/internal/storage"
)

// ReconcileStore is the slice of the repository the reconciler needs.
type ReconcileStore interface {
	LoadSnapshot(ctx context.Context) (storage.Snapshot, error)
	MarkPenaltyPaid(ctx context.Context, id string, viaReconciliation bool, reconciledAt time.Time) error
	RevertPenalty(ctx context.Context, id string) error
}

// Reconciler re-derives the paid state of penalties from the full snapshot
// whenever the cash box changes. It never patches incrementally, so duplicate
// or out-of-order change notifications converge on the same result.
type Reconciler struct {
	store ReconcileStore
	now   func() time.Time
}

func NewReconciler(store ReconcileStore) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Reconcile loads the snapshot, plans which penalties the surplus covers and
// applies the diff. Individual write failures are logged and skipped; the
// next change notification re-runs the whole computation, so a lost write
// heals itself.
func (r *Reconciler) Reconcile(ctx context.Context) (marked, reverted int, err error) {
	if r.store == nil {
		return 0, 0, fmt.Errorf("reconciler not properly initialized")
	}

	snap, err := r.store.LoadSnapshot(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load snapshot: %w", err)
	}

	surplus := core.Surplus(snap.Config, snap.Penalties, snap.Contributions, snap.Expenses)
	plan := core.PlanReconciliation(snap.Penalties, surplus)
	if plan.Empty() {
		slog.DebugContext(ctx, "Reconciliation plan empty, nothing to do",
			"surplus_cents", surplus.Cents)
		return 0, 0, nil
	}

	reconciledAt := r.now()
	for _, p := range plan.MarkPaid {
		if err := r.store.MarkPenaltyPaid(ctx, p.ID, true, reconciledAt); err != nil {
			slog.ErrorContext(ctx, "Failed to mark penalty paid",
				"doc_id", p.ID,
				"member_id", p.MemberID,
				"amount_cents", p.Amount.Cents,
				"error", err)
			continue
		}
		marked++
		slog.InfoContext(ctx, "Penalty covered by surplus",
			"doc_id", p.ID,
			"member_id", p.MemberID,
			"amount_cents", p.Amount.Cents)
	}

	for _, p := range plan.Revert {
		if err := r.store.RevertPenalty(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to revert penalty",
				"doc_id", p.ID,
				"member_id", p.MemberID,
				"error", err)
			continue
		}
		reverted++
		slog.InfoContext(ctx, "Penalty reverted, surplus no longer covers it",
			"doc_id", p.ID,
			"member_id", p.MemberID,
			"amount_cents", p.Amount.Cents)
	}

	slog.InfoContext(ctx, "Reconciliation complete",
		"surplus_cents", surplus.Cents,
		"marked", marked,
		"reverted", reverted)

	return marked, reverted, nil
}
