package core

import "sort"

// Surplus is the money available to cover outstanding penalties: everything
// that actually entered the box (starting balance, contributions, penalties
// paid in cash) minus everything taken out. Auto-paid penalties are excluded
// from the income side; marking them paid settles debt, it moves no cash.
func Surplus(cfg CashConfig, penalties []Penalty, contributions []Contribution, expenses []Expense) Money {
	surplus := cfg.StartingBalance
	surplus = surplus.Add(Money{Cents: int64(len(contributions)) * MonthlyContribution})
	for _, p := range penalties {
		if p.IsPaid && !p.PaidViaReconciliation {
			surplus = surplus.Add(p.Amount)
		}
	}
	for _, e := range expenses {
		surplus = surplus.Sub(e.Amount)
	}
	return surplus
}

// ReconcilePlan is the outcome of re-planning reconciliation from a full
// snapshot: which penalties to mark paid and which previously auto-paid
// penalties to revert because the surplus no longer covers them.
type ReconcilePlan struct {
	MarkPaid []Penalty
	Revert   []Penalty
}

// Empty reports whether applying the plan would produce zero writes.
func (p ReconcilePlan) Empty() bool {
	return len(p.MarkPaid) == 0 && len(p.Revert) == 0
}

// PlanReconciliation recomputes which penalties the surplus covers.
//
// Candidates are unpaid penalties plus those previously paid via
// reconciliation; manually paid penalties are cash income and never
// candidates. Candidates are walked oldest date first (document id breaks
// ties) and a penalty is covered only in full, while its amount fits into
// the remaining surplus. The walk stops at the first penalty that does not
// fit. The plan is the diff against the current paid flags, so running the
// plan twice over an unchanged snapshot yields an empty second plan.
func PlanReconciliation(penalties []Penalty, surplus Money) ReconcilePlan {
	candidates := make([]Penalty, 0, len(penalties))
	for _, p := range penalties {
		if !p.IsPaid || p.PaidViaReconciliation {
			candidates = append(candidates, p)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].Date.Equal(candidates[j].Date) {
			return candidates[i].Date.Before(candidates[j].Date)
		}
		return candidates[i].ID < candidates[j].ID
	})

	var plan ReconcilePlan
	remaining := surplus
	covered := true
	for _, p := range candidates {
		if covered && p.Amount.Cents <= remaining.Cents {
			remaining = remaining.Sub(p.Amount)
			if !p.IsPaid {
				plan.MarkPaid = append(plan.MarkPaid, p)
			}
			continue
		}
		// First uncovered penalty ends the walk; everything after it
		// stays (or becomes) unpaid.
		covered = false
		if p.IsPaid {
			plan.Revert = append(plan.Revert, p)
		}
	}
	return plan
}
