package core

// Summary is the derived state of the cash box at the time of the snapshot
// it was computed from.
type Summary struct {
	StartingBalance    Money `json:"startingBalance"`
	PaidPenalties      Money `json:"paidPenalties"`
	PendingPenalties   Money `json:"pendingPenalties"`
	ContributionsTotal Money `json:"contributionsTotal"`
	ExpensesTotal      Money `json:"expensesTotal"`
	CurrentBalance     Money `json:"currentBalance"`
}

// Summarize derives the cash box summary from a full snapshot. Pure; empty
// inputs yield the starting balance.
//
// Contributions have no amount of their own: each record counts as one
// MonthlyContribution. Pending penalties are reported but are outstanding
// debt, not cash, so they do not enter the balance.
func Summarize(cfg CashConfig, penalties []Penalty, contributions []Contribution, expenses []Expense) Summary {
	s := Summary{StartingBalance: cfg.StartingBalance}

	for _, p := range penalties {
		if p.IsPaid {
			s.PaidPenalties = s.PaidPenalties.Add(p.Amount)
		} else {
			s.PendingPenalties = s.PendingPenalties.Add(p.Amount)
		}
	}
	s.ContributionsTotal = Money{Cents: int64(len(contributions)) * MonthlyContribution}
	for _, e := range expenses {
		s.ExpensesTotal = s.ExpensesTotal.Add(e.Amount)
	}

	s.CurrentBalance = s.StartingBalance.
		Add(s.ContributionsTotal).
		Add(s.PaidPenalties).
		Sub(s.ExpensesTotal)
	return s
}
