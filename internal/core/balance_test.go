package core

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestSummarizeEmpty(t *testing.T) {
	cfg := CashConfig{StartingBalance: Money{Cents: 12345}}
	s := Summarize(cfg, nil, nil, nil)
	if s.CurrentBalance.Cents != 12345 {
		t.Errorf("empty snapshot balance = %d, want starting balance 12345", s.CurrentBalance.Cents)
	}
	if s.PaidPenalties.Cents != 0 || s.PendingPenalties.Cents != 0 || s.ExpensesTotal.Cents != 0 {
		t.Errorf("empty snapshot produced non-zero components: %+v", s)
	}
}

// Worked example: 100 € start, 3 contributions, 20 € paid penalties,
// 5 € pending, 30 € expenses -> 100 + 45 + 20 - 30 = 135 €.
func TestSummarizeWorkedExample(t *testing.T) {
	cfg := CashConfig{StartingBalance: Money{Cents: 10000}}
	penalties := []Penalty{
		{ID: "p1", MemberID: "m1", Amount: Money{Cents: 2000}, Date: date(2024, 1, 10), IsPaid: true},
		{ID: "p2", MemberID: "m2", Amount: Money{Cents: 500}, Date: date(2024, 2, 10)},
	}
	contributions := []Contribution{
		{ID: "c1", MemberID: "m1", Month: 0, Year: 2024, IsPaid: true},
		{ID: "c2", MemberID: "m2", Month: 0, Year: 2024, IsPaid: true},
		{ID: "c3", MemberID: "m1", Month: 1, Year: 2024, IsPaid: true},
	}
	expenses := []Expense{
		{ID: "e1", Description: "Deko", Amount: Money{Cents: 3000}, Date: date(2024, 2, 1)},
	}

	s := Summarize(cfg, penalties, contributions, expenses)

	if s.PaidPenalties.Cents != 2000 {
		t.Errorf("paid penalties = %d, want 2000", s.PaidPenalties.Cents)
	}
	if s.PendingPenalties.Cents != 500 {
		t.Errorf("pending penalties = %d, want 500", s.PendingPenalties.Cents)
	}
	if s.ContributionsTotal.Cents != 4500 {
		t.Errorf("contributions = %d, want 4500", s.ContributionsTotal.Cents)
	}
	if s.CurrentBalance.Cents != 13500 {
		t.Errorf("current balance = %d, want 13500", s.CurrentBalance.Cents)
	}
}

// Paid and pending sums always partition the penalty total.
func TestSummarizePenaltyPartition(t *testing.T) {
	penalties := []Penalty{
		{ID: "p1", Amount: Money{Cents: 700}, Date: date(2024, 1, 1), IsPaid: true},
		{ID: "p2", Amount: Money{Cents: 300}, Date: date(2024, 1, 2)},
		{ID: "p3", Amount: Money{Cents: 1250}, Date: date(2024, 1, 3)},
		{ID: "p4", Amount: Money{Cents: 50}, Date: date(2024, 1, 4), IsPaid: true},
	}

	var total int64
	for _, p := range penalties {
		total += p.Amount.Cents
	}

	s := Summarize(CashConfig{}, penalties, nil, nil)
	if s.PaidPenalties.Cents+s.PendingPenalties.Cents != total {
		t.Errorf("paid %d + pending %d != total %d",
			s.PaidPenalties.Cents, s.PendingPenalties.Cents, total)
	}
}

func TestSummarizeMonotonicity(t *testing.T) {
	cfg := CashConfig{StartingBalance: Money{Cents: 5000}}
	contributions := []Contribution{{ID: "c1", MemberID: "m1", Month: 2, Year: 2024}}
	expenses := []Expense{{ID: "e1", Description: "Bier", Amount: Money{Cents: 800}, Date: date(2024, 3, 1)}}

	base := Summarize(cfg, nil, contributions, expenses)

	t.Run("more contributions never lower the balance", func(t *testing.T) {
		more := append([]Contribution{{ID: "c2", MemberID: "m2", Month: 2, Year: 2024}}, contributions...)
		s := Summarize(cfg, nil, more, expenses)
		if s.CurrentBalance.Cents < base.CurrentBalance.Cents {
			t.Errorf("balance dropped from %d to %d", base.CurrentBalance.Cents, s.CurrentBalance.Cents)
		}
	})

	t.Run("more paid penalties never lower the balance", func(t *testing.T) {
		paid := []Penalty{{ID: "p1", MemberID: "m1", Amount: Money{Cents: 100}, Date: date(2024, 1, 1), IsPaid: true}}
		s := Summarize(cfg, paid, contributions, expenses)
		if s.CurrentBalance.Cents < base.CurrentBalance.Cents {
			t.Errorf("balance dropped from %d to %d", base.CurrentBalance.Cents, s.CurrentBalance.Cents)
		}
	})

	t.Run("more expenses never raise the balance", func(t *testing.T) {
		more := append([]Expense{{ID: "e2", Description: "Miete", Amount: Money{Cents: 2500}, Date: date(2024, 3, 2)}}, expenses...)
		s := Summarize(cfg, nil, contributions, more)
		if s.CurrentBalance.Cents > base.CurrentBalance.Cents {
			t.Errorf("balance rose from %d to %d", base.CurrentBalance.Cents, s.CurrentBalance.Cents)
		}
	})
}
