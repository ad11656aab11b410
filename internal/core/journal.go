package core

import "time"

// JournalKind says which collection a journal row came from.
type JournalKind string

const (
	JournalPenalty      JournalKind = "Strafe"
	JournalContribution JournalKind = "Beitrag"
	JournalExpense      JournalKind = "Ausgabe"
)

// JournalEntry is one row of the treasurer's cash book. Amount is signed:
// money into the box is positive, money out is negative.
type JournalEntry struct {
	Date        time.Time
	Kind        JournalKind
	Description string
	MemberName  string
	Amount      Money
}

// JournalFromPenalty builds the cash book row for a penalty.
func JournalFromPenalty(p Penalty, memberName string) JournalEntry {
	if memberName == "" {
		memberName = UnknownMemberName
	}
	return JournalEntry{
		Date:        p.Date,
		Kind:        JournalPenalty,
		Description: p.Reason,
		MemberName:  memberName,
		Amount:      p.Amount,
	}
}

// JournalFromContribution builds the cash book row for a monthly contribution.
func JournalFromContribution(c Contribution, memberName string) JournalEntry {
	if memberName == "" {
		memberName = UnknownMemberName
	}
	return JournalEntry{
		Date:        time.Date(c.Year, time.Month(c.Month+1), 1, 12, 0, 0, 0, time.Local),
		Kind:        JournalContribution,
		Description: "Monatsbeitrag",
		MemberName:  memberName,
		Amount:      Money{Cents: MonthlyContribution},
	}
}

// JournalFromExpense builds the cash book row for an expense. The amount is
// negated: expenses leave the box.
func JournalFromExpense(e Expense) JournalEntry {
	name := e.MemberName
	if name == "" {
		name = UnknownMemberName
	}
	return JournalEntry{
		Date:        e.Date,
		Kind:        JournalExpense,
		Description: e.Description,
		MemberName:  name,
		Amount:      Money{Cents: -e.Amount.Cents},
	}
}
