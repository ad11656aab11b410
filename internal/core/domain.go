package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MonthlyContribution is the fixed amount one contribution document
	// stands for. There is no per-document amount field; presence of the
	// record means the member paid the month.
	MonthlyContribution = 1500 // cents

	// BirthdaySentinel marks calendar events that are owned by the
	// birthday generator. User-created events never carry this
	// description and are never touched by the generator.
	BirthdaySentinel = "Automatisch erstellter Geburtstagstermin"

	// UnknownMemberName is shown when a record references a member that
	// no longer exists.
	UnknownMemberName = "Unbekannt"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyMemberID    = errors.New("empty member id")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidDate      = errors.New("invalid date")

	// ErrMalformedBirthday is the tolerated bad-input case: the birthday
	// generator treats it as a no-op, handlers report it as 422.
	ErrMalformedBirthday = errors.New("malformed birthday")
)

// Member is a Stammtisch member. Birthday is optional, "YYYY-MM-DD" when set.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Birthday string `json:"birthday,omitempty"`
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrEmptyMemberID
	}
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Penalty is a fine against a member. Manually paid penalties have IsPaid
// set without PaidViaReconciliation; auto-paid ones carry both plus the
// reconciliation timestamp.
type Penalty struct {
	ID                    string     `json:"id"`
	MemberID              string     `json:"memberId"`
	Amount                Money      `json:"amount"`
	Reason                string     `json:"reason"`
	Date                  time.Time  `json:"date"`
	IsPaid                bool       `json:"isPaid"`
	PaidViaReconciliation bool       `json:"paidViaReconciliation,omitempty"`
	ReconciledAt          *time.Time `json:"reconciledAt,omitempty"`
}

func (p Penalty) Validate() error {
	if strings.TrimSpace(p.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if p.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if p.Date.IsZero() {
		return ErrInvalidDate
	}
	// Invariant from the cash box rules: an unpaid penalty never carries
	// a reconciliation timestamp.
	if !p.IsPaid && p.ReconciledAt != nil {
		return fmt.Errorf("unpaid penalty %s carries reconciledAt", p.ID)
	}
	return nil
}

// Contribution records one paid monthly contribution. Month is 0-11 to match
// the stored documents.
type Contribution struct {
	ID       string `json:"id"`
	MemberID string `json:"memberId"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
	IsPaid   bool   `json:"isPaid"`
}

func (c Contribution) Validate() error {
	if strings.TrimSpace(c.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if c.Month < 0 || c.Month > 11 {
		return ErrInvalidMonth
	}
	if c.Year < 2000 || c.Year > 2200 {
		return ErrInvalidYear
	}
	return nil
}

// Expense is money taken out of the shared cash box.
type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      Money     `json:"amount"`
	Date        time.Time `json:"date"`
	MemberID    string    `json:"memberId"`
	MemberName  string    `json:"memberName"`
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// CashConfig is the singleton cash box configuration.
type CashConfig struct {
	StartingBalance Money `json:"startingBalance"`
}

// Event is a calendar entry ("Stammtisch-Termin"). Month is 0-11, Date is
// "YYYY-MM-DD". Birthday events are generator-owned, identified by
// Description == BirthdaySentinel and HostID == member id.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	HostID      string    `json:"hostId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyName
	}
	if e.Month < 0 || e.Month > 11 {
		return ErrInvalidMonth
	}
	if e.Year < 2000 || e.Year > 2200 {
		return ErrInvalidYear
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// IsBirthday reports whether the event is generator-owned.
func (e Event) IsBirthday() bool {
	return e.Description == BirthdaySentinel && e.HostID != ""
}

// ParseBirthday extracts month (1-12) and day from a "YYYY-MM-DD" string.
// Missing or non-numeric month/day yields ErrMalformedBirthday; callers
// decide whether that is a user error or a tolerated no-op.
func ParseBirthday(birthday string) (month, day int, err error) {
	parts := strings.Split(strings.TrimSpace(birthday), "-")
	if len(parts) != 3 {
		return 0, 0, ErrMalformedBirthday
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, ErrMalformedBirthday
	}
	day, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, ErrMalformedBirthday
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, ErrMalformedBirthday
	}
	return month, day, nil
}
