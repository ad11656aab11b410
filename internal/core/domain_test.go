package core

import (
	"errors"
	"testing"
	"time"
)

func TestPenaltyValidate(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	valid := Penalty{ID: "p1", MemberID: "m1", Amount: Money{Cents: 500}, Date: now}

	t.Run("valid", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing member", func(t *testing.T) {
		p := valid
		p.MemberID = " "
		if err := p.Validate(); !errors.Is(err, ErrEmptyMemberID) {
			t.Errorf("got %v, want ErrEmptyMemberID", err)
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		p := valid
		p.Amount = Money{}
		if err := p.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("got %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("unpaid with reconciledAt rejected", func(t *testing.T) {
		p := valid
		p.ReconciledAt = &now
		if err := p.Validate(); err == nil {
			t.Error("expected error for unpaid penalty with reconciledAt")
		}
	})
}

func TestContributionValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Contribution
		wantErr error
	}{
		{name: "valid january", c: Contribution{MemberID: "m1", Month: 0, Year: 2024, IsPaid: true}},
		{name: "valid december", c: Contribution{MemberID: "m1", Month: 11, Year: 2024}},
		{name: "month 12 rejected", c: Contribution{MemberID: "m1", Month: 12, Year: 2024}, wantErr: ErrInvalidMonth},
		{name: "negative month", c: Contribution{MemberID: "m1", Month: -1, Year: 2024}, wantErr: ErrInvalidMonth},
		{name: "implausible year", c: Contribution{MemberID: "m1", Month: 3, Year: 1024}, wantErr: ErrInvalidYear},
		{name: "missing member", c: Contribution{Month: 3, Year: 2024}, wantErr: ErrEmptyMemberID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseBirthday(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantMonth int
		wantDay   int
		wantErr   bool
	}{
		{name: "normal", input: "1990-03-15", wantMonth: 3, wantDay: 15},
		{name: "leap day", input: "2000-02-29", wantMonth: 2, wantDay: 29},
		{name: "empty", input: "", wantErr: true},
		{name: "missing day", input: "1990-03", wantErr: true},
		{name: "non numeric month", input: "1990-xx-15", wantErr: true},
		{name: "month out of range", input: "1990-13-01", wantErr: true},
		{name: "day out of range", input: "1990-05-32", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			month, day, err := ParseBirthday(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedBirthday) {
					t.Fatalf("got %v, want ErrMalformedBirthday", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if month != tt.wantMonth || day != tt.wantDay {
				t.Errorf("got %d-%d, want %d-%d", month, day, tt.wantMonth, tt.wantDay)
			}
		})
	}
}

func TestEventIsBirthday(t *testing.T) {
	birthday := Event{Title: "Geburtstag Alice", Description: BirthdaySentinel, HostID: "m1"}
	if !birthday.IsBirthday() {
		t.Error("generator-owned event not recognized")
	}

	regular := Event{Title: "Stammtisch März", Description: "Im Gasthaus", HostID: "m1"}
	if regular.IsBirthday() {
		t.Error("user event misclassified as birthday event")
	}
}
