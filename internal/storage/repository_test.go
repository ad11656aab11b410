package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stammtisch/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMemberCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := core.Member{ID: "m1", Name: "Alice", Birthday: "1990-03-15"}
	if err := repo.CreateMember(ctx, m); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	got, err := repo.GetMember(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if got != m {
		t.Errorf("GetMember = %+v, want %+v", got, m)
	}

	m.Birthday = ""
	if err := repo.UpdateMember(ctx, m); err != nil {
		t.Fatalf("UpdateMember: %v", err)
	}
	got, _ = repo.GetMember(ctx, "m1")
	if got.Birthday != "" {
		t.Errorf("birthday not cleared: %q", got.Birthday)
	}

	if err := repo.DeleteMember(ctx, "m1"); err != nil {
		t.Fatalf("DeleteMember: %v", err)
	}
	if _, err := repo.GetMember(ctx, "m1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMember after delete = %v, want ErrNotFound", err)
	}
}

func TestCreateMemberValidation(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.CreateMember(context.Background(), core.Member{ID: "m1"})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("CreateMember without name = %v, want ErrEmptyName", err)
	}
}

func TestListPenaltiesOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	d1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	// Insert out of order; same date for b/a to exercise the id tie-break.
	for _, p := range []core.Penalty{
		{ID: "z", MemberID: "m1", Amount: core.Money{Cents: 100}, Date: d2},
		{ID: "b", MemberID: "m1", Amount: core.Money{Cents: 200}, Date: d1},
		{ID: "a", MemberID: "m2", Amount: core.Money{Cents: 300}, Date: d1},
	} {
		if err := repo.CreatePenalty(ctx, p); err != nil {
			t.Fatalf("CreatePenalty(%s): %v", p.ID, err)
		}
	}

	penalties, err := repo.ListPenalties(ctx)
	if err != nil {
		t.Fatalf("ListPenalties: %v", err)
	}
	var ids []string
	for _, p := range penalties {
		ids = append(ids, p.ID)
	}
	want := []string{"a", "b", "z"}
	for i := range want {
		if i >= len(ids) || ids[i] != want[i] {
			t.Fatalf("penalty order = %v, want %v", ids, want)
		}
	}
}

func TestMarkAndRevertPenalty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := core.Penalty{ID: "p1", MemberID: "m1", Amount: core.Money{Cents: 500},
		Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	if err := repo.CreatePenalty(ctx, p); err != nil {
		t.Fatalf("CreatePenalty: %v", err)
	}

	at := time.Date(2024, 4, 1, 10, 30, 0, 0, time.UTC)
	if err := repo.MarkPenaltyPaid(ctx, "p1", true, at); err != nil {
		t.Fatalf("MarkPenaltyPaid: %v", err)
	}

	got, err := repo.GetPenalty(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPenalty: %v", err)
	}
	if !got.IsPaid || !got.PaidViaReconciliation {
		t.Errorf("penalty not marked: %+v", got)
	}
	if got.ReconciledAt == nil || !got.ReconciledAt.Equal(at) {
		t.Errorf("reconciledAt = %v, want %v", got.ReconciledAt, at)
	}

	if err := repo.RevertPenalty(ctx, "p1"); err != nil {
		t.Fatalf("RevertPenalty: %v", err)
	}
	got, _ = repo.GetPenalty(ctx, "p1")
	if got.IsPaid || got.PaidViaReconciliation || got.ReconciledAt != nil {
		t.Errorf("penalty not reverted: %+v", got)
	}
}

func TestContributionUniquePerMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := core.Contribution{ID: "c1", MemberID: "m1", Month: 3, Year: 2024, IsPaid: true}
	if err := repo.CreateContribution(ctx, c); err != nil {
		t.Fatalf("CreateContribution: %v", err)
	}

	dup := core.Contribution{ID: "c2", MemberID: "m1", Month: 3, Year: 2024, IsPaid: true}
	if err := repo.CreateContribution(ctx, dup); err == nil {
		t.Error("duplicate month accepted, want unique constraint error")
	}
}

func TestCashConfigUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cfg, err := repo.GetCashConfig(ctx)
	if err != nil {
		t.Fatalf("GetCashConfig: %v", err)
	}
	if cfg.StartingBalance.Cents != 0 {
		t.Errorf("fresh starting balance = %d, want 0", cfg.StartingBalance.Cents)
	}

	if err := repo.SetStartingBalance(ctx, core.Money{Cents: 10000}); err != nil {
		t.Fatalf("SetStartingBalance: %v", err)
	}
	if err := repo.SetStartingBalance(ctx, core.Money{Cents: 12000}); err != nil {
		t.Fatalf("SetStartingBalance again: %v", err)
	}

	cfg, _ = repo.GetCashConfig(ctx)
	if cfg.StartingBalance.Cents != 12000 {
		t.Errorf("starting balance = %d, want 12000", cfg.StartingBalance.Cents)
	}
}

func TestBirthdayEventLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	system := core.Event{
		ID: "e1", Title: "Geburtstag Alice", Description: core.BirthdaySentinel,
		Date: "2024-03-15", Month: 2, Year: 2024, Time: "00:00", HostID: "m1", CreatedAt: created,
	}
	user := core.Event{
		ID: "e2", Title: "Stammtisch April", Description: "Im Gasthaus",
		Date: "2024-04-02", Month: 3, Year: 2024, Time: "19:00", HostID: "m1", CreatedAt: created,
	}
	for _, e := range []core.Event{system, user} {
		if err := repo.CreateEvent(ctx, e); err != nil {
			t.Fatalf("CreateEvent(%s): %v", e.ID, err)
		}
	}

	birthdays, err := repo.ListBirthdayEvents(ctx, "m1")
	if err != nil {
		t.Fatalf("ListBirthdayEvents: %v", err)
	}
	if len(birthdays) != 1 || birthdays[0].ID != "e1" {
		t.Fatalf("birthday events = %+v, want only e1", birthdays)
	}

	if err := repo.DeleteBirthdayEvents(ctx, "m1"); err != nil {
		t.Fatalf("DeleteBirthdayEvents: %v", err)
	}

	// The user-owned event must survive.
	events, err := repo.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e2" {
		t.Errorf("remaining events = %+v, want only e2", events)
	}
}

func TestLoadSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetStartingBalance(ctx, core.Money{Cents: 5000}); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreatePenalty(ctx, core.Penalty{ID: "p1", MemberID: "m1",
		Amount: core.Money{Cents: 300}, Date: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateContribution(ctx, core.Contribution{ID: "c1", MemberID: "m1", Month: 0, Year: 2024, IsPaid: true}); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateExpense(ctx, core.Expense{ID: "e1", Description: "Deko",
		Amount: core.Money{Cents: 700}, Date: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatal(err)
	}

	snap, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.Config.StartingBalance.Cents != 5000 {
		t.Errorf("snapshot starting balance = %d, want 5000", snap.Config.StartingBalance.Cents)
	}
	if len(snap.Penalties) != 1 || len(snap.Contributions) != 1 || len(snap.Expenses) != 1 {
		t.Errorf("snapshot sizes = %d/%d/%d, want 1/1/1",
			len(snap.Penalties), len(snap.Contributions), len(snap.Expenses))
	}
}

func TestPenaltyStateGuards(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := core.Penalty{ID: "p1", MemberID: "m1", Amount: core.Money{Cents: 500},
		Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	if err := repo.CreatePenalty(ctx, p); err != nil {
		t.Fatalf("CreatePenalty: %v", err)
	}

	// Hand payment wins the race; a second mark must not match.
	if err := repo.MarkPenaltyPaid(ctx, "p1", false, time.Time{}); err != nil {
		t.Fatalf("MarkPenaltyPaid: %v", err)
	}
	if err := repo.MarkPenaltyPaid(ctx, "p1", true, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second MarkPenaltyPaid = %v, want ErrNotFound", err)
	}

	// Hand-paid penalties are never reverted.
	if err := repo.RevertPenalty(ctx, "p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RevertPenalty on hand-paid = %v, want ErrNotFound", err)
	}
	got, err := repo.GetPenalty(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPenalty: %v", err)
	}
	if !got.IsPaid || got.PaidViaReconciliation {
		t.Errorf("hand payment was disturbed: %+v", got)
	}
}
