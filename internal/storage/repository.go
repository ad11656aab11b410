// Package storage persists the Stammtisch collections in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stammtisch/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

const dateFormat = time.RFC3339

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- Members ----

func (r *SQLiteRepository) CreateMember(ctx context.Context, m core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, name, birthday) VALUES (?, ?, ?)`,
		m.ID, m.Name, m.Birthday)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id string) (core.Member, error) {
	var m core.Member
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, birthday FROM members WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Birthday)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, ErrNotFound
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("select member: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, birthday FROM members ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Birthday); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *SQLiteRepository) UpdateMember(ctx context.Context, m core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET name = ?, birthday = ? WHERE id = ?`,
		m.Name, m.Birthday, m.ID)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteMember(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return requireRow(res)
}

// ---- Penalties ----

func (r *SQLiteRepository) CreatePenalty(ctx context.Context, p core.Penalty) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO penalties (id, member_id, amount_cents, reason, date, is_paid, paid_via_reconciliation, reconciled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.MemberID, p.Amount.Cents, p.Reason, p.Date.Format(dateFormat),
		boolToInt(p.IsPaid), boolToInt(p.PaidViaReconciliation), nullTime(p.ReconciledAt))
	if err != nil {
		return fmt.Errorf("insert penalty: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetPenalty(ctx context.Context, id string) (core.Penalty, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, member_id, amount_cents, reason, date, is_paid, paid_via_reconciliation, reconciled_at
		 FROM penalties WHERE id = ?`, id)
	p, err := scanPenalty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Penalty{}, ErrNotFound
	}
	return p, err
}

// ListPenalties returns all penalties ordered oldest date first, document id
// breaking ties. That ordering is what the reconciliation walk relies on.
func (r *SQLiteRepository) ListPenalties(ctx context.Context) ([]core.Penalty, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, amount_cents, reason, date, is_paid, paid_via_reconciliation, reconciled_at
		 FROM penalties ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("select penalties: %w", err)
	}
	defer rows.Close()

	var penalties []core.Penalty
	for rows.Next() {
		p, err := scanPenalty(rows)
		if err != nil {
			return nil, err
		}
		penalties = append(penalties, p)
	}
	return penalties, rows.Err()
}

func (r *SQLiteRepository) UpdatePenalty(ctx context.Context, p core.Penalty) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE penalties SET member_id = ?, amount_cents = ?, reason = ?, date = ?, is_paid = ?, paid_via_reconciliation = ?, reconciled_at = ?
		 WHERE id = ?`,
		p.MemberID, p.Amount.Cents, p.Reason, p.Date.Format(dateFormat),
		boolToInt(p.IsPaid), boolToInt(p.PaidViaReconciliation), nullTime(p.ReconciledAt), p.ID)
	if err != nil {
		return fmt.Errorf("update penalty: %w", err)
	}
	return requireRow(res)
}

// MarkPenaltyPaid flips the reconciliation fields of a single penalty. For a
// hand payment (viaReconciliation false) no timestamp is stored.
func (r *SQLiteRepository) MarkPenaltyPaid(ctx context.Context, id string, viaReconciliation bool, reconciledAt time.Time) error {
	var at *time.Time
	if viaReconciliation {
		at = &reconciledAt
	}
	// Conditional on the unpaid state so concurrent writers cannot spend
	// the same surplus twice; a lost race surfaces as ErrNotFound and the
	// caller treats the penalty as already settled.
	res, err := r.db.ExecContext(ctx,
		`UPDATE penalties SET is_paid = 1, paid_via_reconciliation = ?, reconciled_at = ? WHERE id = ? AND is_paid = 0`,
		boolToInt(viaReconciliation), nullTime(at), id)
	if err != nil {
		return fmt.Errorf("mark penalty paid: %w", err)
	}
	return requireRow(res)
}

// RevertPenalty returns a previously auto-paid penalty to the unpaid state.
// Hand-paid penalties never match the condition and are left untouched.
func (r *SQLiteRepository) RevertPenalty(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE penalties SET is_paid = 0, paid_via_reconciliation = 0, reconciled_at = NULL
		 WHERE id = ? AND is_paid = 1 AND paid_via_reconciliation = 1`,
		id)
	if err != nil {
		return fmt.Errorf("revert penalty: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeletePenalty(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM penalties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete penalty: %w", err)
	}
	return requireRow(res)
}

// ---- Contributions ----

func (r *SQLiteRepository) CreateContribution(ctx context.Context, c core.Contribution) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contributions (id, member_id, month, year, is_paid) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.MemberID, c.Month, c.Year, boolToInt(c.IsPaid))
	if err != nil {
		return fmt.Errorf("insert contribution: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetContribution(ctx context.Context, id string) (core.Contribution, error) {
	var c core.Contribution
	var paid int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, member_id, month, year, is_paid FROM contributions WHERE id = ?`, id).
		Scan(&c.ID, &c.MemberID, &c.Month, &c.Year, &paid)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Contribution{}, ErrNotFound
	}
	if err != nil {
		return core.Contribution{}, fmt.Errorf("select contribution: %w", err)
	}
	c.IsPaid = paid != 0
	return c, nil
}

func (r *SQLiteRepository) ListContributions(ctx context.Context) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, month, year, is_paid FROM contributions ORDER BY year, month, id`)
	if err != nil {
		return nil, fmt.Errorf("select contributions: %w", err)
	}
	defer rows.Close()

	var contributions []core.Contribution
	for rows.Next() {
		var c core.Contribution
		var paid int
		if err := rows.Scan(&c.ID, &c.MemberID, &c.Month, &c.Year, &paid); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		c.IsPaid = paid != 0
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func (r *SQLiteRepository) DeleteContribution(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contributions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	return requireRow(res)
}

// ---- Expenses ----

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount_cents, date, member_id, member_name)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.Amount.Cents, e.Date.Format(dateFormat), e.MemberID, e.MemberName)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	var e core.Expense
	var dateStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, description, amount_cents, date, member_id, member_name FROM expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.Description, &e.Amount.Cents, &dateStr, &e.MemberID, &e.MemberName)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("select expense: %w", err)
	}
	if e.Date, err = time.Parse(dateFormat, dateStr); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, date, member_id, member_name FROM expenses ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var dateStr string
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount.Cents, &dateStr, &e.MemberID, &e.MemberName); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = time.Parse(dateFormat, dateStr); err != nil {
			return nil, fmt.Errorf("parse expense date: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount_cents = ?, date = ?, member_id = ?, member_name = ? WHERE id = ?`,
		e.Description, e.Amount.Cents, e.Date.Format(dateFormat), e.MemberID, e.MemberName, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// ---- Cash config ----

func (r *SQLiteRepository) GetCashConfig(ctx context.Context) (core.CashConfig, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT starting_balance_cents FROM cash_config WHERE id = 1`).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		// Migration seeds the row, but an absent one means starting at zero.
		return core.CashConfig{}, nil
	}
	if err != nil {
		return core.CashConfig{}, fmt.Errorf("select cash config: %w", err)
	}
	return core.CashConfig{StartingBalance: core.Money{Cents: cents}}, nil
}

func (r *SQLiteRepository) SetStartingBalance(ctx context.Context, balance core.Money) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cash_config (id, starting_balance_cents) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET starting_balance_cents = excluded.starting_balance_cents`,
		balance.Cents)
	if err != nil {
		return fmt.Errorf("set starting balance: %w", err)
	}
	return nil
}

// ---- Events ----

func (r *SQLiteRepository) CreateEvent(ctx context.Context, e core.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, title, description, date, month, year, time, location, host_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.Date, e.Month, e.Year, e.Time, e.Location, e.HostID,
		e.CreatedAt.Format(dateFormat))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]core.Event, error) {
	return r.queryEvents(ctx,
		`SELECT id, title, description, date, month, year, time, location, host_id, created_at
		 FROM events ORDER BY date, id`)
}

// ListBirthdayEvents returns generator-owned events for one member.
func (r *SQLiteRepository) ListBirthdayEvents(ctx context.Context, hostID string) ([]core.Event, error) {
	return r.queryEvents(ctx,
		`SELECT id, title, description, date, month, year, time, location, host_id, created_at
		 FROM events WHERE host_id = ? AND description = ? ORDER BY year, id`,
		hostID, core.BirthdaySentinel)
}

func (r *SQLiteRepository) UpdateEvent(ctx context.Context, e core.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, date = ?, month = ?, year = ?, time = ?, location = ?, host_id = ?
		 WHERE id = ?`,
		e.Title, e.Description, e.Date, e.Month, e.Year, e.Time, e.Location, e.HostID, e.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(res)
}

// DeleteBirthdayEvents removes all generator-owned events for one member.
func (r *SQLiteRepository) DeleteBirthdayEvents(ctx context.Context, hostID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE host_id = ? AND description = ?`,
		hostID, core.BirthdaySentinel)
	if err != nil {
		return fmt.Errorf("delete birthday events: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) queryEvents(ctx context.Context, query string, args ...any) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		var e core.Event
		var createdStr string
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Month, &e.Year,
			&e.Time, &e.Location, &e.HostID, &createdStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.CreatedAt, err = time.Parse(dateFormat, createdStr); err != nil {
			return nil, fmt.Errorf("parse event created_at: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ---- Snapshot ----

// Snapshot is the full cash box state the derivation rules recompute from.
type Snapshot struct {
	Config        core.CashConfig
	Penalties     []core.Penalty
	Contributions []core.Contribution
	Expenses      []core.Expense
}

// LoadSnapshot reads all cash collections. Every change notification is
// answered with a full re-read; there is no incremental diffing.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	cfg, err := r.GetCashConfig(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	penalties, err := r.ListPenalties(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	contributions, err := r.ListContributions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	expenses, err := r.ListExpenses(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Config:        cfg,
		Penalties:     penalties,
		Contributions: contributions,
		Expenses:      expenses,
	}, nil
}

// ---- helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPenalty(row rowScanner) (core.Penalty, error) {
	var p core.Penalty
	var dateStr string
	var paid, viaRecon int
	var reconciledStr sql.NullString
	if err := row.Scan(&p.ID, &p.MemberID, &p.Amount.Cents, &p.Reason, &dateStr,
		&paid, &viaRecon, &reconciledStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Penalty{}, err
		}
		return core.Penalty{}, fmt.Errorf("scan penalty: %w", err)
	}
	p.IsPaid = paid != 0
	p.PaidViaReconciliation = viaRecon != 0

	var err error
	if p.Date, err = time.Parse(dateFormat, dateStr); err != nil {
		return core.Penalty{}, fmt.Errorf("parse penalty date: %w", err)
	}
	if reconciledStr.Valid {
		t, err := time.Parse(dateFormat, reconciledStr.String)
		if err != nil {
			return core.Penalty{}, fmt.Errorf("parse reconciled_at: %w", err)
		}
		p.ReconciledAt = &t
	}
	return p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateFormat)
}
