package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stammtisch/internal/amqp"
	"stammtisch/internal/cache"
	"stammtisch/internal/core"
	"stammtisch/internal/storage"
)

// KasseService orchestrates all user-driven writes: it persists the document,
// then publishes the change so the worker re-derives penalties and the ledger
// export. The write succeeds even when the broker is down; the change message
// is best-effort and the next successful one triggers a full recompute anyway.
type KasseService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	birthdays  *BirthdayGenerator
	names      *cache.LRUCache[string]
}

func NewKasseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, birthdays *BirthdayGenerator) *KasseService {
	return &KasseService{
		storage:    storage,
		amqpClient: amqpClient,
		birthdays:  birthdays,
		names:      cache.NewLRUCache[string](256, 5*time.Minute),
	}
}

// ---- Members ----

func (s *KasseService) CreateMember(ctx context.Context, name, birthday string) (core.Member, error) {
	m := core.Member{ID: uuid.NewString(), Name: name, Birthday: birthday}
	if err := s.storage.CreateMember(ctx, m); err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}
	s.publish(ctx, amqp.CollectionMembers, m.ID, m.ID, amqp.OpCreated)
	s.syncBirthday(ctx, m)
	return m, nil
}

func (s *KasseService) GetMember(ctx context.Context, id string) (core.Member, error) {
	return s.storage.GetMember(ctx, id)
}

func (s *KasseService) ListMembers(ctx context.Context) ([]core.Member, error) {
	return s.storage.ListMembers(ctx)
}

func (s *KasseService) UpdateMember(ctx context.Context, m core.Member) error {
	if err := s.storage.UpdateMember(ctx, m); err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	s.names.Delete(m.ID)
	s.publish(ctx, amqp.CollectionMembers, m.ID, m.ID, amqp.OpUpdated)
	s.syncBirthday(ctx, m)
	return nil
}

// SetBirthday updates only the birthday field and synchronously re-syncs the
// member's calendar events.
func (s *KasseService) SetBirthday(ctx context.Context, memberID, birthday string) (core.Member, error) {
	m, err := s.storage.GetMember(ctx, memberID)
	if err != nil {
		return core.Member{}, err
	}
	m.Birthday = birthday
	if err := s.storage.UpdateMember(ctx, m); err != nil {
		return core.Member{}, fmt.Errorf("update member: %w", err)
	}
	s.publish(ctx, amqp.CollectionMembers, m.ID, m.ID, amqp.OpUpdated)
	s.syncBirthday(ctx, m)
	return m, nil
}

func (s *KasseService) DeleteMember(ctx context.Context, id string) error {
	if err := s.storage.DeleteMember(ctx, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	s.names.Delete(id)
	// Their birthday events go with them; penalties and expenses stay and
	// fall back to the unknown-member display name.
	if s.birthdays != nil {
		if err := s.birthdays.Sync(ctx, id, "", ""); err != nil {
			slog.ErrorContext(ctx, "Failed to remove birthday events for deleted member",
				"member_id", id, "error", err)
		}
	}
	s.publish(ctx, amqp.CollectionMembers, id, id, amqp.OpDeleted)
	return nil
}

// MemberName resolves a member id for display, defaulting to the
// unknown-member name instead of failing.
func (s *KasseService) MemberName(ctx context.Context, id string) string {
	if id == "" {
		return core.UnknownMemberName
	}
	if name, ok := s.names.Get(id); ok {
		return name
	}
	m, err := s.storage.GetMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.UnknownMemberName
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to resolve member name", "member_id", id, "error", err)
		return core.UnknownMemberName
	}
	s.names.Set(id, m.Name)
	return m.Name
}

// ---- Penalties ----

func (s *KasseService) CreatePenalty(ctx context.Context, memberID string, amount core.Money, reason string, date time.Time) (core.Penalty, error) {
	p := core.Penalty{
		ID:       uuid.NewString(),
		MemberID: memberID,
		Amount:   amount,
		Reason:   reason,
		Date:     date,
	}
	if err := s.storage.CreatePenalty(ctx, p); err != nil {
		return core.Penalty{}, fmt.Errorf("create penalty: %w", err)
	}
	s.publish(ctx, amqp.CollectionPenalties, p.ID, p.MemberID, amqp.OpCreated)
	return p, nil
}

func (s *KasseService) ListPenalties(ctx context.Context) ([]core.Penalty, error) {
	return s.storage.ListPenalties(ctx)
}

func (s *KasseService) UpdatePenalty(ctx context.Context, p core.Penalty) error {
	if err := s.storage.UpdatePenalty(ctx, p); err != nil {
		return fmt.Errorf("update penalty: %w", err)
	}
	s.publish(ctx, amqp.CollectionPenalties, p.ID, p.MemberID, amqp.OpUpdated)
	return nil
}

// PayPenalty marks a penalty as paid by hand. Hand-paid penalties are cash
// income and are never auto-reverted by reconciliation.
func (s *KasseService) PayPenalty(ctx context.Context, id string) error {
	if err := s.storage.MarkPenaltyPaid(ctx, id, false, time.Time{}); err != nil {
		return fmt.Errorf("pay penalty: %w", err)
	}
	s.publish(ctx, amqp.CollectionPenalties, id, "", amqp.OpUpdated)
	return nil
}

func (s *KasseService) DeletePenalty(ctx context.Context, id string) error {
	if err := s.storage.DeletePenalty(ctx, id); err != nil {
		return fmt.Errorf("delete penalty: %w", err)
	}
	s.publish(ctx, amqp.CollectionPenalties, id, "", amqp.OpDeleted)
	return nil
}

// ---- Contributions ----

func (s *KasseService) AddContribution(ctx context.Context, memberID string, month, year int) (core.Contribution, error) {
	c := core.Contribution{
		ID:       uuid.NewString(),
		MemberID: memberID,
		Month:    month,
		Year:     year,
		IsPaid:   true,
	}
	if err := s.storage.CreateContribution(ctx, c); err != nil {
		return core.Contribution{}, fmt.Errorf("add contribution: %w", err)
	}
	s.publish(ctx, amqp.CollectionContributions, c.ID, c.MemberID, amqp.OpCreated)
	return c, nil
}

func (s *KasseService) ListContributions(ctx context.Context) ([]core.Contribution, error) {
	return s.storage.ListContributions(ctx)
}

func (s *KasseService) DeleteContribution(ctx context.Context, id string) error {
	if err := s.storage.DeleteContribution(ctx, id); err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	s.publish(ctx, amqp.CollectionContributions, id, "", amqp.OpDeleted)
	return nil
}

// ---- Expenses ----

func (s *KasseService) CreateExpense(ctx context.Context, description string, amount core.Money, date time.Time, memberID string) (core.Expense, error) {
	e := core.Expense{
		ID:          uuid.NewString(),
		Description: description,
		Amount:      amount,
		Date:        date,
		MemberID:    memberID,
		MemberName:  s.MemberName(ctx, memberID),
	}
	if err := s.storage.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.publish(ctx, amqp.CollectionExpenses, e.ID, e.MemberID, amqp.OpCreated)
	return e, nil
}

func (s *KasseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx)
}

func (s *KasseService) UpdateExpense(ctx context.Context, e core.Expense) error {
	e.MemberName = s.MemberName(ctx, e.MemberID)
	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	s.publish(ctx, amqp.CollectionExpenses, e.ID, e.MemberID, amqp.OpUpdated)
	return nil
}

func (s *KasseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.publish(ctx, amqp.CollectionExpenses, id, "", amqp.OpDeleted)
	return nil
}

// ---- Cash config & summary ----

func (s *KasseService) SetStartingBalance(ctx context.Context, balance core.Money) error {
	if err := s.storage.SetStartingBalance(ctx, balance); err != nil {
		return fmt.Errorf("set starting balance: %w", err)
	}
	s.publish(ctx, amqp.CollectionCashConfig, "config", "", amqp.OpUpdated)
	return nil
}

// Summary derives the current cash box state from a fresh snapshot.
func (s *KasseService) Summary(ctx context.Context) (core.Summary, error) {
	snap, err := s.storage.LoadSnapshot(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load snapshot: %w", err)
	}
	return core.Summarize(snap.Config, snap.Penalties, snap.Contributions, snap.Expenses), nil
}

// ---- Events (user-owned calendar entries) ----

func (s *KasseService) CreateEvent(ctx context.Context, e core.Event) (core.Event, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	if err := s.storage.CreateEvent(ctx, e); err != nil {
		return core.Event{}, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

func (s *KasseService) ListEvents(ctx context.Context) ([]core.Event, error) {
	return s.storage.ListEvents(ctx)
}

func (s *KasseService) UpdateEvent(ctx context.Context, e core.Event) error {
	if err := s.storage.UpdateEvent(ctx, e); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (s *KasseService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.storage.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ---- internals ----

func (s *KasseService) publish(ctx context.Context, collection, docID, memberID, op string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping change message",
			"collection", collection, "doc_id", docID, "op", op)
		return
	}
	if err := s.amqpClient.PublishChange(ctx, amqp.NewChangeMessage(collection, docID, memberID, op)); err != nil {
		// The document is saved; reconciliation catches up on the next
		// successful notification.
		slog.ErrorContext(ctx, "Failed to publish change message",
			"collection", collection, "doc_id", docID, "op", op, "error", err)
	}
}

func (s *KasseService) syncBirthday(ctx context.Context, m core.Member) {
	if s.birthdays == nil {
		return
	}
	if err := s.birthdays.Sync(ctx, m.ID, m.Name, m.Birthday); err != nil {
		slog.ErrorContext(ctx, "Failed to sync birthday events",
			"member_id", m.ID, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *KasseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}
