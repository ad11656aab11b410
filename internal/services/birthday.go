package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stammtisch/internal/core"
)

// EventStore is the slice of the repository the birthday generator needs.
type EventStore interface {
	ListBirthdayEvents(ctx context.Context, hostID string) ([]core.Event, error)
	CreateEvent(ctx context.Context, e core.Event) error
	UpdateEvent(ctx context.Context, e core.Event) error
	DeleteBirthdayEvents(ctx context.Context, hostID string) error
}

// BirthdayGenerator keeps one generator-owned calendar event per member and
// tracked year (current and next) in sync with the member's birthday field.
type BirthdayGenerator struct {
	events EventStore
	now    func() time.Time
	newID  func() string
}

func NewBirthdayGenerator(events EventStore) *BirthdayGenerator {
	return &BirthdayGenerator{
		events: events,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Sync brings the member's birthday events in line with the given birthday.
//
// An empty birthday deletes all generator-owned events for the member. A
// malformed one is a tolerated no-op: the member record may carry free-form
// text, and bad input must never break the save that triggered the sync.
// Calling Sync twice with unchanged inputs produces zero writes the second
// time.
func (g *BirthdayGenerator) Sync(ctx context.Context, memberID, name, birthday string) error {
	if g.events == nil {
		return fmt.Errorf("birthday generator not properly initialized")
	}

	if birthday == "" {
		if err := g.events.DeleteBirthdayEvents(ctx, memberID); err != nil {
			return fmt.Errorf("delete birthday events: %w", err)
		}
		slog.InfoContext(ctx, "Removed birthday events",
			"member_id", memberID)
		return nil
	}

	month, day, err := core.ParseBirthday(birthday)
	if errors.Is(err, core.ErrMalformedBirthday) {
		slog.DebugContext(ctx, "Skipping birthday sync, date not parseable",
			"member_id", memberID,
			"birthday", birthday)
		return nil
	}
	if err != nil {
		return err
	}

	existing, err := g.events.ListBirthdayEvents(ctx, memberID)
	if err != nil {
		return fmt.Errorf("list birthday events: %w", err)
	}
	byYear := make(map[int]core.Event, len(existing))
	for _, e := range existing {
		byYear[e.Year] = e
	}

	currentYear := g.now().Year()
	for _, year := range []int{currentYear, currentYear + 1} {
		// Noon keeps the date stable across timezone conversion. Feb 29
		// in a non-leap year normalizes to Mar 1; that roll-forward is
		// kept, not corrected.
		at := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.Local)

		want := core.Event{
			Title:       "Geburtstag " + name,
			Description: core.BirthdaySentinel,
			Date:        at.Format("2006-01-02"),
			Month:       int(at.Month()) - 1,
			Year:        at.Year(),
			Time:        "00:00",
			Location:    "",
			HostID:      memberID,
		}

		if have, ok := byYear[at.Year()]; ok {
			if have.Title == want.Title && have.Date == want.Date &&
				have.Month == want.Month && have.Year == want.Year {
				continue
			}
			have.Title = want.Title
			have.Date = want.Date
			have.Month = want.Month
			have.Year = want.Year
			if err := g.events.UpdateEvent(ctx, have); err != nil {
				return fmt.Errorf("update birthday event %s: %w", have.ID, err)
			}
			slog.InfoContext(ctx, "Updated birthday event",
				"member_id", memberID,
				"year", at.Year(),
				"date", want.Date)
			continue
		}

		want.ID = g.newID()
		want.CreatedAt = g.now()
		if err := g.events.CreateEvent(ctx, want); err != nil {
			return fmt.Errorf("create birthday event: %w", err)
		}
		slog.InfoContext(ctx, "Created birthday event",
			"member_id", memberID,
			"year", at.Year(),
			"date", want.Date)
	}

	return nil
}
