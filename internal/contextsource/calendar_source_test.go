package contextsource

import (
	"context"
	"errors"
	"log/slog"
	"io"
	"testing"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

type fakeCalendar struct {
	events []contextmodel.CalendarEvent
	err    error
}

func (f *fakeCalendar) UpcomingEvents(ctx context.Context, window time.Duration) ([]contextmodel.CalendarEvent, error) {
	return f.events, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCalendarSourceNoCredentialsIsSilentlyEmpty(t *testing.T) {
	src := NewCalendarSource(nil, discardLogger())
	patch := src.Gather(context.Background(), nil)
	if patch.HasCalendar {
		t.Error("expected no calendar data with nil collaborator")
	}
}

func TestCalendarSourceErrorIsSilentlyEmpty(t *testing.T) {
	src := NewCalendarSource(&fakeCalendar{err: errors.New("no credentials")}, discardLogger())
	patch := src.Gather(context.Background(), nil)
	if patch.HasCalendar {
		t.Error("expected absent patch on collaborator error")
	}
}

func TestCalendarSourceSortsAndCapsAtThree(t *testing.T) {
	now := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
	events := []contextmodel.CalendarEvent{
		{Summary: "D", Start: now.Add(4 * time.Hour), End: now.Add(5 * time.Hour)},
		{Summary: "A", Start: now.Add(1 * time.Hour), End: now.Add(2 * time.Hour)},
		{Summary: "C", Start: now.Add(3 * time.Hour), End: now.Add(4 * time.Hour)},
		{Summary: "B", Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour)},
	}
	src := NewCalendarSource(&fakeCalendar{events: events}, discardLogger())
	src.now = func() time.Time { return now }

	patch := src.Gather(context.Background(), nil)
	if !patch.HasCalendar {
		t.Fatal("expected calendar data")
	}
	if len(patch.UpcomingEvents) != 3 {
		t.Fatalf("got %d events, want 3", len(patch.UpcomingEvents))
	}
	if patch.UpcomingEvents[0].Summary != "A" || patch.UpcomingEvents[2].Summary != "C" {
		t.Errorf("events not sorted by start: %+v", patch.UpcomingEvents)
	}
}

func TestCalendarSourceCurrentEvent(t *testing.T) {
	now := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
	events := []contextmodel.CalendarEvent{
		{Summary: "Standup", Start: now.Add(-10 * time.Minute), End: now.Add(10 * time.Minute)},
	}
	src := NewCalendarSource(&fakeCalendar{events: events}, discardLogger())
	src.now = func() time.Time { return now }

	patch := src.Gather(context.Background(), nil)
	if patch.CurrentEvent != "Standup" {
		t.Errorf("CurrentEvent = %q, want Standup", patch.CurrentEvent)
	}
}
