package contextsource

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/assistantd/assistantd/internal/collab"
	"github.com/assistantd/assistantd/internal/contextmodel"
)

const calendarLookahead = 24 * time.Hour
const maxUpcomingEvents = 3

// CalendarSource reads upcoming events from the external Calendar
// collaborator. Any failure, including a missing-credentials error the
// collaborator surfaces, is treated as DataAbsence: the source returns an
// empty patch silently rather than propagating the error.
type CalendarSource struct {
	Calendar collab.Calendar
	Logger   *slog.Logger
	health   *sourceHealth
	now      func() time.Time
}

// NewCalendarSource builds a CalendarSource. cal may be nil, in which case
// Gather always returns an absent patch (no credentials configured).
func NewCalendarSource(cal collab.Calendar, logger *slog.Logger) *CalendarSource {
	return &CalendarSource{Calendar: cal, Logger: logger, health: newSourceHealth(), now: time.Now}
}

func (s *CalendarSource) Name() string { return "calendar" }

func (s *CalendarSource) Gather(ctx context.Context, _ *contextmodel.Snapshot) Patch {
	if s.Calendar == nil {
		return Patch{}
	}

	events, err := s.Calendar.UpcomingEvents(ctx, calendarLookahead)
	if err != nil {
		s.Logger.Debug("calendar source: no data", "error", err)
		s.health.recordEmpty()
		return Patch{}
	}
	s.health.recordSuccess()

	if len(events) == 0 {
		return Patch{HasCalendar: true}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })

	now := s.now()
	var currentEvent string
	for _, e := range events {
		if !now.Before(e.Start) && now.Before(e.End) {
			currentEvent = e.Summary
			break
		}
	}

	upcoming := events
	if len(upcoming) > maxUpcomingEvents {
		upcoming = upcoming[:maxUpcomingEvents]
	}

	return Patch{
		HasCalendar:    true,
		UpcomingEvents: upcoming,
		CurrentEvent:   currentEvent,
	}
}

func (s *CalendarSource) Health() Snapshot { return s.health.snapshot(s.Name()) }
