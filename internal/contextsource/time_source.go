package contextsource

import (
	"context"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

// TimeSource is a pure function of the current instant in the configured
// timezone; it owns no external collaborator and therefore never fails.
type TimeSource struct {
	Location          *time.Location
	WorkingHoursStart int
	WorkingHoursEnd   int
	now               func() time.Time
}

// NewTimeSource builds a TimeSource for the given location and working-hours band.
func NewTimeSource(loc *time.Location, workingHoursStart, workingHoursEnd int) *TimeSource {
	return &TimeSource{Location: loc, WorkingHoursStart: workingHoursStart, WorkingHoursEnd: workingHoursEnd, now: time.Now}
}

func (s *TimeSource) Name() string { return "time" }

func (s *TimeSource) Gather(_ context.Context, _ *contextmodel.Snapshot) Patch {
	now := s.now()
	if s.Location != nil {
		now = now.In(s.Location)
	}
	hour := now.Hour()

	var band contextmodel.TimeOfDay
	switch {
	case hour >= 5 && hour < 12:
		band = contextmodel.Morning
	case hour >= 12 && hour < 17:
		band = contextmodel.Afternoon
	case hour >= 17 && hour < 21:
		band = contextmodel.Evening
	default:
		band = contextmodel.Night
	}

	isWeekday := now.Weekday() != time.Saturday && now.Weekday() != time.Sunday
	isWorkingHours := isWeekday && hour >= s.WorkingHoursStart && hour < s.WorkingHoursEnd

	return Patch{
		HasTime:        true,
		TimeOfDay:      band,
		DayOfWeek:      now.Weekday(),
		IsWorkingHours: isWorkingHours,
	}
}
