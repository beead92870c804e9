// Package contextsource implements the four pure-ish context gatherers
// (time, calendar, VCS activity, goals) behind a single Source interface,
// generalizing the teacher's pluggable, polled monitor.Source
// (Discover/Parse) down to the single Gather operation the Context
// Manager needs, per the specification's "small sum type Source" design
// note.
package contextsource

import (
	"context"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

// Patch is what one Source contributes to a refresh. Only the HasX fields
// a source owns are meaningful; a source that failed or has nothing new
// to report leaves its HasX flag false and the Context Manager carries
// the previous value forward untouched.
type Patch struct {
	HasTime        bool
	TimeOfDay      contextmodel.TimeOfDay
	DayOfWeek      time.Weekday
	IsWorkingHours bool

	HasCalendar    bool
	UpcomingEvents []contextmodel.CalendarEvent
	CurrentEvent   string

	HasVCS         bool
	RecentActivity []contextmodel.VCSActivity

	HasGoals           bool
	ActiveGoalsSummary string
}

// HasData reports whether the patch carries any field at all.
func (p Patch) HasData() bool {
	return p.HasTime || p.HasCalendar || p.HasVCS || p.HasGoals
}

// Source is a single pure-ish context gatherer. Implementations never
// raise out of their own failures: a failing external collaborator
// (missing credentials, unreadable reflog) yields an empty Patch, not an
// error. Gather must respect ctx's deadline for any suspension point it
// crosses.
type Source interface {
	Name() string
	Gather(ctx context.Context, prev *contextmodel.Snapshot) Patch
}
