// Package userstate implements the pure state-derivation and delivery-gate
// logic. Every function here is a pure transformation of its arguments: no
// clock reads beyond what is passed in, no I/O, no locking. This mirrors
// the teacher's separation of pure session-activity classification
// (internal/session) from the I/O-bound monitor loop that feeds it.
package userstate

import (
	"strings"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

// idleAwayThreshold is the idle duration after which a user with no
// current calendar event is considered away.
const idleAwayThreshold = 30 * time.Minute

var focusKeywords = []string{"focus", "deep work", "do not disturb"}

// Derive computes the coarse availability state top-down per the priority
// order: an explicit focus/DND calendar event wins over any other signal,
// any event at all implies a meeting, a blocked state with no current
// event is a transition, prolonged idleness implies away, time-of-day
// implies winding down in the evening/night, and the default is available.
func Derive(currentEvent string, previousState contextmodel.UserState, timeOfDay contextmodel.TimeOfDay, isWorkingHours bool, lastInteraction *time.Time, now time.Time) contextmodel.UserState {
	_ = isWorkingHours // not currently a discriminator, kept for signature symmetry with the spec

	lower := strings.ToLower(currentEvent)
	for _, kw := range focusKeywords {
		if strings.Contains(lower, kw) {
			return contextmodel.DeepWork
		}
	}

	if currentEvent != "" {
		return contextmodel.InMeeting
	}

	if previousState.Blocked() {
		return contextmodel.Transitioning
	}

	if lastInteraction != nil && now.Sub(*lastInteraction) > idleAwayThreshold {
		return contextmodel.Away
	}

	if timeOfDay == contextmodel.Evening || timeOfDay == contextmodel.Night {
		return contextmodel.WindingDown
	}

	return contextmodel.Available
}

// Decision is the outcome of the delivery gate.
type Decision int

const (
	Deliver Decision = iota
	Queue
	Drop
)

func (d Decision) String() string {
	switch d {
	case Deliver:
		return "deliver"
	case Queue:
		return "queue"
	default:
		return "drop"
	}
}

// ShouldDeliver evaluates the delivery gate top-down. Order matters: each
// rule is checked only if none above it matched.
func ShouldDeliver(state contextmodel.UserState, mode contextmodel.InterruptionMode, budget int, urgency int, kind contextmodel.InterventionType, isScheduled bool) Decision {
	if urgency >= 5 {
		return Deliver
	}
	if isScheduled {
		return Deliver
	}
	if state.Blocked() {
		return Queue
	}
	if mode == contextmodel.Focus {
		return Queue
	}
	if state == contextmodel.WindingDown && kind == contextmodel.Alert {
		return Deliver
	}
	if state == contextmodel.WindingDown {
		return Queue
	}
	if ShouldCostBudget(kind, isScheduled, urgency) && budget <= 0 {
		return Queue
	}
	return Deliver
}

// ShouldCostBudget reports whether a delivery of this shape, if delivered,
// draws down the attention budget.
func ShouldCostBudget(kind contextmodel.InterventionType, isScheduled bool, urgency int) bool {
	if kind == contextmodel.Ambient || kind == contextmodel.ProactiveBundle {
		return false
	}
	if isScheduled {
		return false
	}
	if urgency >= 5 {
		return false
	}
	return true
}

// DefaultBudget returns the per-mode daily attention-budget allotment.
func DefaultBudget(mode contextmodel.InterruptionMode) int {
	switch mode {
	case contextmodel.Focus:
		return 0
	case contextmodel.Balanced:
		return 5
	case contextmodel.Active:
		return 15
	default:
		return 5
	}
}
