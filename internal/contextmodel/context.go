// Package contextmodel defines the shared data shapes that flow between
// context sources, the context manager, the user-state machine, and the
// delivery coordinator. None of these types perform I/O.
package contextmodel

import (
	"fmt"
	"strings"
	"time"
)

// CalendarEvent is one upcoming or current event on the user's calendar.
type CalendarEvent struct {
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// VCSActivity is one reflog entry within the lookback window.
type VCSActivity struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Snapshot is the immutable, published value of CurrentContext. The
// Context Manager publishes a new *Snapshot on every refresh and every
// mutator; callers of Get never receive a value anyone else can mutate.
type Snapshot struct {
	TimeOfDay      TimeOfDay    `json:"timeOfDay"`
	DayOfWeek      time.Weekday `json:"dayOfWeek"`
	IsWorkingHours bool         `json:"isWorkingHours"`

	UpcomingEvents []CalendarEvent `json:"upcomingEvents"`
	CurrentEvent   string          `json:"currentEvent,omitempty"`

	RecentActivity []VCSActivity `json:"recentActivity,omitempty"`

	ActiveGoalsSummary string `json:"activeGoalsSummary"`

	LastInteraction *time.Time `json:"lastInteraction,omitempty"`

	UserState                UserState        `json:"userState"`
	PreviousUserState        UserState        `json:"previousUserState"`
	InterruptionMode         InterruptionMode `json:"interruptionMode"`
	AttentionBudgetRemaining int              `json:"attentionBudgetRemaining"`
	AttentionBudgetLastReset *time.Time       `json:"attentionBudgetLastReset,omitempty"`

	ActiveWindow   string     `json:"activeWindow,omitempty"`
	ScreenContext  string     `json:"screenContext,omitempty"`
	LastSensorPost *time.Time `json:"lastSensorPost,omitempty"`

	CaptureMode CaptureMode `json:"captureMode"`

	DataQuality DataQuality `json:"dataQuality"`
}

// Clone returns a deep copy so a published snapshot can never be mutated
// through a reference a caller is holding onto.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	if len(s.UpcomingEvents) > 0 {
		c.UpcomingEvents = append([]CalendarEvent(nil), s.UpcomingEvents...)
	}
	if len(s.RecentActivity) > 0 {
		c.RecentActivity = append([]VCSActivity(nil), s.RecentActivity...)
	}
	if s.LastInteraction != nil {
		t := *s.LastInteraction
		c.LastInteraction = &t
	}
	if s.AttentionBudgetLastReset != nil {
		t := *s.AttentionBudgetLastReset
		c.AttentionBudgetLastReset = &t
	}
	if s.LastSensorPost != nil {
		t := *s.LastSensorPost
		c.LastSensorPost = &t
	}
	return &c
}

const promptScreenContextLimit = 500

// FormatPromptBlock renders the snapshot as the human-readable context
// block injected into strategist and briefing/review prompts. Mirrors the
// truncation and relative-time formatting of the context block the
// original assistant formats for its own prompts.
func (s *Snapshot) FormatPromptBlock(now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Time: %s, %s", s.TimeOfDay, s.DayOfWeek)
	if s.IsWorkingHours {
		b.WriteString(" (working hours)")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "State: %s (mode: %s, budget: %d)\n", s.UserState, s.InterruptionMode, s.AttentionBudgetRemaining)

	if s.CurrentEvent != "" {
		fmt.Fprintf(&b, "Current event: %s\n", s.CurrentEvent)
	}
	if len(s.UpcomingEvents) > 0 {
		fmt.Fprintf(&b, "Upcoming: %s\n", formatEvents(s.UpcomingEvents))
	}

	if len(s.RecentActivity) > 0 {
		fmt.Fprintf(&b, "Recent activity: %s\n", formatActivity(s.RecentActivity))
	}

	if s.ActiveGoalsSummary != "" {
		fmt.Fprintf(&b, "Goals: %s\n", s.ActiveGoalsSummary)
	}

	if s.ActiveWindow != "" {
		fmt.Fprintf(&b, "Active window: %s\n", s.ActiveWindow)
	}

	if s.ScreenContext != "" {
		sc := s.ScreenContext
		if len(sc) > promptScreenContextLimit {
			sc = sc[:promptScreenContextLimit]
		}
		fmt.Fprintf(&b, "Screen context: %s\n", sc)
	}

	if s.LastInteraction != nil {
		minutes := int(now.Sub(*s.LastInteraction).Minutes())
		fmt.Fprintf(&b, "Last interaction: %d minutes ago\n", minutes)
	} else {
		b.WriteString("Last interaction: never\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatEvents(events []CalendarEvent) string {
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, fmt.Sprintf("%s@%s", e.Summary, e.Start.Format("15:04")))
	}
	return strings.Join(parts, ", ")
}

func formatActivity(acts []VCSActivity) string {
	parts := make([]string, 0, len(acts))
	for _, a := range acts {
		parts = append(parts, a.Message)
	}
	return strings.Join(parts, "; ")
}

// SensorPatch is a partial update from the external Sensor collaborator.
// A nil field means "do not overwrite"; this is distinct from a field
// explicitly present with an empty value.
type SensorPatch struct {
	ActiveWindow  *string
	ScreenContext *string
}

// Message is the payload handed to the Delivery Coordinator's Dispatch
// operation.
type Message struct {
	Content          string
	InterventionType InterventionType
	Urgency          int
	Reasoning        string
}
