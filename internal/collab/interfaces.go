// Package collab declares the capability interfaces for every external
// collaborator this runtime treats as out of scope: the long-term memory
// store, the goal repository, session/message persistence, and the
// calendar provider the CalendarSource reads from. Only the interface
// shape is defined here; no implementation is provided, per the stated
// scope boundary.
package collab

import (
	"context"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

// MemoryItem is one result returned by MemoryStore.Search.
type MemoryItem struct {
	Text     string
	Category string
	Score    float64
}

// MemoryStore is the long-term memory / vector-search collaborator.
type MemoryStore interface {
	Search(ctx context.Context, query string, k int) ([]MemoryItem, error)
	Store(ctx context.Context, text string, category string) error
}

// Goal is one entry in the goal repository's active list.
type Goal struct {
	ID       string
	Domain   string
	Title    string
	Status   string
	Progress float64
}

// GoalDashboard summarizes goal completion for the goal_check job.
type GoalDashboard struct {
	CompletionRatio float64
	BehindCount     int
}

// GoalRepository is the goal-tracking collaborator.
type GoalRepository interface {
	ListActive(ctx context.Context) ([]Goal, error)
	Dashboard(ctx context.Context) (GoalDashboard, error)
}

// Session is the minimal shape SessionStore exposes to the memory
// consolidation job: enough to know which sessions changed recently.
type Session struct {
	ID        string
	UpdatedAt time.Time
}

// SessionStore is the session/message-persistence collaborator.
type SessionStore interface {
	UpdatedSince(ctx context.Context, cutoff time.Time, limit int) ([]Session, error)
	TranscriptText(ctx context.Context, sessionID string, limit int) (string, error)
}

// Soul is the assistant's durable identity/values/goals file. The
// consolidation job writes extracted sections through this boundary; the
// file's format and location belong to the collaborator.
type Soul interface {
	Read(ctx context.Context) (string, error)
	UpdateSection(ctx context.Context, section, content string) error
}

// Calendar is the external calendar collaborator CalendarSource reads
// from. Returning an empty slice (not an error) signals "no credentials
// configured" per the DataAbsence taxonomy; the source converts any error
// into the same silent-empty behavior.
type Calendar interface {
	UpcomingEvents(ctx context.Context, window time.Duration) ([]contextmodel.CalendarEvent, error)
}
