// Package collabstub provides minimal, honest default implementations of
// the collab package's capability interfaces (MemoryStore, GoalRepository,
// SessionStore, Soul, Calendar) for running the daemon standalone, without
// a real memory/vector-search backend, goal tracker, session store, soul
// file, or calendar integration wired in. Every method here returns the same
// "nothing configured" answer the real collaborators' DataAbsence path
// would: empty results, never an error, so every job and source that
// depends on one of these degrades exactly the way spec.md's "missing
// credentials" / "no goals" cases already describe. A production
// deployment replaces these with real adapters behind the same
// interfaces; nothing in the core imports this package.
package collabstub

import (
	"context"
	"log/slog"
	"time"

	"github.com/assistantd/assistantd/internal/collab"
	"github.com/assistantd/assistantd/internal/contextmodel"
)

// Memory is a MemoryStore that never finds anything and discards writes,
// logging each call at debug so an operator can see the placeholder is
// in effect.
type Memory struct {
	Logger *slog.Logger
}

func (m Memory) Search(_ context.Context, query string, k int) ([]collab.MemoryItem, error) {
	m.Logger.Debug("collabstub: memory search (no backend configured)", "query", query, "k", k)
	return nil, nil
}

func (m Memory) Store(_ context.Context, text string, category string) error {
	m.Logger.Debug("collabstub: memory store discarded (no backend configured)", "category", category)
	return nil
}

var _ collab.MemoryStore = Memory{}

// Goals is a GoalRepository with no goals registered: an empty active
// list and a dashboard reporting full completion with nothing behind,
// which goal_check renders as "on_track" rather than misreporting
// "goal_behind" for a user who hasn't configured goal tracking at all.
type Goals struct {
	Logger *slog.Logger
}

func (g Goals) ListActive(context.Context) ([]collab.Goal, error) {
	return nil, nil
}

func (g Goals) Dashboard(context.Context) (collab.GoalDashboard, error) {
	return collab.GoalDashboard{CompletionRatio: 1, BehindCount: 0}, nil
}

var _ collab.GoalRepository = Goals{}

// Sessions is a SessionStore with nothing to consolidate: UpdatedSince
// always reports no sessions changed, so memory_consolidation's per-tick
// work is a no-op until a real session store is wired in.
type Sessions struct {
	Logger *slog.Logger
}

func (s Sessions) UpdatedSince(context.Context, time.Time, int) ([]collab.Session, error) {
	return nil, nil
}

func (s Sessions) TranscriptText(context.Context, string, int) (string, error) {
	return "", nil
}

var _ collab.SessionStore = Sessions{}

// SoulFile is a Soul with no identity file configured: reads come back
// empty and section updates are discarded.
type SoulFile struct {
	Logger *slog.Logger
}

func (s SoulFile) Read(context.Context) (string, error) {
	return "", nil
}

func (s SoulFile) UpdateSection(_ context.Context, section, _ string) error {
	s.Logger.Debug("collabstub: soul update discarded (no soul file configured)", "section", section)
	return nil
}

var _ collab.Soul = SoulFile{}

// Calendar is a Calendar collaborator with no credentials configured: it
// always reports no events. Unlike a nil Calendar, which makes
// contextsource.CalendarSource return an absent patch, this placeholder
// yields a present, empty calendar patch, so the calendar source counts
// as a success toward dataQuality.
type Calendar struct{}

func (c Calendar) UpcomingEvents(context.Context, time.Duration) ([]contextmodel.CalendarEvent, error) {
	return nil, nil
}

var _ collab.Calendar = Calendar{}
