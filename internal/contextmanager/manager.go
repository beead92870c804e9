// Package contextmanager owns the single CurrentContext and fans refresh
// work out to the registered Sources, generalizing the teacher's
// monitor.Monitor poll loop (ticker-driven fan-out + health recording) and
// session.Store (copy-on-read snapshot publishing) into the single
// exclusive-lock rebuild the specification requires.
package contextmanager

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/contextsource"
	"github.com/assistantd/assistantd/internal/userstate"
)

// TransitionHook is invoked, in its own goroutine, whenever a refresh
// detects a BLOCKED -> UNBLOCKED edge. epoch is the value the Manager's
// internal counter held at the moment of dispatch; the hook must check
// EpochCurrent(epoch) before acting, so a rapid sequence of transitions
// only ever drains once for its most recent edge.
type TransitionHook func(ctx context.Context, epoch int64)

// Manager is the single read/write point for CurrentContext. The
// published snapshot and the transition hook are guarded by mu; the
// transition epoch is atomic.
type Manager struct {
	mu       sync.Mutex
	sources  []contextsource.Source
	snapshot *contextmodel.Snapshot

	morningBriefingHour int
	logger              *slog.Logger

	transitionEpoch atomic.Int64
	onTransition    TransitionHook

	now func() time.Time
}

// New constructs a Manager with a freshly defaulted snapshot. Sources are
// gathered in the order given on every refresh.
func New(sources []contextsource.Source, morningBriefingHour int, logger *slog.Logger) *Manager {
	m := &Manager{
		sources:             sources,
		morningBriefingHour: morningBriefingHour,
		logger:              logger,
		now:                 time.Now,
	}
	m.snapshot = &contextmodel.Snapshot{
		UserState:         contextmodel.Available,
		PreviousUserState: contextmodel.Available,
		InterruptionMode:  contextmodel.Balanced,
		DataQuality:       contextmodel.Good,
	}
	return m
}

// SetTransitionHook registers the callback invoked on a blocked->unblocked edge.
func (m *Manager) SetTransitionHook(hook TransitionHook) {
	m.mu.Lock()
	m.onTransition = hook
	m.mu.Unlock()
}

// SourceHealth reports per-source gather health for the HTTP surface.
// Sources without an external collaborator (TimeSource) are omitted.
func (m *Manager) SourceHealth() []contextsource.Snapshot {
	var out []contextsource.Snapshot
	for _, src := range m.sources {
		if hr, ok := src.(contextsource.HealthReporter); ok {
			out = append(out, hr.Health())
		}
	}
	return out
}

// EpochCurrent reports whether epoch is still the most recent transition
// epoch, i.e. whether a drain task dispatched with that epoch has not been
// superseded by a later transition.
func (m *Manager) EpochCurrent(epoch int64) bool {
	return m.transitionEpoch.Load() == epoch
}

// Get returns a defensive copy of the currently published snapshot. It
// takes the same lock as Refresh and the mutators, so a call made while a
// refresh is gathering from its sources waits until that refresh has
// published.
func (m *Manager) Get() *contextmodel.Snapshot {
	m.mu.Lock()
	s := m.snapshot
	m.mu.Unlock()
	return s.Clone()
}

// Refresh rebuilds the snapshot under an exclusive lock: it fans out to
// every source, derives userState and dataQuality, evaluates the daily
// budget reset, and detects blocked->unblocked transitions.
func (m *Manager) Refresh(ctx context.Context) *contextmodel.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.snapshot
	next := prev.Clone()

	// Fields carried forward unless a mutator or this refresh changes them.
	next.PreviousUserState = prev.UserState

	successes := 0
	for _, src := range m.sources {
		patch := m.gatherOne(ctx, src, prev)
		if patch.HasData() {
			successes++
		}
		applyPatch(next, patch)
	}

	next.UserState = deriveFromSnapshot(next, prev, m.now())
	next.DataQuality = dataQualityFor(successes, len(m.sources))

	m.maybeResetBudget(next)

	if prev.UserState.Blocked() && next.UserState.Unblocked() {
		epoch := m.transitionEpoch.Add(1)
		hook := m.onTransition
		if hook != nil {
			go hook(context.Background(), epoch)
		}
	}

	m.snapshot = next
	return next.Clone()
}

// gatherOne invokes a single source with a panic boundary: a panicking
// source contributes an absent patch, exactly as a returned DataAbsence
// would, and never tears down the refresh.
func (m *Manager) gatherOne(ctx context.Context, src contextsource.Source, prev *contextmodel.Snapshot) (patch contextsource.Patch) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("context source panicked", "source", src.Name(), "panic", r)
			patch = contextsource.Patch{}
		}
	}()
	return src.Gather(ctx, prev)
}

func applyPatch(next *contextmodel.Snapshot, p contextsource.Patch) {
	if p.HasTime {
		next.TimeOfDay = p.TimeOfDay
		next.DayOfWeek = p.DayOfWeek
		next.IsWorkingHours = p.IsWorkingHours
	}
	if p.HasCalendar {
		next.UpcomingEvents = p.UpcomingEvents
		next.CurrentEvent = p.CurrentEvent
	}
	if p.HasVCS {
		next.RecentActivity = p.RecentActivity
	}
	if p.HasGoals {
		next.ActiveGoalsSummary = p.ActiveGoalsSummary
	}
}

func deriveFromSnapshot(next, prev *contextmodel.Snapshot, now time.Time) contextmodel.UserState {
	return userstate.Derive(next.CurrentEvent, prev.UserState, next.TimeOfDay, next.IsWorkingHours, next.LastInteraction, now)
}

func dataQualityFor(successes, total int) contextmodel.DataQuality {
	if total == 0 {
		return contextmodel.Stale
	}
	switch {
	case successes == total:
		return contextmodel.Good
	case successes > 0:
		return contextmodel.Degraded
	default:
		return contextmodel.Stale
	}
}

// maybeResetBudget implements the date-based (not duration-based) daily
// reset so it is immune to clock jumps: absent reset timestamp resets
// immediately; a new calendar day at/after the briefing hour resets; and
// the same day crossing the briefing hour boundary resets exactly once.
func (m *Manager) maybeResetBudget(next *contextmodel.Snapshot) {
	now := m.now()

	if next.AttentionBudgetLastReset == nil {
		m.resetBudget(next, now)
		return
	}

	resetDate := next.AttentionBudgetLastReset.In(now.Location())
	today := truncateToDate(now)
	resetDay := truncateToDate(resetDate)

	if today.After(resetDay) && now.Hour() >= m.morningBriefingHour {
		m.resetBudget(next, now)
		return
	}

	if today.Equal(resetDay) && resetDate.Hour() < m.morningBriefingHour && m.morningBriefingHour <= now.Hour() {
		m.resetBudget(next, now)
	}
}

func (m *Manager) resetBudget(next *contextmodel.Snapshot, now time.Time) {
	next.AttentionBudgetRemaining = userstate.DefaultBudget(next.InterruptionMode)
	t := now
	next.AttentionBudgetLastReset = &t
}

func truncateToDate(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
