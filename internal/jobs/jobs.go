// Package jobs implements the Scheduler's nine registered background
// jobs (spec.md §4.6), each a small struct satisfying scheduler.Job with
// its collaborators injected. The LLM-driven jobs (strategist_tick,
// daily_briefing, evening_review, activity_digest, weekly_activity_review)
// generalize the prompt-construction shape of original_source's
// activity_digest.py/weekly_activity_review.py to the jobs whose Python
// counterparts were left as stubs; calendar_scan, memory_consolidation
// (which also calls the LLM) and screen_cleanup port their
// original_source logic directly.
package jobs

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/screenlog"
	"github.com/assistantd/assistantd/internal/userstate"
)

// Delivery is the slice of delivery.Coordinator every dispatching job needs.
type Delivery interface {
	Dispatch(msg contextmodel.Message, isScheduled bool) userstate.Decision
}

// ContextReader reads the published snapshot without forcing a rebuild.
type ContextReader interface {
	Get() *contextmodel.Snapshot
}

// ContextRefresher rebuilds the snapshot before a job reasons over it.
type ContextRefresher interface {
	Refresh(ctx context.Context) *contextmodel.Snapshot
}

// AmbientBroadcaster is the narrow slice of broadcast.Broadcaster the
// goal_check job needs: a status tag outside the delivery gate.
type AmbientBroadcaster interface {
	SendAmbient(content, state string)
}

// ScreenCleaner is the slice of screenlog.Log the screen_cleanup job needs.
type ScreenCleaner interface {
	CleanupOld(retentionDays int) (int, error)
}

// DailySummarizer is the slice of screenlog.Log the activity_digest job needs.
type DailySummarizer interface {
	DailySummary(day time.Time) (screenlog.DailySummaryResult, error)
}

// WeeklySummarizer is the slice of screenlog.Log the weekly_activity_review
// job needs.
type WeeklySummarizer interface {
	WeeklySummary(weekStart time.Time) (screenlog.WeeklySummaryResult, error)
}

// breakdownLine is one sorted (label, seconds) pair used to render the
// "time by X" sections of the digest/review prompts.
type breakdownLine struct {
	label string
	secs  int
}

// sortedBreakdown orders a label->seconds map longest-first, for stable,
// human-readable prompt sections.
func sortedBreakdown(m map[string]int) []breakdownLine {
	lines := make([]breakdownLine, 0, len(m))
	for k, v := range m {
		lines = append(lines, breakdownLine{label: k, secs: v})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].secs != lines[j].secs {
			return lines[i].secs > lines[j].secs
		}
		return lines[i].label < lines[j].label
	})
	return lines
}

// stripCodeFences removes a wrapping markdown code fence from an LLM
// response, tolerating a language tag on the opening fence.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = text[3:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// mondayOf returns the Monday (00:00) of the Monday-start week containing t,
// mirroring original_source's `today - timedelta(days=today.weekday())`.
func mondayOf(t time.Time) time.Time {
	goWeekday := int(t.Weekday())   // Sunday=0 .. Saturday=6
	pyWeekday := (goWeekday + 6) % 7 // Monday=0 .. Sunday=6
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, -pyWeekday)
}
