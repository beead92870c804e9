package screenlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

func openTest(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "screen.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestInsertBackfillsPreviousDuration(t *testing.T) {
	l := openTest(t)
	base := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)

	first, err := l.Insert(Observation{Timestamp: base, AppName: "VS Code", ActivityType: contextmodel.Coding})
	if err != nil {
		t.Fatalf("Insert first: %v", err)
	}
	if first.DurationSeconds != nil {
		t.Error("expected first insert to have nil duration")
	}

	_, err = l.Insert(Observation{Timestamp: base.Add(10 * time.Minute), AppName: "Chrome", ActivityType: contextmodel.Browsing})
	if err != nil {
		t.Fatalf("Insert second: %v", err)
	}

	summary, err := l.DailySummary(base)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if summary.TotalObservations != 2 {
		t.Fatalf("TotalObservations = %d, want 2", summary.TotalObservations)
	}
	if summary.ByActivitySecs["coding"] != 600 {
		t.Errorf("coding secs = %d, want 600", summary.ByActivitySecs["coding"])
	}
	if summary.ByActivitySecs["browsing"] != 0 {
		t.Errorf("browsing (most recent, open) secs = %d, want 0", summary.ByActivitySecs["browsing"])
	}
}

func TestDailySummaryExcludesBlocked(t *testing.T) {
	l := openTest(t)
	base := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	l.Insert(Observation{Timestamp: base, AppName: "A", ActivityType: contextmodel.Coding, Blocked: true})
	l.Insert(Observation{Timestamp: base.Add(5 * time.Minute), AppName: "B", ActivityType: contextmodel.Coding})

	summary, err := l.DailySummary(base)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if summary.TotalObservations != 1 {
		t.Errorf("TotalObservations = %d, want 1 (blocked excluded)", summary.TotalObservations)
	}
}

func TestComputeStreaksCollapsesConsecutiveSameActivity(t *testing.T) {
	base := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	d1, d2, d3 := 600, 300, 900
	obs := []lightObservation{
		{Timestamp: base, ActivityType: "coding", DurationSeconds: &d1},
		{Timestamp: base.Add(10 * time.Minute), ActivityType: "coding", DurationSeconds: &d2},
		{Timestamp: base.Add(15 * time.Minute), ActivityType: "browsing", DurationSeconds: &d3},
	}
	streaks := computeStreaks(obs)
	if len(streaks) != 2 {
		t.Fatalf("len(streaks) = %d, want 2", len(streaks))
	}
	// Both streaks tie at 15 minutes; a stable sort preserves chronological
	// order for ties, so coding (computed first) stays ahead of browsing.
	if streaks[0].Activity != "coding" || streaks[0].DurationMin != 15 {
		t.Errorf("streaks[0] = %+v, want coding 15", streaks[0])
	}
	if streaks[1].Activity != "browsing" || streaks[1].DurationMin != 15 {
		t.Errorf("streaks[1] = %+v, want browsing 15", streaks[1])
	}
}

func TestWeeklySummaryAggregatesSevenDays(t *testing.T) {
	l := openTest(t)
	weekStart := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	l.Insert(Observation{Timestamp: weekStart.Add(time.Hour), AppName: "A", ActivityType: contextmodel.Coding})
	l.Insert(Observation{Timestamp: weekStart.Add(time.Hour + 20*time.Minute), AppName: "B", ActivityType: contextmodel.Coding})
	l.Insert(Observation{Timestamp: weekStart.AddDate(0, 0, 3), AppName: "C", ActivityType: contextmodel.Reading})

	summary, err := l.WeeklySummary(weekStart)
	if err != nil {
		t.Fatalf("WeeklySummary: %v", err)
	}
	if summary.TotalObservations != 3 {
		t.Errorf("TotalObservations = %d, want 3", summary.TotalObservations)
	}
	if len(summary.DailyBreakdown) != 7 {
		t.Errorf("len(DailyBreakdown) = %d, want 7", len(summary.DailyBreakdown))
	}
}

func TestCleanupOldRemovesObservationsPastRetention(t *testing.T) {
	l := openTest(t)
	base := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	l.Insert(Observation{Timestamp: base.AddDate(0, 0, -40), AppName: "old", ActivityType: contextmodel.Coding})
	l.Insert(Observation{Timestamp: base.AddDate(0, 0, -1), AppName: "recent", ActivityType: contextmodel.Coding})

	n, err := l.CleanupOld(30)
	if err != nil {
		t.Fatalf("CleanupOld: %v", err)
	}
	if n != 1 {
		t.Errorf("cleaned = %d, want 1", n)
	}
}
