package queue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

func openTest(t *testing.T) *Queue {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insight.db")
	q, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func TestEnqueueAndDrainOrdersByUrgencyThenAge(t *testing.T) {
	q := openTest(t)
	base := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	tick := 0
	q.now = func() time.Time {
		t := base.Add(time.Duration(tick) * time.Minute)
		tick++
		return t
	}

	if _, err := q.Enqueue("low urgency older", contextmodel.Nudge, 1, "r1"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Enqueue("high urgency newer", contextmodel.Alert, 5, "r2"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Enqueue("low urgency newer", contextmodel.Nudge, 1, "r3"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	items, err := q.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	if items[0].Content != "high urgency newer" {
		t.Errorf("items[0] = %q, want highest urgency first", items[0].Content)
	}
	if items[1].Content != "low urgency older" || items[2].Content != "low urgency newer" {
		t.Errorf("tie order wrong: %q, %q", items[1].Content, items[2].Content)
	}
}

func TestDrainEmptiesTheQueueEntirely(t *testing.T) {
	q := openTest(t)
	q.Enqueue("a", contextmodel.Nudge, 1, "r")

	if _, err := q.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	items, err := q.Drain()
	if err != nil {
		t.Fatalf("second Drain: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty queue after drain, got %d items", len(items))
	}
}

func TestDrainExcludesExpiredButStillDeletesThem(t *testing.T) {
	q := openTest(t)
	base := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return base }
	q.Enqueue("stale", contextmodel.Nudge, 1, "r")

	q.now = func() time.Time { return base.Add(25 * time.Hour) }
	q.Enqueue("fresh", contextmodel.Nudge, 1, "r")

	items, err := q.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(items) != 1 || items[0].Content != "fresh" {
		t.Errorf("items = %+v, want only fresh", items)
	}

	count, err := q.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("count after drain = %d, want 0 (expired row also removed)", count)
	}
}

func TestCountExcludesExpired(t *testing.T) {
	q := openTest(t)
	base := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return base }
	q.Enqueue("old", contextmodel.Nudge, 1, "r")

	q.now = func() time.Time { return base.Add(25 * time.Hour) }
	n, err := q.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0 (entry expired)", n)
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	q := openTest(t)
	q.Enqueue("a", contextmodel.Advisory, 2, "r")

	peeked, err := q.Peek(10)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if len(peeked) != 1 {
		t.Fatalf("len = %d, want 1", len(peeked))
	}

	n, err := q.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count after Peek = %d, want 1 (unchanged)", n)
	}
}
