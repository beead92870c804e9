package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/assistantd/assistantd/internal/screenlog"
)

func TestActivityDigestSkipsWhenNoObservations(t *testing.T) {
	delivery := &fakeDelivery{}
	job := &ActivityDigest{
		Screen:   &fakeScreenSummary{daily: screenlog.DailySummaryResult{}},
		LLM:      &fakeLLM{response: "should not be used"},
		Delivery: delivery,
		Now:      func() time.Time { return time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC) },
		Logger:   discardLogger(),
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(delivery.messages) != 0 {
		t.Errorf("messages = %d, want 0", len(delivery.messages))
	}
}

func TestActivityDigestDispatchesAdvisory(t *testing.T) {
	delivery := &fakeDelivery{}
	job := &ActivityDigest{
		Screen: &fakeScreenSummary{daily: screenlog.DailySummaryResult{
			TotalObservations:   4,
			TotalTrackedMinutes: 120,
			SwitchCount:         4,
			ByActivitySecs:      map[string]int{"coding": 3600},
		}},
		LLM:      &fakeLLM{response: "Busy coding day."},
		Delivery: delivery,
		Now:      func() time.Time { return time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC) },
		Logger:   discardLogger(),
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(delivery.messages) != 1 || delivery.messages[0].Content != "Busy coding day." {
		t.Errorf("messages = %+v", delivery.messages)
	}
	if !delivery.scheduled[0] {
		t.Error("activity digest must dispatch as scheduled")
	}
}
