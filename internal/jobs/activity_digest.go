package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/llm"
	"github.com/assistantd/assistantd/internal/screenlog"
)

const digestTemperature = 0.6
const digestMaxTokens = 768

var digestPromptTemplate = `Generate a concise daily activity digest for your human.

## Today's Screen Activity
- Total tracked time: %d minutes
- Context switches: %d

## Time by Activity Type
%s

## Time by Project
%s

## Longest Focus Streaks
%s

Write a short activity digest (4-8 sentences) covering:
1. Time distribution highlights (where did most time go?)
2. Focus patterns (long streaks? frequent switching?)
3. One concrete observation about work patterns
4. One suggestion for tomorrow

Be concise. No preamble. Just the digest text.`

var _ DailySummarizer = (*screenlog.Log)(nil)

// ActivityDigest summarizes the day's screen observations and dispatches
// the digest as a scheduled advisory, ported from original_source's
// activity_digest.py.
type ActivityDigest struct {
	Screen   DailySummarizer
	LLM      llm.Client
	Delivery Delivery
	Now      func() time.Time
	Logger   *slog.Logger
}

func (j *ActivityDigest) Name() string { return "activity_digest" }

func (j *ActivityDigest) Run(ctx context.Context) error {
	summary, err := j.Screen.DailySummary(j.Now())
	if err != nil {
		return err
	}
	if summary.TotalObservations == 0 {
		j.Logger.Info("activity_digest: no observations today, skipping")
		return nil
	}

	prompt := fmt.Sprintf(digestPromptTemplate,
		summary.TotalTrackedMinutes, summary.SwitchCount,
		formatMinuteBreakdown(summary.ByActivitySecs, "No data"),
		formatMinuteBreakdown(summary.ByProjectSecs, "No projects detected"),
		formatStreaks(summary.LongestStreaks),
	)

	text, err := j.LLM.Complete(ctx, prompt, llm.Options{Temperature: digestTemperature, MaxTokens: digestMaxTokens})
	if err != nil {
		j.Logger.Warn("activity_digest LLM call failed", "error", err)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	msg := contextmodel.Message{
		Content:          text,
		InterventionType: contextmodel.Advisory,
		Urgency:          2,
		Reasoning:        "Scheduled daily activity digest",
	}
	j.Delivery.Dispatch(msg, true)
	return nil
}

func formatMinuteBreakdown(secs map[string]int, ifEmpty string) string {
	lines := sortedBreakdown(secs)
	if len(lines) == 0 {
		return ifEmpty
	}
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s: %dm\n", l.label, l.secs/60)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStreaks(streaks []screenlog.Streak) string {
	if len(streaks) == 0 {
		return "No significant streaks"
	}
	var b strings.Builder
	for _, s := range streaks {
		fmt.Fprintf(&b, "- %s: %dm (started %s)\n", s.Activity, s.DurationMin, s.StartedAt.Format("2006-01-02T15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}
