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

const weeklyTemperature = 0.6
const weeklyMaxTokens = 1024

var weeklyPromptTemplate = `Generate a weekly activity review for your human.

## This Week's Screen Activity (%s to %s)
- Total tracked time: %d minutes
- Total context switches: %d

## Weekly Activity Breakdown
%s

## Project Allocation
%s

## Daily Breakdown
%s

Write a weekly activity review (5-10 sentences) covering:
1. Weekly overview — where did time go?
2. Daily patterns — which days were most productive?
3. Project allocation — balanced or lopsided?
4. Two suggestions for next week
5. One automation or workflow idea

Be concise. No preamble. Just the review text.`

var _ WeeklySummarizer = (*screenlog.Log)(nil)

// WeeklyActivityReview rolls up the last 7 days of screen observations
// into a weekly review, dispatched Sunday by the Scheduler's cron
// trigger. Ported from original_source's weekly_activity_review.py.
type WeeklyActivityReview struct {
	Screen   WeeklySummarizer
	LLM      llm.Client
	Delivery Delivery
	Now      func() time.Time
	Logger   *slog.Logger
}

func (j *WeeklyActivityReview) Name() string { return "weekly_activity_review" }

func (j *WeeklyActivityReview) Run(ctx context.Context) error {
	weekStart := mondayOf(j.Now())
	summary, err := j.Screen.WeeklySummary(weekStart)
	if err != nil {
		return err
	}
	if summary.TotalObservations == 0 {
		j.Logger.Info("weekly_activity_review: no observations this week, skipping")
		return nil
	}

	prompt := fmt.Sprintf(weeklyPromptTemplate,
		summary.WeekStart.Format("2006-01-02"), summary.WeekEnd.Format("2006-01-02"),
		summary.TotalTrackedMinutes, summary.TotalObservations,
		formatMinuteBreakdown(summary.ByActivitySecs, "No data"),
		formatMinuteBreakdown(summary.ByProjectSecs, "No projects detected"),
		formatDailyBreakdown(summary.DailyBreakdown),
	)

	text, err := j.LLM.Complete(ctx, prompt, llm.Options{Temperature: weeklyTemperature, MaxTokens: weeklyMaxTokens})
	if err != nil {
		j.Logger.Warn("weekly_activity_review LLM call failed", "error", err)
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
		Reasoning:        "Scheduled weekly activity review",
	}
	j.Delivery.Dispatch(msg, true)
	return nil
}

func formatDailyBreakdown(days []screenlog.DayBreakdown) string {
	var b strings.Builder
	for _, d := range days {
		if d.Observations == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %dm tracked, %d switches\n", d.Date.Format("2006-01-02"), d.TrackedMinutes, d.Observations)
	}
	if b.Len() == 0 {
		return "No daily data"
	}
	return strings.TrimRight(b.String(), "\n")
}
