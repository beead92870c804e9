package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/assistantd/assistantd/internal/collab"
	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/llm"
)

const briefingTemperature = 0.6
const briefingMaxTokens = 768
const briefingMemoryLookup = 5

var briefingPromptTemplate = `Generate a concise morning briefing for your human.

## Current Context
%s

## Relevant Memories
%s

Write a short morning briefing (4-8 sentences) covering:
1. What's on the calendar and what deserves attention first.
2. Anything carried over from recent activity or goals.
3. One concrete suggestion for how to start the day.

Be concise. No preamble. Just the briefing text.`

// DailyBriefing builds a briefing prompt from context + relevant memories
// and dispatches it as a scheduled advisory, generalizing the
// prompt-construction pattern of original_source's
// activity_digest.py/weekly_activity_review.py to the briefing job, which
// original_source itself left as a stub.
type DailyBriefing struct {
	Context  ContextRefresher
	Memory   collab.MemoryStore
	LLM      llm.Client
	Delivery Delivery
	Now      func() time.Time
	Logger   *slog.Logger
}

func (j *DailyBriefing) Name() string { return "daily_briefing" }

func (j *DailyBriefing) Run(ctx context.Context) error {
	snap := j.Context.Refresh(ctx)
	block := snap.FormatPromptBlock(j.Now())
	memories := formatMemories(j.Memory.Search(ctx, "morning briefing", briefingMemoryLookup))

	prompt := fmt.Sprintf(briefingPromptTemplate, block, memories)

	text, err := j.LLM.Complete(ctx, prompt, llm.Options{Temperature: briefingTemperature, MaxTokens: briefingMaxTokens})
	if err != nil {
		j.Logger.Warn("daily_briefing LLM call failed", "error", err)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	msg := contextmodel.Message{
		Content:          text,
		InterventionType: contextmodel.Advisory,
		Urgency:          3,
		Reasoning:        "Scheduled daily briefing",
	}
	j.Delivery.Dispatch(msg, true)
	return nil
}

func formatMemories(items []collab.MemoryItem, err error) string {
	if err != nil || len(items) == 0 {
		return "No relevant memories"
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
