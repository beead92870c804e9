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

var eveningReviewPromptTemplate = `Generate a brief evening reflection for your human.

## Current Context
%s

## Relevant Memories
%s

Write a short evening reflection (4-8 sentences) covering:
1. What stood out about today's activity.
2. Progress (or lack of it) against open goals.
3. One thing to carry into tomorrow.

Be concise. No preamble. Just the reflection text.`

// EveningReview runs the same context+memory prompt flow as DailyBriefing
// with a reflective framing, per spec.md §4.6's "same flow for a
// reflection" description.
type EveningReview struct {
	Context  ContextRefresher
	Memory   collab.MemoryStore
	LLM      llm.Client
	Delivery Delivery
	Now      func() time.Time
	Logger   *slog.Logger
}

func (j *EveningReview) Name() string { return "evening_review" }

func (j *EveningReview) Run(ctx context.Context) error {
	snap := j.Context.Refresh(ctx)
	block := snap.FormatPromptBlock(j.Now())
	memories := formatMemories(j.Memory.Search(ctx, "evening reflection", briefingMemoryLookup))

	prompt := fmt.Sprintf(eveningReviewPromptTemplate, block, memories)

	text, err := j.LLM.Complete(ctx, prompt, llm.Options{Temperature: briefingTemperature, MaxTokens: briefingMaxTokens})
	if err != nil {
		j.Logger.Warn("evening_review LLM call failed", "error", err)
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
		Reasoning:        "Scheduled evening review",
	}
	j.Delivery.Dispatch(msg, true)
	return nil
}
