package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/assistantd/assistantd/internal/collab"
	"github.com/assistantd/assistantd/internal/llm"
)

const memoryConsolidationLookback = time.Hour
const memoryConsolidationLimit = 10
const transcriptMessageLimit = 30
const minTranscriptLength = 50
const minMemoryLength = 10

const consolidationTemperature = 0.3
const consolidationMaxTokens = 1024

var consolidationPromptTemplate = `Analyze this conversation and extract key information to remember long-term.

Return a JSON object with these fields:
- "facts": list of factual statements learned about the user (name, role, preferences, etc.)
- "patterns": list of behavioral patterns observed
- "goals": list of goals or intentions the user mentioned
- "reflections": list of insights or decisions made
- "soul_updates": dict of soul sections to update (only if significant new identity/goal info). Keys are section names like "Identity", "Values", "Goals". Values are the new content. Return empty dict if no updates needed.

Be selective - only extract things worth remembering across future conversations.
If the conversation is trivial small talk with nothing worth remembering, return all empty lists and empty dict.

Conversation:
%s

Current soul file:
%s

Return ONLY valid JSON, no markdown fences.`

// consolidationResult is the extraction shape the LLM returns for one
// session's transcript.
type consolidationResult struct {
	Facts       []string          `json:"facts"`
	Patterns    []string          `json:"patterns"`
	Goals       []string          `json:"goals"`
	Reflections []string          `json:"reflections"`
	SoulUpdates map[string]string `json:"soul_updates"`
}

// MemoryConsolidation extracts durable facts/patterns/goals/reflections
// from sessions updated in the last hour and writes them to the
// MemoryStore and soul-file sections, ported from original_source's
// memory/consolidator.py. A single session's failure is logged and
// skipped rather than aborting the whole batch.
type MemoryConsolidation struct {
	Sessions collab.SessionStore
	Memory   collab.MemoryStore
	Soul     collab.Soul
	LLM      llm.Client
	Now      func() time.Time
	Logger   *slog.Logger
}

func (j *MemoryConsolidation) Name() string { return "memory_consolidation" }

func (j *MemoryConsolidation) Run(ctx context.Context) error {
	cutoff := j.Now().Add(-memoryConsolidationLookback)
	sessions, err := j.Sessions.UpdatedSince(ctx, cutoff, memoryConsolidationLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	consolidated := 0
	for _, s := range sessions {
		if err := j.consolidateOne(ctx, s.ID); err != nil {
			j.Logger.Warn("memory_consolidation failed for session", "session", s.ID, "error", err)
			continue
		}
		consolidated++
	}
	j.Logger.Info("memory_consolidation complete", "attempted", len(sessions), "consolidated", consolidated)
	return nil
}

func (j *MemoryConsolidation) consolidateOne(ctx context.Context, sessionID string) error {
	transcript, err := j.Sessions.TranscriptText(ctx, sessionID, transcriptMessageLimit)
	if err != nil {
		return err
	}
	if len(transcript) < minTranscriptLength {
		return nil
	}

	soul := ""
	if j.Soul != nil {
		if s, err := j.Soul.Read(ctx); err == nil {
			soul = s
		}
	}

	prompt := fmt.Sprintf(consolidationPromptTemplate, transcript, soul)
	raw, err := j.LLM.Complete(ctx, prompt, llm.Options{Temperature: consolidationTemperature, MaxTokens: consolidationMaxTokens})
	if err != nil {
		return err
	}

	var result consolidationResult
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &result); err != nil {
		return fmt.Errorf("parse consolidation response: %w", err)
	}

	stored := 0
	for _, group := range []struct {
		category string
		items    []string
	}{
		{"fact", result.Facts},
		{"pattern", result.Patterns},
		{"goal", result.Goals},
		{"reflection", result.Reflections},
	} {
		for _, item := range group.items {
			if len(item) <= minMemoryLength {
				continue
			}
			if err := j.Memory.Store(ctx, item, group.category); err != nil {
				j.Logger.Warn("memory store failed", "session", sessionID, "category", group.category, "error", err)
				continue
			}
			stored++
		}
	}

	if j.Soul != nil {
		for section, content := range result.SoulUpdates {
			if strings.TrimSpace(content) == "" {
				continue
			}
			if err := j.Soul.UpdateSection(ctx, section, content); err != nil {
				j.Logger.Warn("soul update failed", "section", section, "error", err)
				continue
			}
			j.Logger.Info("soul section updated", "section", section)
		}
	}

	j.Logger.Debug("session consolidated", "session", sessionID, "stored", stored)
	return nil
}
