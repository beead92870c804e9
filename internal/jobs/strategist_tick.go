package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/assistantd/assistantd/internal/contextmanager"
	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/llm"
)

var _ ContextRefresher = (*contextmanager.Manager)(nil)

const strategistTemperature = 0.4
const strategistMaxTokens = 512

var strategistPromptTemplate = `You periodically review the user's context and decide whether a proactive intervention is warranted.

Proactivity level: %d/5 (1=minimal, 5=very proactive).

## Current Context
%s

## Your Task
Analyze the context and decide:
1. Is there something the user should know right now?
2. Would a nudge, advisory, or alert help them?
3. Or is everything fine and no intervention is needed?

## Response Format
Return ONLY a JSON object (no markdown fences):
{
  "should_intervene": true/false,
  "content": "the message to send, if intervening",
  "intervention_type": "nudge" | "advisory" | "alert",
  "urgency": 1-5,
  "reasoning": "why you made this decision"
}

Guidelines:
- "nudge" = transient hint. "advisory" = surfaces the chat. "alert" = high-urgency surface.
- At proactivity_level 1-2, only intervene for urgent/time-sensitive items.
- At proactivity_level 3, intervene for helpful suggestions too.
- At proactivity_level 4-5, be more liberal with nudges and check-ins.
- If the user is in deep_work or a meeting, prefer NOT intervening unless urgent.`

// strategistResponse is the strategist's JSON response shape. Defaults are
// set before Unmarshal so a field the LLM omits falls back exactly as
// original_source's parse_strategist_response's dict.get defaults did.
type strategistResponse struct {
	ShouldIntervene  bool                          `json:"should_intervene"`
	Content          string                        `json:"content"`
	InterventionType contextmodel.InterventionType `json:"intervention_type"`
	Urgency          int                           `json:"urgency"`
	Reasoning        string                        `json:"reasoning"`
}

func defaultStrategistResponse(reasoning string) strategistResponse {
	return strategistResponse{InterventionType: contextmodel.Nudge, Urgency: 0, Reasoning: reasoning}
}

// parseStrategistResponse strips markdown code fences if present and
// parses the remainder as JSON, falling back to should_intervene=false
// with reasoning "Parse failure" on any error or empty input, exactly as
// original_source's agent/strategist.py:parse_strategist_response.
func parseStrategistResponse(raw string) strategistResponse {
	text := stripCodeFences(raw)
	if text == "" {
		return defaultStrategistResponse("Parse failure")
	}

	resp := strategistResponse{InterventionType: contextmodel.Nudge, Urgency: 3}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return defaultStrategistResponse("Parse failure")
	}
	return resp
}

// StrategistTick runs the state machine's "should I say something?" logic
// over the full prompt block, per spec.md §4.7.
// ProactivityLevel is read on every tick so config hot-reload takes
// effect without re-registering the job.
type StrategistTick struct {
	Context          ContextRefresher
	LLM              llm.Client
	Delivery         Delivery
	ProactivityLevel func() int
	Now              func() time.Time
	Logger           *slog.Logger
}

func (j *StrategistTick) Name() string { return "strategist_tick" }

func (j *StrategistTick) Run(ctx context.Context) error {
	snap := j.Context.Refresh(ctx)
	block := snap.FormatPromptBlock(j.Now())
	prompt := fmt.Sprintf(strategistPromptTemplate, j.ProactivityLevel(), block)

	raw, err := j.LLM.Complete(ctx, prompt, llm.Options{Temperature: strategistTemperature, MaxTokens: strategistMaxTokens})
	if err != nil {
		j.Logger.Warn("strategist_tick LLM call failed", "error", err)
		return nil
	}

	decision := parseStrategistResponse(raw)
	if !decision.ShouldIntervene {
		return nil
	}

	msg := contextmodel.Message{
		Content:          decision.Content,
		InterventionType: decision.InterventionType,
		Urgency:          decision.Urgency,
		Reasoning:        decision.Reasoning,
	}
	j.Delivery.Dispatch(msg, false)
	return nil
}
