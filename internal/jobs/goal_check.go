package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/assistantd/assistantd/internal/broadcast"
	"github.com/assistantd/assistantd/internal/collab"
)

var _ AmbientBroadcaster = (*broadcast.Broadcaster)(nil)

// GoalCheck computes goal completion from the GoalRepository and
// broadcasts an ambient on_track/goal_behind status, filling in the
// behavior original_source left as a stub (goal_check.py).
type GoalCheck struct {
	Goals     collab.GoalRepository
	Broadcast AmbientBroadcaster
	Logger    *slog.Logger
}

func (j *GoalCheck) Name() string { return "goal_check" }

func (j *GoalCheck) Run(ctx context.Context) error {
	dash, err := j.Goals.Dashboard(ctx)
	if err != nil {
		return err
	}

	state := "on_track"
	if dash.BehindCount > 0 {
		state = "goal_behind"
	}

	content := fmt.Sprintf("Goal completion: %.0f%% (%d behind)", dash.CompletionRatio*100, dash.BehindCount)
	j.Broadcast.SendAmbient(content, state)
	j.Logger.Info("goal_check complete", "state", state, "completionRatio", dash.CompletionRatio)
	return nil
}
