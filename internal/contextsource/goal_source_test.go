package contextsource

import (
	"context"
	"testing"

	"github.com/assistantd/assistantd/internal/collab"
)

type fakeGoals struct {
	goals []collab.Goal
}

func (f *fakeGoals) ListActive(ctx context.Context) ([]collab.Goal, error) {
	return f.goals, nil
}

func (f *fakeGoals) Dashboard(ctx context.Context) (collab.GoalDashboard, error) {
	return collab.GoalDashboard{}, nil
}

func TestGoalSourceNoGoalsIsEmptyString(t *testing.T) {
	src := NewGoalSource(&fakeGoals{}, discardLogger())
	patch := src.Gather(context.Background(), nil)
	if !patch.HasGoals || patch.ActiveGoalsSummary != "" {
		t.Errorf("expected empty summary, got %+v", patch)
	}
}

func TestGoalSourceGroupsByDomainAndTruncates(t *testing.T) {
	goals := []collab.Goal{
		{Domain: "career", Title: "t1"},
		{Domain: "career", Title: "t2"},
		{Domain: "career", Title: "t3"},
		{Domain: "career", Title: "t4"},
		{Domain: "health", Title: "h1"},
	}
	src := NewGoalSource(&fakeGoals{goals: goals}, discardLogger())
	patch := src.Gather(context.Background(), nil)

	want := "career: t1, t2, t3 (+1 more); health: h1"
	if patch.ActiveGoalsSummary != want {
		t.Errorf("got %q, want %q", patch.ActiveGoalsSummary, want)
	}
}
