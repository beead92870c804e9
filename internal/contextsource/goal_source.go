package contextsource

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/assistantd/assistantd/internal/collab"
	"github.com/assistantd/assistantd/internal/contextmodel"
)

const maxTitlesPerDomain = 3

// GoalSource groups active goals by domain and formats a compact summary
// string. Any collaborator failure is DataAbsence and yields an empty
// summary, not an error.
type GoalSource struct {
	Goals  collab.GoalRepository
	Logger *slog.Logger
	health *sourceHealth
}

// NewGoalSource builds a GoalSource. repo may be nil, in which case Gather
// always reports an empty summary.
func NewGoalSource(repo collab.GoalRepository, logger *slog.Logger) *GoalSource {
	return &GoalSource{Goals: repo, Logger: logger, health: newSourceHealth()}
}

func (s *GoalSource) Name() string { return "goal" }

func (s *GoalSource) Gather(ctx context.Context, _ *contextmodel.Snapshot) Patch {
	if s.Goals == nil {
		return Patch{HasGoals: true, ActiveGoalsSummary: ""}
	}

	goals, err := s.Goals.ListActive(ctx)
	if err != nil {
		s.Logger.Debug("goal source: no data", "error", err)
		s.health.recordEmpty()
		return Patch{}
	}
	s.health.recordSuccess()

	if len(goals) == 0 {
		return Patch{HasGoals: true, ActiveGoalsSummary: ""}
	}

	byDomain := make(map[string][]string)
	var domains []string
	for _, g := range goals {
		if _, seen := byDomain[g.Domain]; !seen {
			domains = append(domains, g.Domain)
		}
		byDomain[g.Domain] = append(byDomain[g.Domain], g.Title)
	}
	sort.Strings(domains)

	var parts []string
	for _, domain := range domains {
		titles := byDomain[domain]
		shown := titles
		extra := 0
		if len(titles) > maxTitlesPerDomain {
			shown = titles[:maxTitlesPerDomain]
			extra = len(titles) - maxTitlesPerDomain
		}
		part := fmt.Sprintf("%s: %s", domain, strings.Join(shown, ", "))
		if extra > 0 {
			part += fmt.Sprintf(" (+%d more)", extra)
		}
		parts = append(parts, part)
	}

	return Patch{HasGoals: true, ActiveGoalsSummary: strings.Join(parts, "; ")}
}

func (s *GoalSource) Health() Snapshot { return s.health.snapshot(s.Name()) }
