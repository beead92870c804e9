package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/assistantd/assistantd/internal/contextmanager"
	"github.com/assistantd/assistantd/internal/contextmodel"
)

const calendarLookahead = 15 * time.Minute

var _ ContextReader = (*contextmanager.Manager)(nil)

// CalendarScan finds events starting within (0, 15min] of now and, if any,
// dispatches a single high-urgency alert, ported from original_source's
// calendar_scan.py.
type CalendarScan struct {
	Context  ContextReader
	Delivery Delivery
	Now      func() time.Time
	Logger   *slog.Logger
}

func (j *CalendarScan) Name() string { return "calendar_scan" }

func (j *CalendarScan) Run(ctx context.Context) error {
	snap := j.Context.Get()
	now := j.Now()

	var starting []string
	for _, ev := range snap.UpcomingEvents {
		until := ev.Start.Sub(now)
		if until > 0 && until <= calendarLookahead {
			starting = append(starting, ev.Summary)
		}
	}
	if len(starting) == 0 {
		return nil
	}

	msg := contextmodel.Message{
		Content:          fmt.Sprintf("Heads up! Starting soon: %s", strings.Join(starting, ", ")),
		InterventionType: contextmodel.Alert,
		Urgency:          4,
		Reasoning:        "Calendar event starting within 15 minutes",
	}
	j.Delivery.Dispatch(msg, true)
	j.Logger.Info("calendar_scan dispatched alert", "events", len(starting))
	return nil
}
