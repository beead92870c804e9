package jobs

import (
	"context"
	"log/slog"

	"github.com/assistantd/assistantd/internal/screenlog"
)

var _ ScreenCleaner = (*screenlog.Log)(nil)

// ScreenCleanup deletes ScreenObservation rows older than the retention
// window, ported directly from original_source's screen_cleanup.py.
// RetentionDays is read on every run so config hot-reload takes effect.
type ScreenCleanup struct {
	Log           ScreenCleaner
	RetentionDays func() int
	Logger        *slog.Logger
}

func (j *ScreenCleanup) Name() string { return "screen_cleanup" }

func (j *ScreenCleanup) Run(ctx context.Context) error {
	n, err := j.Log.CleanupOld(j.RetentionDays())
	if err != nil {
		return err
	}
	if n > 0 {
		j.Logger.Info("screen_cleanup removed old observations", "count", n)
	}
	return nil
}
