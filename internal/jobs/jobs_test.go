package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/assistantd/assistantd/internal/collab"
	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/llm"
	"github.com/assistantd/assistantd/internal/screenlog"
	"github.com/assistantd/assistantd/internal/userstate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBoom = errors.New("boom")

type fakeDelivery struct {
	mu       sync.Mutex
	messages []contextmodel.Message
	scheduled []bool
}

func (f *fakeDelivery) Dispatch(msg contextmodel.Message, isScheduled bool) userstate.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	f.scheduled = append(f.scheduled, isScheduled)
	return userstate.Deliver
}

type fakeContext struct {
	snap *contextmodel.Snapshot
}

func (f *fakeContext) Get() *contextmodel.Snapshot                      { return f.snap }
func (f *fakeContext) Refresh(ctx context.Context) *contextmodel.Snapshot { return f.snap }

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

var _ llm.Client = (*fakeLLM)(nil)

type fakeAmbientBroadcaster struct {
	content, state string
}

func (f *fakeAmbientBroadcaster) SendAmbient(content, state string) {
	f.content, f.state = content, state
}

type fakeGoalRepository struct {
	dash collab.GoalDashboard
	err  error
}

func (f *fakeGoalRepository) ListActive(ctx context.Context) ([]collab.Goal, error) { return nil, nil }
func (f *fakeGoalRepository) Dashboard(ctx context.Context) (collab.GoalDashboard, error) {
	return f.dash, f.err
}

type fakeSessionStore struct {
	sessions    []collab.Session
	transcripts map[string]string
	failIDs     map[string]bool
}

func (f *fakeSessionStore) UpdatedSince(ctx context.Context, cutoff time.Time, limit int) ([]collab.Session, error) {
	return f.sessions, nil
}

func (f *fakeSessionStore) TranscriptText(ctx context.Context, sessionID string, limit int) (string, error) {
	if f.failIDs[sessionID] {
		return "", errors.New("transcript unavailable")
	}
	return f.transcripts[sessionID], nil
}

type storedMemory struct {
	text, category string
}

type fakeMemoryStore struct {
	items  []collab.MemoryItem
	err    error
	stored []storedMemory
}

func (f *fakeMemoryStore) Search(ctx context.Context, query string, k int) ([]collab.MemoryItem, error) {
	return f.items, f.err
}

func (f *fakeMemoryStore) Store(ctx context.Context, text, category string) error {
	f.stored = append(f.stored, storedMemory{text: text, category: category})
	return nil
}

type fakeSoul struct {
	content  string
	sections map[string]string
}

func (f *fakeSoul) Read(ctx context.Context) (string, error) { return f.content, nil }

func (f *fakeSoul) UpdateSection(ctx context.Context, section, content string) error {
	if f.sections == nil {
		f.sections = make(map[string]string)
	}
	f.sections[section] = content
	return nil
}

type fakeScreenSummary struct {
	daily   screenlog.DailySummaryResult
	dailyErr error
	weekly  screenlog.WeeklySummaryResult
	weeklyErr error
}

func (f *fakeScreenSummary) DailySummary(day time.Time) (screenlog.DailySummaryResult, error) {
	return f.daily, f.dailyErr
}
func (f *fakeScreenSummary) WeeklySummary(weekStart time.Time) (screenlog.WeeklySummaryResult, error) {
	return f.weekly, f.weeklyErr
}

type fakeScreenCleaner struct {
	removed int
	err     error
}

func (f *fakeScreenCleaner) CleanupOld(retentionDays int) (int, error) { return f.removed, f.err }
