package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/assistantd/assistantd/internal/contextmanager"
	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/contextsource"
	"github.com/assistantd/assistantd/internal/queue"
	"github.com/assistantd/assistantd/internal/userstate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeContext struct {
	snap           *contextmodel.Snapshot
	decrementCalls int
}

func (f *fakeContext) Get() *contextmodel.Snapshot { return f.snap }
func (f *fakeContext) DecrementBudget()            { f.decrementCalls++ }

var errPersist = errors.New("persistence failure")

type fakeQueue struct {
	mu         sync.Mutex
	items      []queue.Item
	drained    bool
	enqueueErr error
}

func (f *fakeQueue) Enqueue(content string, kind contextmodel.InterventionType, urgency int, reasoning string) (queue.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return queue.Item{}, f.enqueueErr
	}
	it := queue.Item{Content: content, InterventionType: kind, Urgency: urgency, Reasoning: reasoning}
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeQueue) Drain() ([]queue.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.items
	f.items = nil
	f.drained = true
	return items, nil
}

type fakeBroadcaster struct {
	mu  sync.Mutex
	got []contextmodel.Message
}

func (f *fakeBroadcaster) SendMessage(msg contextmodel.Message, state contextmodel.UserState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, msg)
}

func TestDispatchDeliversAndCostsBudget(t *testing.T) {
	ctx := &fakeContext{snap: &contextmodel.Snapshot{
		UserState:                contextmodel.Available,
		InterruptionMode:         contextmodel.Balanced,
		AttentionBudgetRemaining: 5,
	}}
	q := &fakeQueue{}
	bc := &fakeBroadcaster{}
	c := New(ctx, q, bc, discardLogger())

	decision := c.Dispatch(contextmodel.Message{Content: "hi", InterventionType: contextmodel.Advisory, Urgency: 3}, false)

	if decision != userstate.Deliver {
		t.Fatalf("decision = %v, want deliver", decision)
	}
	if len(bc.got) != 1 {
		t.Fatalf("broadcast count = %d, want 1", len(bc.got))
	}
	if ctx.decrementCalls != 1 {
		t.Errorf("decrementCalls = %d, want 1", ctx.decrementCalls)
	}
}

func TestDispatchQueuesWhenBlocked(t *testing.T) {
	ctx := &fakeContext{snap: &contextmodel.Snapshot{
		UserState:                contextmodel.DeepWork,
		InterruptionMode:         contextmodel.Balanced,
		AttentionBudgetRemaining: 5,
	}}
	q := &fakeQueue{}
	bc := &fakeBroadcaster{}
	c := New(ctx, q, bc, discardLogger())

	decision := c.Dispatch(contextmodel.Message{Content: "hi", InterventionType: contextmodel.Advisory, Urgency: 3}, false)

	if decision != userstate.Queue {
		t.Fatalf("decision = %v, want queue", decision)
	}
	if len(q.items) != 1 {
		t.Fatalf("queue count = %d, want 1", len(q.items))
	}
	if len(bc.got) != 0 {
		t.Error("expected no broadcast on queue decision")
	}
}

func TestDispatchQueuesInFocusMode(t *testing.T) {
	ctx := &fakeContext{snap: &contextmodel.Snapshot{
		UserState:                contextmodel.Available,
		InterruptionMode:         contextmodel.Focus,
		AttentionBudgetRemaining: 0,
	}}
	q := &fakeQueue{}
	bc := &fakeBroadcaster{}
	c := New(ctx, q, bc, discardLogger())

	decision := c.Dispatch(contextmodel.Message{Content: "hi", InterventionType: contextmodel.Advisory, Urgency: 2}, false)

	if decision != userstate.Queue {
		t.Fatalf("decision = %v, want queue", decision)
	}
	if len(bc.got) != 0 {
		t.Error("expected no broadcast in focus mode")
	}
	if len(q.items) != 1 {
		t.Fatalf("queue count = %d, want 1", len(q.items))
	}
}

func TestDispatchDropsOnEnqueueFailure(t *testing.T) {
	ctx := &fakeContext{snap: &contextmodel.Snapshot{
		UserState:                contextmodel.DeepWork,
		InterruptionMode:         contextmodel.Balanced,
		AttentionBudgetRemaining: 5,
	}}
	q := &fakeQueue{enqueueErr: errPersist}
	bc := &fakeBroadcaster{}
	c := New(ctx, q, bc, discardLogger())

	decision := c.Dispatch(contextmodel.Message{Content: "hi", InterventionType: contextmodel.Advisory, Urgency: 3}, false)

	if decision != userstate.Drop {
		t.Fatalf("decision = %v, want drop when enqueue fails", decision)
	}
	if len(bc.got) != 0 || len(q.items) != 0 {
		t.Error("expected neither broadcast nor queued row on enqueue failure")
	}
}

func TestDeliverQueuedBundleFormatsSingular(t *testing.T) {
	ctx := &fakeContext{snap: &contextmodel.Snapshot{UserState: contextmodel.Available}}
	q := &fakeQueue{items: []queue.Item{{Content: "item one"}}}
	bc := &fakeBroadcaster{}
	c := New(ctx, q, bc, discardLogger())

	c.DeliverQueuedBundle(context.Background(), nil)

	if len(bc.got) != 1 {
		t.Fatalf("broadcast count = %d, want 1", len(bc.got))
	}
	if !strings.HasPrefix(bc.got[0].Content, "While you were away (1 update):") {
		t.Errorf("content = %q, want singular 'update'", bc.got[0].Content)
	}
	if bc.got[0].InterventionType != contextmodel.ProactiveBundle {
		t.Errorf("interventionType = %v, want proactive_bundle", bc.got[0].InterventionType)
	}
}

func TestDeliverQueuedBundlePluralAndEmptyIsNoOp(t *testing.T) {
	ctx := &fakeContext{snap: &contextmodel.Snapshot{UserState: contextmodel.Available}}
	q := &fakeQueue{items: []queue.Item{{Content: "a"}, {Content: "b"}}}
	bc := &fakeBroadcaster{}
	c := New(ctx, q, bc, discardLogger())

	c.DeliverQueuedBundle(context.Background(), nil)
	if !strings.HasPrefix(bc.got[0].Content, "While you were away (2 updates):") {
		t.Errorf("content = %q, want plural 'updates'", bc.got[0].Content)
	}

	// Second call drains nothing -- no broadcast.
	c.DeliverQueuedBundle(context.Background(), nil)
	if len(bc.got) != 1 {
		t.Errorf("expected no additional broadcast on empty drain, got %d total", len(bc.got))
	}
}

func TestDeliverQueuedBundleSkipsWhenEpochSuperseded(t *testing.T) {
	ctx := &fakeContext{snap: &contextmodel.Snapshot{UserState: contextmodel.Available}}
	q := &fakeQueue{items: []queue.Item{{Content: "a"}}}
	bc := &fakeBroadcaster{}
	c := New(ctx, q, bc, discardLogger())

	c.DeliverQueuedBundle(context.Background(), func() bool { return false })

	if len(bc.got) != 0 {
		t.Error("expected no broadcast when epoch is superseded")
	}
	if len(q.items) != 1 {
		t.Error("expected the queue to be left for the task holding the current epoch")
	}
}

type scriptedSource struct {
	mu    sync.Mutex
	event string
}

func (s *scriptedSource) Name() string { return "calendar" }

func (s *scriptedSource) Gather(context.Context, *contextmodel.Snapshot) contextsource.Patch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contextsource.Patch{HasCalendar: true, CurrentEvent: s.event}
}

// Exercises the full queue-then-drain path against the real context
// manager: a focus event queues an advisory, and clearing the event
// triggers the transition hook that broadcasts the bundle.
func TestDeepWorkQueuesThenTransitionDrainsBundle(t *testing.T) {
	src := &scriptedSource{event: "Focus block"}
	mgr := contextmanager.New([]contextsource.Source{src}, 8, discardLogger())
	mgr.SetInterruptionMode(contextmodel.Balanced)

	q := &fakeQueue{}
	bc := &fakeBroadcaster{}
	c := New(mgr, q, bc, discardLogger())

	done := make(chan struct{}, 1)
	mgr.SetTransitionHook(func(hookCtx context.Context, epoch int64) {
		c.DeliverQueuedBundle(hookCtx, func() bool { return mgr.EpochCurrent(epoch) })
		done <- struct{}{}
	})

	mgr.Refresh(context.Background())
	if state := mgr.Get().UserState; state != contextmodel.DeepWork {
		t.Fatalf("UserState = %s, want deep_work", state)
	}

	decision := c.Dispatch(contextmodel.Message{Content: "a thought", InterventionType: contextmodel.Advisory, Urgency: 3}, false)
	if decision != userstate.Queue {
		t.Fatalf("decision = %v, want queue during deep work", decision)
	}
	if len(q.items) != 1 {
		t.Fatalf("queue count = %d, want 1", len(q.items))
	}

	src.mu.Lock()
	src.event = ""
	src.mu.Unlock()
	mgr.Refresh(context.Background())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("transition hook did not fire")
	}

	if len(bc.got) != 1 {
		t.Fatalf("broadcast count = %d, want 1 bundle", len(bc.got))
	}
	if !strings.HasPrefix(bc.got[0].Content, "While you were away (1 update):") {
		t.Errorf("bundle content = %q", bc.got[0].Content)
	}
	if !q.drained {
		t.Error("expected the queue to have been drained")
	}
}
