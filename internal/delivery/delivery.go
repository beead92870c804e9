// Package delivery implements the Delivery Coordinator, the single
// entrypoint every proactive message passes through on its way to
// either the Broadcast fan-out or the Insight Queue. It generalizes
// the teacher's session.Store event-logging idiom (one Event per
// lifecycle transition) into a Delivered/Queued/Dropped decision log.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/assistantd/assistantd/internal/broadcast"
	"github.com/assistantd/assistantd/internal/contextmanager"
	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/queue"
	"github.com/assistantd/assistantd/internal/userstate"
)

const bundleUrgency = 3

// deliveriesTotal counts Dispatch outcomes by decision, exported on
// /metrics by whatever registry the caller registers it with.
var deliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "assistantd_deliveries_total",
		Help: "Count of Delivery Coordinator dispatch outcomes by decision.",
	},
	[]string{"decision"},
)

// Metrics returns the collectors this package wants registered.
func Metrics() []prometheus.Collector {
	return []prometheus.Collector{deliveriesTotal}
}

// Context is the slice of contextmanager.Manager the Coordinator needs.
type Context interface {
	Get() *contextmodel.Snapshot
	DecrementBudget()
}

var _ Context = (*contextmanager.Manager)(nil)

// Queue is the slice of queue.Queue the Coordinator needs.
type Queue interface {
	Enqueue(content string, kind contextmodel.InterventionType, urgency int, reasoning string) (queue.Item, error)
	Drain() ([]queue.Item, error)
}

var _ Queue = (*queue.Queue)(nil)

// Broadcaster is the slice of broadcast.Broadcaster the Coordinator needs.
type Broadcaster interface {
	SendMessage(msg contextmodel.Message, state contextmodel.UserState)
}

var _ Broadcaster = (*broadcast.Broadcaster)(nil)

// Coordinator is the Delivery Coordinator.
type Coordinator struct {
	ctx    Context
	queue  Queue
	bcast  Broadcaster
	logger *slog.Logger
}

// New constructs a Coordinator.
func New(ctx Context, q Queue, bcast Broadcaster, logger *slog.Logger) *Coordinator {
	return &Coordinator{ctx: ctx, queue: q, bcast: bcast, logger: logger}
}

// Dispatch is the single public entrypoint for a proactive message.
func (c *Coordinator) Dispatch(msg contextmodel.Message, isScheduled bool) userstate.Decision {
	snap := c.ctx.Get()
	decision := userstate.ShouldDeliver(snap.UserState, snap.InterruptionMode, snap.AttentionBudgetRemaining, msg.Urgency, msg.InterventionType, isScheduled)

	switch decision {
	case userstate.Deliver:
		c.bcast.SendMessage(msg, snap.UserState)
		if userstate.ShouldCostBudget(msg.InterventionType, isScheduled, msg.Urgency) {
			c.ctx.DecrementBudget()
		}
		c.logger.Info("message delivered", "interventionType", msg.InterventionType, "urgency", msg.Urgency)
	case userstate.Queue:
		if _, err := c.queue.Enqueue(msg.Content, msg.InterventionType, msg.Urgency, msg.Reasoning); err != nil {
			// A persistence failure surfaces as a dropped message.
			c.logger.Error("failed to enqueue insight, dropping", "error", err)
			decision = userstate.Drop
		} else {
			c.logger.Info("message queued", "interventionType", msg.InterventionType, "urgency", msg.Urgency)
		}
	case userstate.Drop:
		c.logger.Info("message dropped", "interventionType", msg.InterventionType, "urgency", msg.Urgency)
	}

	deliveriesTotal.WithLabelValues(decision.String()).Inc()
	return decision
}

// DeliverQueuedBundle drains the Insight Queue and, if it held anything,
// broadcasts a single synthetic proactive_bundle message unconditionally
// -- bypassing the gate entirely, since bundle delivery never costs
// budget and is never itself re-queued. This is the callback wired as
// the Context Manager's TransitionHook.
func (c *Coordinator) DeliverQueuedBundle(ctx context.Context, epochStillCurrent func() bool) {
	// A superseded task must leave the queue untouched: the task holding
	// the current epoch will drain these same rows itself.
	if epochStillCurrent != nil && !epochStillCurrent() {
		return
	}
	items, err := c.queue.Drain()
	if err != nil {
		c.logger.Error("failed to drain insight queue", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	snap := c.ctx.Get()
	content := formatBundle(items)
	msg := contextmodel.Message{
		Content:          content,
		InterventionType: contextmodel.ProactiveBundle,
		Urgency:          bundleUrgency,
		Reasoning:        "queued insights bundled on return to availability",
	}
	c.bcast.SendMessage(msg, snap.UserState)
	c.logger.Info("bundle delivered", "count", len(items))
}

func formatBundle(items []queue.Item) string {
	noun := "update"
	if len(items) != 1 {
		noun = "updates"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "While you were away (%d %s):", len(items), noun)
	for _, it := range items {
		b.WriteString("\n- ")
		b.WriteString(it.Content)
	}
	return b.String()
}
