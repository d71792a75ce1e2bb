package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/alkime/liftlog/internal/workout"
	"github.com/alkime/liftlog/pkg/channels"
)

// Snapshot is the observable session state.
type Snapshot struct {
	Phase      Phase
	Pending    *workout.Set
	Transcript string
	Error      string
	TodaySets  []workout.LoggedSet
	// ButtonsOnly is set when voice confirmation gave up and the pending set
	// waits for a Yes or No tap.
	ButtonsOnly bool
}

// Event is published on every state change.
type Event struct {
	Reason   Reason
	Message  string
	Logged   *workout.LoggedSet
	Snapshot Snapshot
}

type EventSink interface {
	Publish(Event)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// ChannelSink sends events to a channel, waiting at most Timeout for room.
// Events that do not fit are dropped.
type ChannelSink struct {
	Ch      chan<- Event
	Timeout time.Duration
}

func (c ChannelSink) Publish(e Event) {
	if c.Timeout <= 0 {
		_ = channels.SendNonBlock(c.Ch, e)
		return
	}
	_ = channels.SendWithTimeout(c.Ch, e, c.Timeout)
}

// LogEvents logs every event from events until the channel closes or ctx is
// done.
func LogEvents(ctx context.Context, events <-chan Event, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			attrs := []any{"reason", e.Reason, "phase", e.Snapshot.Phase}
			if e.Message != "" {
				attrs = append(attrs, "message", e.Message)
			}
			if e.Snapshot.Transcript != "" {
				attrs = append(attrs, "transcript", e.Snapshot.Transcript)
			}
			if e.Snapshot.Pending != nil {
				attrs = append(attrs, "pending", e.Snapshot.Pending.Summary())
			}
			if e.Logged != nil {
				attrs = append(attrs, "setId", e.Logged.ID, "setNumber", e.Logged.SetNumber)
			}
			log.Info("session event", attrs...)
		}
	}
}
