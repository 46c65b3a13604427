// ABOUTME: Runner consumes inbound user messages and publishes agent replies
// ABOUTME: Responder failures become assistant_error replies instead of silent drops

package agent

import (
	"context"
	"log/slog"

	"github.com/2389/parley/internal/bus"
	"github.com/2389/parley/internal/store"
)

// Runner drives a Responder off the message bus. It consumes inbound user
// messages one at a time and publishes each reply outbound.
type Runner struct {
	bus       *bus.Bus
	responder Responder
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a runner. Pass nil to use the default logger.
func NewRunner(b *bus.Bus, responder Responder, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		bus:       b,
		responder: responder,
		logger:    logger.With("component", "agent"),
	}
}

// Start launches the consume loop in the background.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	r.logger.Info("agent runner started")
	go r.loop(ctx)
}

// Stop ends the consume loop and waits for it to finish. Safe to call on a
// runner that never started.
func (r *Runner) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.logger.Info("agent runner stopped")
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-r.bus.Inbound():
			if !ok {
				return
			}
			r.handle(ctx, msg)
		}
	}
}

// handle produces a reply for one inbound message. A responder failure is
// published as an assistant_error reply so the failure stays visible in
// the chat.
func (r *Runner) handle(ctx context.Context, msg bus.InboundMessage) {
	r.logger.Debug("handling message", "channel", msg.Channel, "chat_id", msg.ChatID)

	reply := bus.OutboundMessage{ChatID: msg.ChatID, Role: store.RoleAssistant}

	content, err := r.responder.Respond(ctx, msg.ChatID, msg.Content)
	if err != nil {
		r.logger.Warn("responder failed", "chat_id", msg.ChatID, "error", err)
		reply.Role = store.RoleAssistantError
		reply.Content = err.Error()
	} else {
		reply.Content = content
	}

	if err := r.bus.PublishOutbound(ctx, reply); err != nil {
		r.logger.Warn("dropping reply, bus unavailable", "chat_id", msg.ChatID, "error", err)
	}
}
