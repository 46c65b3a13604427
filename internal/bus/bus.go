// ABOUTME: In-process message bus linking channels to the agent pipeline
// ABOUTME: Carries user submissions inbound and agent replies outbound over buffered queues

package bus

import (
	"context"

	"github.com/2389/parley/internal/store"
)

// DefaultBufferSize is the per-direction queue capacity used when the
// configured size is not positive.
const DefaultBufferSize = 64

// InboundMessage is user text on its way to the agent pipeline.
type InboundMessage struct {
	Channel string
	ChatID  string
	Content string
}

// OutboundMessage is an agent reply on its way back to its channel. Role
// distinguishes regular replies from error replies.
type OutboundMessage struct {
	ChatID  string
	Content string
	Role    store.Role
}

// Bus carries messages between channels and the agent pipeline within one
// process. Both directions are independent buffered queues.
type Bus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
}

// New creates a bus with the given per-direction buffer size.
func New(size int) *Bus {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Bus{
		inbound:  make(chan InboundMessage, size),
		outbound: make(chan OutboundMessage, size),
	}
}

// PublishInbound queues a user message for the agent pipeline. It blocks
// only while the queue is full, giving up when ctx ends.
func (b *Bus) PublishInbound(ctx context.Context, msg InboundMessage) error {
	select {
	case b.inbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbound returns the stream of user messages for the agent pipeline.
func (b *Bus) Inbound() <-chan InboundMessage {
	return b.inbound
}

// PublishOutbound queues an agent reply for delivery to its channel.
func (b *Bus) PublishOutbound(ctx context.Context, msg OutboundMessage) error {
	select {
	case b.outbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outbound returns the stream of agent replies awaiting delivery.
func (b *Bus) Outbound() <-chan OutboundMessage {
	return b.outbound
}

// Close closes both queues. Producers must be stopped first; consumers
// drain whatever is still buffered and then see closed channels.
func (b *Bus) Close() {
	close(b.inbound)
	close(b.outbound)
}
