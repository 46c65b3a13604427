package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/store"
)

func TestBus_InboundRoundTrip(t *testing.T) {
	b := New(4)
	ctx := context.Background()

	msg := InboundMessage{Channel: "web", ChatID: "chat-1", Content: "hi"}
	require.NoError(t, b.PublishInbound(ctx, msg))

	select {
	case got := <-b.Inbound():
		assert.Equal(t, msg, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for inbound message")
	}
}

func TestBus_OutboundRoundTrip(t *testing.T) {
	b := New(4)
	ctx := context.Background()

	msg := OutboundMessage{ChatID: "chat-1", Content: "hello", Role: store.RoleAssistant}
	require.NoError(t, b.PublishOutbound(ctx, msg))

	select {
	case got := <-b.Outbound():
		assert.Equal(t, msg, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound message")
	}
}

func TestBus_PublishBlocksWhenFullUntilContextEnds(t *testing.T) {
	b := New(1)
	ctx := context.Background()

	require.NoError(t, b.PublishInbound(ctx, InboundMessage{ChatID: "chat-1"}))

	cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := b.PublishInbound(cancelCtx, InboundMessage{ChatID: "chat-2"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBus_DefaultBufferSize(t *testing.T) {
	b := New(0)
	ctx := context.Background()

	// The default buffer must absorb a burst without a consumer
	for range DefaultBufferSize {
		require.NoError(t, b.PublishInbound(ctx, InboundMessage{ChatID: "chat-1"}))
	}
}

func TestBus_CloseDrainsBufferedMessages(t *testing.T) {
	b := New(4)
	ctx := context.Background()

	require.NoError(t, b.PublishOutbound(ctx, OutboundMessage{ChatID: "chat-1", Content: "last words"}))
	b.Close()

	var got []OutboundMessage
	for msg := range b.Outbound() {
		got = append(got, msg)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "last words", got[0].Content)
}
