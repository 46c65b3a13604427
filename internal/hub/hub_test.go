// ABOUTME: Tests for the event hub pub/sub system
// ABOUTME: Covers delivery, ordering, slow consumers, cancellation cleanup and concurrent use

package hub

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/store"
)

func makeEvent(chatID, content string) *Event {
	return &Event{
		ChatID:  chatID,
		Role:    store.RoleAssistant,
		Content: content,
	}
}

func TestHub_SingleSubscriberReceivesEvent(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	sub := h.Subscribe(ctx)
	defer h.Unsubscribe(sub)

	h.Publish(makeEvent("chat-1", "hello"))

	event, err := sub.Next(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "chat-1", event.ChatID)
	assert.Equal(t, store.RoleAssistant, event.Role)
	assert.Equal(t, "hello", event.Content)
}

func TestHub_MultipleSubscribersReceiveSameEvent(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	sub1 := h.Subscribe(ctx)
	defer h.Unsubscribe(sub1)
	sub2 := h.Subscribe(ctx)
	defer h.Unsubscribe(sub2)

	h.Publish(makeEvent("chat-1", "to everyone"))

	for _, sub := range []*Subscription{sub1, sub2} {
		event, err := sub.Next(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "to everyone", event.Content)
	}
}

func TestHub_EventsArriveInPublishOrder(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	sub := h.Subscribe(ctx)
	defer h.Unsubscribe(sub)

	for i := range 10 {
		h.Publish(makeEvent("chat-1", fmt.Sprintf("event %d", i)))
	}

	for i := range 10 {
		event, err := sub.Next(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("event %d", i), event.Content)
	}
}

func TestHub_SlowConsumerDoesNotBlockPublisher(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	sub := h.Subscribe(ctx)
	defer h.Unsubscribe(sub)

	// Nobody is draining the subscription; all publishes must return
	// promptly and nothing may be dropped.
	done := make(chan struct{})
	go func() {
		for i := range 100 {
			h.Publish(makeEvent("chat-1", fmt.Sprintf("event %d", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow consumer")
	}

	for i := range 100 {
		event, err := sub.Next(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("event %d", i), event.Content)
	}
}

func TestHub_PublishWithNoSubscribers(t *testing.T) {
	h := NewHub(nil)

	// Must not block or panic
	h.Publish(makeEvent("chat-1", "into the void"))
	assert.Equal(t, 0, h.SubscriberCount())
}

func TestHub_ContextCancellationCleansUp(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	h.Subscribe(ctx)
	require.Equal(t, 1, h.SubscriberCount())

	cancel()

	assert.Eventually(t, func() bool {
		return h.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHub_ManualUnsubscribe(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	sub := h.Subscribe(ctx)
	h.Unsubscribe(sub)
	assert.Equal(t, 0, h.SubscriberCount())

	// Events published after unsubscribe are not delivered
	h.Publish(makeEvent("chat-1", "too late"))
	_, err := sub.Next(ctx, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrIdle)

	// Unsubscribing twice is a no-op
	h.Unsubscribe(sub)
	h.Unsubscribe(nil)
}

func TestHub_CloseDropsAllSubscriptions(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	h.Subscribe(ctx)
	h.Subscribe(ctx)
	require.Equal(t, 2, h.SubscriberCount())

	h.Close()
	assert.Equal(t, 0, h.SubscriberCount())

	// Publishing after close must not panic
	h.Publish(makeEvent("chat-1", "after close"))
}

func TestHub_SubscriptionsHaveUniqueIDs(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	sub1 := h.Subscribe(ctx)
	sub2 := h.Subscribe(ctx)
	defer h.Unsubscribe(sub1)
	defer h.Unsubscribe(sub2)

	require.NotEqual(t, sub1.id, sub2.id)
}

func TestSubscription_NextTimesOut(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	sub := h.Subscribe(ctx)
	defer h.Unsubscribe(sub)

	start := time.Now()
	_, err := sub.Next(ctx, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrIdle)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSubscription_NextHonorsContext(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	sub := h.Subscribe(context.Background())
	defer h.Unsubscribe(sub)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := sub.Next(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubscription_NextWhileWaitingReceivesEvent(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	sub := h.Subscribe(ctx)
	defer h.Unsubscribe(sub)

	go func() {
		time.Sleep(20 * time.Millisecond)
		h.Publish(makeEvent("chat-1", "woke you up"))
	}()

	event, err := sub.Next(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "woke you up", event.Content)
}

func TestHub_ConcurrentPublishSubscribe(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	for range 10 {
		wg.Go(func() {
			sub := h.Subscribe(ctx)
			defer h.Unsubscribe(sub)
			for {
				if _, err := sub.Next(ctx, 10*time.Millisecond); err != nil {
					return
				}
			}
		})
	}

	for i := range 10 {
		wg.Go(func() {
			for j := range 10 {
				h.Publish(makeEvent(fmt.Sprintf("chat-%d", i), fmt.Sprintf("event %d", j)))
			}
		})
	}

	wg.Wait()
}
