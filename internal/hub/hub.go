// ABOUTME: In-memory fan-out hub pushing chat events to live stream subscribers
// ABOUTME: Each subscription owns a private unbounded queue so publishers never block

package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/parley/internal/store"
)

// ErrIdle is returned by Next when no event arrives within the wait window.
var ErrIdle = errors.New("no event before timeout")

// Event is the payload pushed to subscribers when a message is appended to
// a chat. It is derived from the persisted message and never stored itself.
type Event struct {
	ChatID  string     `json:"chat_id"`
	Role    store.Role `json:"role"`
	Content string     `json:"content"`
}

// Subscription is one listener's registration with the hub. Events queue
// without bound, so a stalled consumer delays nobody but itself.
type Subscription struct {
	id string

	mu    sync.Mutex
	queue []*Event
	wake  chan struct{}
}

// Next returns the oldest queued event, waiting up to wait for one to
// arrive. It returns ErrIdle on timeout and the context error if ctx ends
// first.
func (s *Subscription) Next(ctx context.Context, wait time.Duration) (*Event, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			event := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return event, nil
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-timer.C:
			return nil, ErrIdle
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// enqueue appends an event and wakes a blocked Next. Safe to call on a
// subscription already removed from the hub.
func (s *Subscription) enqueue(event *Event) {
	s.mu.Lock()
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Hub provides in-memory pub/sub for chat events. Every subscriber receives
// every event published after it joined; there is no replay and no
// persistence here.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	logger *slog.Logger
}

// NewHub creates an event hub. Pass nil to use the default logger.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]*Subscription),
		logger: logger.With("component", "hub"),
	}
}

// Subscribe registers a new listener. The subscription is removed
// automatically when ctx is cancelled.
func (h *Hub) Subscribe(ctx context.Context) *Subscription {
	sub := &Subscription{
		id:   uuid.New().String(),
		wake: make(chan struct{}, 1),
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()

	h.logger.Debug("subscriber added", "sub_id", sub.id)

	// Auto-unsubscribe when the subscriber's context ends
	go func() {
		<-ctx.Done()
		h.Unsubscribe(sub)
	}()

	return sub
}

// Publish enqueues the event for every current subscriber. The subscriber
// set is snapshotted under the read lock, then each queue grows as needed,
// so Publish never blocks on a slow consumer.
func (h *Hub) Publish(event *Event) {
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.enqueue(event)
	}

	h.logger.Debug("event published", "chat_id", event.ChatID, "role", event.Role, "subscribers", len(targets))
}

// Unsubscribe removes a subscription. Removing one that is absent or was
// already removed is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)

	h.logger.Debug("subscriber removed", "sub_id", sub.id)
}

// SubscriberCount reports the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close drops all subscriptions. Events published afterwards go nowhere.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.subs)
	h.logger.Debug("hub closed")
}
