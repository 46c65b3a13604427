// Package hub provides in-memory pub/sub for live chat events.
//
// # Overview
//
// The hub sits between the webchat channel and its stream sessions. When a
// reply is persisted, the channel publishes an Event and every connected
// stream session relays it to its client.
//
// # Subscriptions
//
// Each subscriber registers with its connection context:
//
//	sub := h.Subscribe(r.Context())
//	defer h.Unsubscribe(sub)
//
//	for {
//		event, err := sub.Next(r.Context(), 20*time.Second)
//		...
//	}
//
// Next blocks until an event arrives, the wait elapses (ErrIdle, used for
// heartbeats) or the context ends. The subscription is also removed
// automatically when its context is cancelled, so an exit on any path
// cleans up at most twice and both are safe.
//
// # Delivery Guarantees
//
// Publish snapshots the subscriber set and appends to each subscription's
// private queue. Queues are unbounded: a slow consumer never blocks the
// publisher or other subscribers, it just accumulates backlog. Events are
// delivered to each subscriber exactly once and in publish order. There is
// no replay for late joiners and no cross-process fan-out.
package hub
