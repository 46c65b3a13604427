// Package bus decouples channels from the agent pipeline.
//
// # Overview
//
// A channel accepts user messages and publishes them inbound; the agent
// runner consumes them, produces replies and publishes them outbound; a
// dispatch loop hands each reply back to its channel for persistence and
// broadcast. Neither side holds a reference to the other.
//
// # Flow
//
//	webchat --PublishInbound--> [bus] --Inbound()--> agent runner
//	webchat <--Outbound()----- [bus] <--PublishOutbound-- agent runner
//
// Queues are buffered so a short burst never stalls the HTTP handlers.
// When a queue fills, publishers block until there is room or their
// context ends, which keeps backpressure visible to callers instead of
// silently dropping messages.
package bus
