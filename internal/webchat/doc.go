// Package webchat is the browser-facing channel of parley.
//
// # Overview
//
// The webchat channel serves the embedded single-page UI and a small JSON
// API, persists user messages, hands them to the agent pipeline over the
// bus and pushes replies to every connected browser over Server-Sent
// Events.
//
// # Request Flow
//
// Sending a message:
//
//  1. POST /chats/{id}/messages validates and persists the user message
//  2. The message is queued inbound on the bus; the request returns 202
//  3. The agent runner produces a reply and queues it outbound
//  4. Deliver persists the reply, then publishes it to the hub
//  5. Every open /events stream relays the event to its browser
//
// Replies are persisted before they are broadcast. A client that reloads
// history after seeing an event always finds that event's message in the
// history; the other order could show a reply once and then lose it.
//
// # Endpoints
//
//   - GET  /                      embedded chat UI
//   - GET  /help                  rendered help page
//   - GET  /healthz               liveness
//   - GET  /chats                 list chats, newest first
//   - POST /chats                 create a chat
//   - GET  /chats/{id}/messages   full history
//   - POST /chats/{id}/messages   submit a message (202 on accept)
//   - GET  /events                SSE stream of replies
//
// # Event Stream
//
// Each /events connection holds one hub subscription for its lifetime.
// Events are written as data frames; when nothing arrives within the
// configured heartbeat window, a comment frame keeps the connection warm.
// The server never reconnects a dropped stream; the browser retries.
//
// # Lifecycle
//
// Start listens on the configured TCP address or, when Tailscale is
// enabled, on a tsnet node (optionally exposed via Funnel). Stop cancels
// live stream sessions, then shuts the HTTP server down within the
// caller's deadline.
package webchat
