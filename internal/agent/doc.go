// Package agent runs the reply-producing side of parley.
//
// # Overview
//
// The agent package consumes user messages from the bus, asks a Responder
// for a reply and publishes the reply back on the bus. It never touches
// HTTP, persistence or the event hub; those belong to the channel.
//
// # Runner
//
// The Runner owns the consume loop:
//
//	runner := agent.NewRunner(msgBus, responder, logger)
//	runner.Start(ctx)
//	defer runner.Stop()
//
// Messages are handled one at a time in arrival order. A Responder error
// is turned into an assistant_error reply rather than dropped, so the
// failure shows up in the chat it belongs to.
//
// # Responders
//
// Responder is the single extension point for plugging in a real agent:
//
//	type Responder interface {
//		Respond(ctx context.Context, chatID, content string) (string, error)
//	}
//
// EchoResponder is the built-in default. It echoes the user's message
// back, with an optional configured delay to mimic agent latency.
package agent
