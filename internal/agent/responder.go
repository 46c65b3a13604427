// ABOUTME: Responder interface and built-in implementations for the agent pipeline
// ABOUTME: EchoResponder answers by repeating the user's message, optionally delayed

package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/2389/parley/internal/config"
)

// Responder produces a reply to a user message. Implementations must be
// safe for concurrent use.
type Responder interface {
	Respond(ctx context.Context, chatID, content string) (string, error)
}

// EchoResponder answers every message by echoing it back, optionally after
// a fixed delay. It stands in for a real agent in development and tests.
type EchoResponder struct {
	Delay time.Duration
}

// Respond implements Responder.
func (e EchoResponder) Respond(ctx context.Context, chatID, content string) (string, error) {
	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "You said: " + content, nil
}

// NewResponder builds the responder selected by the agent configuration.
func NewResponder(cfg config.AgentConfig) (Responder, error) {
	switch cfg.Type {
	case "echo":
		return EchoResponder{Delay: cfg.Delay}, nil
	default:
		return nil, fmt.Errorf("unknown agent type: %q", cfg.Type)
	}
}
