package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/config"
)

func TestEchoResponder_EchoesContent(t *testing.T) {
	r := EchoResponder{}

	reply, err := r.Respond(context.Background(), "chat-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "You said: hi", reply)
}

func TestEchoResponder_Delay(t *testing.T) {
	r := EchoResponder{Delay: 50 * time.Millisecond}

	start := time.Now()
	_, err := r.Respond(context.Background(), "chat-1", "hi")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestEchoResponder_DelayHonorsContext(t *testing.T) {
	r := EchoResponder{Delay: time.Minute}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Respond(ctx, "chat-1", "hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewResponder_Echo(t *testing.T) {
	r, err := NewResponder(config.AgentConfig{Type: "echo", Delay: time.Second})
	require.NoError(t, err)

	echo, ok := r.(EchoResponder)
	require.True(t, ok)
	assert.Equal(t, time.Second, echo.Delay)
}

func TestNewResponder_UnknownType(t *testing.T) {
	_, err := NewResponder(config.AgentConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unknown agent type")
}
