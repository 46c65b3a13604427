// ABOUTME: Webchat channel tying HTTP, persistence, event hub and message bus together
// ABOUTME: Owns the server lifecycle and the submit/deliver operations behind the API

package webchat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"tailscale.com/tsnet"

	"github.com/2389/parley/internal/bus"
	"github.com/2389/parley/internal/config"
	"github.com/2389/parley/internal/hub"
	"github.com/2389/parley/internal/store"
)

// ErrEmptyContent is returned when a submitted message has no content.
var ErrEmptyContent = errors.New("content is required")

// channelName identifies this channel on the message bus.
const channelName = "web"

// Channel serves the browser chat UI and its API. It persists user
// messages, hands them to the agent pipeline and pushes replies to live
// event streams.
type Channel struct {
	cfg    *config.Config
	store  store.ChatStore
	hub    *hub.Hub
	bus    *bus.Bus
	logger *slog.Logger

	httpServer  *http.Server
	tsnetServer *tsnet.Server
	errCh       chan error

	mu             sync.Mutex
	started        bool
	addr           string
	cancelSessions context.CancelFunc
}

// NewChannel creates the webchat channel. Pass nil to use the default
// logger. The channel does not listen until Start is called.
func NewChannel(cfg *config.Config, st store.ChatStore, h *hub.Hub, b *bus.Bus, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Channel{
		cfg:    cfg,
		store:  st,
		hub:    h,
		bus:    b,
		logger: logger.With("component", "webchat"),
		errCh:  make(chan error, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /help", c.handleHelp)
	mux.HandleFunc("GET /healthz", c.handleHealth)
	mux.HandleFunc("GET /chats", c.handleListChats)
	mux.HandleFunc("POST /chats", c.handleCreateChat)
	mux.HandleFunc("GET /chats/{id}/messages", c.handleGetMessages)
	mux.HandleFunc("POST /chats/{id}/messages", c.handlePostMessage)
	mux.HandleFunc("GET /events", c.handleEvents)

	c.httpServer = &http.Server{Handler: mux}
	return c
}

// Start begins serving in the background. Starting a channel that is
// already running is a no-op.
func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	// Stream sessions outlive the Start call; they end when Stop cancels
	// this context or their own connection closes.
	sessionCtx, cancel := context.WithCancel(context.Background())
	c.cancelSessions = cancel
	c.httpServer.BaseContext = func(net.Listener) context.Context { return sessionCtx }

	ln, err := c.setupListener(ctx)
	if err != nil {
		cancel()
		return err
	}

	c.addr = ln.Addr().String()

	go func() {
		c.logger.Info("webchat listening", "addr", ln.Addr().String())
		if err := c.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	c.started = true
	return nil
}

// Addr returns the address the channel is listening on, or "" before Start.
func (c *Channel) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Stop shuts the channel down, waiting for in-flight requests until ctx
// expires. Stopping a channel that never started is a no-op.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	c.started = false

	c.logger.Info("stopping webchat channel")

	// End stream sessions first so Shutdown is not held open by them
	c.cancelSessions()

	var errs []error
	errs = appendCloseError(errs, "http shutdown", c.httpServer.Shutdown(ctx))
	if c.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", c.tsnetServer.Close())
		c.tsnetServer = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// Err reports a server failure after a successful Start.
func (c *Channel) Err() <-chan error {
	return c.errCh
}

// setupListener returns the listener the HTTP server runs on, either plain
// TCP or a Tailscale node.
func (c *Channel) setupListener(ctx context.Context) (net.Listener, error) {
	if c.cfg.Tailscale.Enabled {
		c.logger.Info("tailscale enabled, ignoring server.host and server.port")
		return c.setupTailscaleListener(ctx)
	}

	addr := c.cfg.Server.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	return ln, nil
}

// setupTailscaleListener starts a tsnet node and listens on it, publicly
// via Funnel when configured, otherwise inside the tailnet on port 80.
func (c *Channel) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := c.cfg.Tailscale

	if err := os.MkdirAll(tsCfg.StateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := c.resolveTailscaleAuthKey()
	if err != nil {
		return nil, err
	}

	c.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       tsCfg.StateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	c.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", tsCfg.StateDir)

	status, err := c.tsnetServer.Up(ctx)
	if err != nil {
		c.tsnetServer.Close()
		c.tsnetServer = nil
		return nil, fmt.Errorf("starting tailscale node: %w", err)
	}
	if status.Self != nil {
		c.logger.Info("tailscale node ready", "dns_name", status.Self.DNSName, "ips", status.TailscaleIPs)
	}

	if tsCfg.Funnel {
		ln, err := c.tsnetServer.ListenFunnel("tcp", ":443")
		if err != nil {
			c.tsnetServer.Close()
			c.tsnetServer = nil
			return nil, fmt.Errorf("listening on tailscale funnel: %w", err)
		}
		c.logger.Info("tailscale funnel enabled", "hostname", tsCfg.Hostname)
		return ln, nil
	}

	ln, err := c.tsnetServer.Listen("tcp", ":80")
	if err != nil {
		c.tsnetServer.Close()
		c.tsnetServer = nil
		return nil, fmt.Errorf("listening on tailscale: %w", err)
	}
	return ln, nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func (c *Channel) resolveTailscaleAuthKey() (string, error) {
	if c.cfg.Tailscale.AuthKey != "" {
		return c.cfg.Tailscale.AuthKey, nil
	}
	if key := os.Getenv("TS_AUTHKEY"); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("tailscale auth key not found: set tailscale.auth_key in the config or TS_AUTHKEY in the environment")
}

// Submit records a user message and queues it for the agent pipeline. A nil
// return means the message was accepted, not that a reply exists yet.
func (c *Channel) Submit(ctx context.Context, chatID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}

	if err := c.store.Append(ctx, chatID, store.RoleUser, content); err != nil {
		return err
	}

	msg := bus.InboundMessage{Channel: channelName, ChatID: chatID, Content: content}
	if err := c.bus.PublishInbound(ctx, msg); err != nil {
		return fmt.Errorf("queueing message for agent: %w", err)
	}

	c.logger.Debug("message accepted", "chat_id", chatID)
	return nil
}

// Deliver records an assistant reply and pushes it to live subscribers.
func (c *Channel) Deliver(ctx context.Context, chatID, content string) error {
	return c.deliver(ctx, chatID, store.RoleAssistant, content)
}

// DeliverError records a failed agent turn so the failure stays visible in
// the chat it belongs to.
func (c *Channel) DeliverError(ctx context.Context, chatID, content string) error {
	return c.deliver(ctx, chatID, store.RoleAssistantError, content)
}

// deliver appends the reply and then broadcasts it. Persisting first means
// a client that reloads history never saw an event missing from it.
// Replies addressed to unknown chats are dropped with a warning.
func (c *Channel) deliver(ctx context.Context, chatID string, role store.Role, content string) error {
	if err := c.store.Append(ctx, chatID, role, content); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("dropping reply for unknown chat", "chat_id", chatID)
			return nil
		}
		return fmt.Errorf("recording reply: %w", err)
	}

	c.hub.Publish(&hub.Event{ChatID: chatID, Role: role, Content: content})
	return nil
}

// appendCloseError accumulates labeled shutdown errors.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}
