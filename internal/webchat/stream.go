// ABOUTME: Server-Sent Events streaming for live chat updates
// ABOUTME: One hub subscription per connection, heartbeats on idle, unsubscribe on every exit

package webchat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/2389/parley/internal/hub"
)

// handleEvents handles GET /events. Each connection gets its own hub
// subscription and receives every appended reply as a data frame. Comment
// heartbeats keep proxies from reaping idle connections; clients are
// expected to reconnect on their own when the stream drops.
func (c *Channel) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		c.logger.Error("streaming not supported by response writer")
		c.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := c.hub.Subscribe(r.Context())
	defer c.hub.Unsubscribe(sub)

	c.logger.Debug("stream session opened")

	for {
		event, err := sub.Next(r.Context(), c.cfg.Stream.Heartbeat)
		switch {
		case errors.Is(err, hub.ErrIdle):
			if _, werr := fmt.Fprint(w, ": heartbeat\n\n"); werr != nil {
				c.logger.Debug("stream session closed", "reason", werr)
				return
			}
			flusher.Flush()

		case err != nil:
			c.logger.Debug("stream session closed", "reason", err)
			return

		default:
			data, merr := json.Marshal(event)
			if merr != nil {
				c.logger.Error("failed to marshal event", "error", merr)
				continue
			}
			if _, werr := fmt.Fprintf(w, "data: %s\n\n", data); werr != nil {
				c.logger.Debug("stream session closed", "reason", werr)
				return
			}
			flusher.Flush()
		}
	}
}
