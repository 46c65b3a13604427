// ABOUTME: HTTP handlers for the webchat REST API
// ABOUTME: Maps store and channel errors onto boundary status codes and JSON envelopes

package webchat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2389/parley/internal/store"
)

// createChatRequest is the JSON body for POST /chats.
type createChatRequest struct {
	Title string `json:"title"`
}

// postMessageRequest is the JSON body for POST /chats/{id}/messages.
type postMessageRequest struct {
	Content string `json:"content"`
}

// handleIndex serves the embedded chat page.
func (c *Channel) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

// handleHealth reports liveness.
func (c *Channel) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListChats handles GET /chats.
func (c *Channel) handleListChats(w http.ResponseWriter, r *http.Request) {
	summaries, err := c.store.List(r.Context())
	if err != nil {
		c.logger.Error("failed to list chats", "error", err)
		c.sendJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	c.sendJSON(w, http.StatusOK, summaries)
}

// handleCreateChat handles POST /chats.
func (c *Channel) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	summary, err := c.store.Create(r.Context(), req.Title)
	if err != nil {
		c.writeOperationError(w, err)
		return
	}

	c.logger.Info("chat created", "chat_id", summary.ID, "title", summary.Title)
	c.sendJSON(w, http.StatusCreated, summary)
}

// handleGetMessages handles GET /chats/{id}/messages.
func (c *Channel) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	history, err := c.store.History(r.Context(), r.PathValue("id"))
	if err != nil {
		c.writeOperationError(w, err)
		return
	}
	c.sendJSON(w, http.StatusOK, history)
}

// handlePostMessage handles POST /chats/{id}/messages. A 202 means the
// message was persisted and queued; the reply arrives on the event stream.
func (c *Channel) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := c.Submit(r.Context(), r.PathValue("id"), req.Content); err != nil {
		c.writeOperationError(w, err)
		return
	}

	c.sendJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// writeOperationError maps operation failures onto status codes. Sentinel
// errors carry their boundary message; everything else is a 500.
func (c *Channel) writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrEmptyTitle) || errors.Is(err, ErrEmptyContent):
		c.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		c.sendJSONError(w, http.StatusNotFound, err.Error())
	default:
		c.logger.Error("request failed", "error", err)
		c.sendJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func (c *Channel) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (c *Channel) sendJSONError(w http.ResponseWriter, status int, message string) {
	c.sendJSON(w, status, map[string]string{"error": message})
}
