// ABOUTME: Data types and persistence interface for parley chats
// ABOUTME: Defines Chat, Message, Role and the ChatStore contract shared by all backends

package store

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested chat does not exist.
var ErrNotFound = errors.New("chat not found")

// ErrEmptyTitle is returned when creating a chat with a blank title.
var ErrEmptyTitle = errors.New("title is required")

// Role identifies the author of a message.
type Role string

const (
	RoleUser           Role = "user"
	RoleAssistant      Role = "assistant"
	RoleAssistantError Role = "assistant_error"
	RoleSystem         Role = "system"
)

// Message is a single entry in a chat history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Chat is a conversation thread with its full message history.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	History   []Message `json:"history"`
}

// Summary returns the chat without its history.
func (c *Chat) Summary() ChatSummary {
	return ChatSummary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt}
}

// ChatSummary describes a chat for listing purposes.
type ChatSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatStore defines the interface for chat persistence.
type ChatStore interface {
	// List returns summaries of all chats, newest first.
	List(ctx context.Context) ([]ChatSummary, error)

	// Create adds an empty chat with the given title and persists it.
	// A blank title yields ErrEmptyTitle.
	Create(ctx context.Context, title string) (ChatSummary, error)

	// History returns the messages of a chat in append order.
	// Unknown ids yield ErrNotFound.
	History(ctx context.Context, id string) ([]Message, error)

	// Append adds a message to a chat and persists the change.
	// Unknown ids yield ErrNotFound.
	Append(ctx context.Context, id string, role Role, content string) error

	// Close releases any resources held by the store.
	Close() error
}

// NewChatID returns a fresh 12-character hex chat identifier.
func NewChatID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:12]
}
