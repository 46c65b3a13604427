// ABOUTME: JSON snapshot implementation of ChatStore backed by a single file
// ABOUTME: Holds all chats in memory under one lock and rewrites the snapshot atomically per mutation

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// snapshot is the on-disk layout of the JSON store.
type snapshot struct {
	Chats []*Chat `json:"chats"`
}

// JSONStore implements ChatStore with an in-memory map persisted to a single
// JSON file. One mutex serializes every operation, so each read observes the
// state of the last completed write.
type JSONStore struct {
	mu     sync.Mutex
	chats  map[string]*Chat
	path   string
	logger *slog.Logger
}

// NewJSONStore creates a store backed by the snapshot file at path, creating
// parent directories as needed. A missing snapshot starts the store empty; an
// unreadable or malformed one is logged and discarded rather than aborting
// startup.
func NewJSONStore(path string) (*JSONStore, error) {
	logger := slog.Default().With("component", "store")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &JSONStore{
		chats:  make(map[string]*Chat),
		path:   path,
		logger: logger,
	}
	s.load()

	logger.Info("JSON store initialized", "path", path, "chats", len(s.chats))
	return s, nil
}

// load populates the in-memory set from the snapshot file.
func (s *JSONStore) load() {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		s.logger.Error("failed to read chat snapshot, starting empty", "path", s.path, "error", err)
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Error("failed to parse chat snapshot, starting empty", "path", s.path, "error", err)
		return
	}

	for _, chat := range snap.Chats {
		if chat.History == nil {
			chat.History = []Message{}
		}
		s.chats[chat.ID] = chat
	}
}

// List returns summaries of all chats, newest first.
func (s *JSONStore) List(ctx context.Context) ([]ChatSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]ChatSummary, 0, len(s.chats))
	for _, chat := range s.chats {
		summaries = append(summaries, chat.Summary())
	}
	slices.SortStableFunc(summaries, func(a, b ChatSummary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return summaries, nil
}

// Create adds an empty chat with the given title and persists it.
func (s *JSONStore) Create(ctx context.Context, title string) (ChatSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return ChatSummary{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat := &Chat{
		ID:        NewChatID(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
		History:   []Message{},
	}
	s.chats[chat.ID] = chat

	if err := s.save(); err != nil {
		return ChatSummary{}, err
	}

	s.logger.Debug("chat created", "chat_id", chat.ID, "title", chat.Title)
	return chat.Summary(), nil
}

// History returns a copy of the chat's messages in append order.
func (s *JSONStore) History(ctx context.Context, id string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(chat.History), nil
}

// Append adds a message to a chat and rewrites the snapshot. On a failed
// write the message stays in memory and the next successful mutation
// persists it.
func (s *JSONStore) Append(ctx context.Context, id string, role Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return ErrNotFound
	}
	chat.History = append(chat.History, Message{Role: role, Content: content})

	return s.save()
}

// Close implements ChatStore. The snapshot is already current after every
// mutation, so there is nothing to flush.
func (s *JSONStore) Close() error {
	return nil
}

// save writes the full snapshot, newest chat first. Callers must hold s.mu.
func (s *JSONStore) save() error {
	snap := snapshot{Chats: make([]*Chat, 0, len(s.chats))}
	for _, chat := range s.chats {
		snap.Chats = append(snap.Chats, chat)
	}
	slices.SortStableFunc(snap.Chats, func(a, b *Chat) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// writeFileAtomic writes data through a temp file in the same directory and
// renames it into place, so a crash mid-write never leaves a truncated
// snapshot behind.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".parley-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
