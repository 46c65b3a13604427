package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatID_Format(t *testing.T) {
	id := NewChatID()
	assert.Len(t, id, 12)
	assert.Regexp(t, "^[0-9a-f]{12}$", id)
}

func TestNewChatID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewChatID()
		require.False(t, seen[id], "chat ids must be unique")
		seen[id] = true
	}
}

func TestChat_Summary(t *testing.T) {
	created := time.Now().UTC()
	chat := &Chat{
		ID:        "abc123def456",
		Title:     "Demo",
		CreatedAt: created,
		History:   []Message{{Role: RoleUser, Content: "hi"}},
	}

	summary := chat.Summary()
	assert.Equal(t, "abc123def456", summary.ID)
	assert.Equal(t, "Demo", summary.Title)
	assert.Equal(t, created, summary.CreatedAt)
}
