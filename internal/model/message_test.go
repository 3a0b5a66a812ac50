package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(role Role, content string) Message {
	return Message{
		ID:        content,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func TestHistoryPreservesAppendOrder(t *testing.T) {
	var h History
	contents := []string{"one", "two", "three", "four"}
	for i, c := range contents {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		h = append(h, turn(role, c))
	}

	require.Len(t, h, len(contents))
	for i, c := range contents {
		assert.Equal(t, c, h[i].Content)
	}
}

func TestHistoryByRole(t *testing.T) {
	h := History{
		turn(RoleUser, "hi"),
		turn(RoleAssistant, "hello"),
		turn(RoleUser, "question"),
	}

	users := h.ByRole(RoleUser)
	require.Len(t, users, 2)
	assert.Equal(t, "hi", users[0].Content)
	assert.Equal(t, "question", users[1].Content)

	assistants := h.ByRole(RoleAssistant)
	require.Len(t, assistants, 1)

	// Derived views never mutate the sequence.
	assert.Len(t, h, 3)
}

func TestHistoryLatest(t *testing.T) {
	var h History
	assert.Nil(t, h.Latest())

	h = append(h, turn(RoleUser, "first"), turn(RoleAssistant, "second"))
	latest := h.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, "second", latest.Content)
}

func TestHistoryTail(t *testing.T) {
	h := History{
		turn(RoleUser, "a"),
		turn(RoleAssistant, "b"),
		turn(RoleUser, "c"),
	}

	assert.Len(t, h.Tail(2), 2)
	assert.Equal(t, "b", h.Tail(2)[0].Content)
	assert.Len(t, h.Tail(10), 3)
	assert.Len(t, h.Tail(0), 3)
}

func TestHistoryCounts(t *testing.T) {
	h := History{
		turn(RoleUser, "a"),
		turn(RoleAssistant, "b"),
		turn(RoleUser, "c"),
	}

	counts := h.Counts()
	assert.Equal(t, 2, counts[RoleUser])
	assert.Equal(t, 1, counts[RoleAssistant])
}

func TestIntentValid(t *testing.T) {
	assert.True(t, IntentResearch.Valid())
	assert.True(t, IntentConversation.Valid())
	assert.False(t, Intent("banter").Valid())
	assert.False(t, Intent("").Valid())
}
