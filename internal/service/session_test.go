package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/pkg/logger"
)

func msg(role model.Role, content string) model.Message {
	return model.Message{
		ID:        content,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	store := NewSessionStore(0, logger.NewNop())

	first := store.GetOrCreate("s1")
	second := store.GetOrCreate("s1")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, model.DefaultSessionTitle, first.Title)
}

func TestGetUnknownSessionNotFound(t *testing.T) {
	store := NewSessionStore(0, logger.NewNop())

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAppendAutoCreatesAndTouches(t *testing.T) {
	store := NewSessionStore(0, logger.NewNop())

	sess := store.Append("s1", msg(model.RoleUser, "hi"))
	require.Len(t, sess.Messages, 1)
	assert.False(t, sess.UpdatedAt.Before(sess.CreatedAt))

	before := sess.UpdatedAt
	time.Sleep(5 * time.Millisecond)
	sess = store.Append("s1", msg(model.RoleAssistant, "hello"))
	assert.True(t, sess.UpdatedAt.After(before))
	assert.Len(t, sess.Messages, 2)
}

func TestAppendPreservesOrder(t *testing.T) {
	store := NewSessionStore(0, logger.NewNop())

	for i := 0; i < 10; i++ {
		store.Append("s1", msg(model.RoleUser, fmt.Sprintf("m%d", i)))
	}

	sess, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 10)
	for i, m := range sess.Messages {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Content)
	}
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	store := NewSessionStore(0, logger.NewNop())

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			store.Append("shared", msg(model.RoleUser, fmt.Sprintf("m%d", i)))
		}(i)
	}
	wg.Wait()

	sess, err := store.Get("shared")
	require.NoError(t, err)
	require.Len(t, sess.Messages, n)

	seen := make(map[string]bool, n)
	for _, m := range sess.Messages {
		assert.False(t, seen[m.Content], "duplicate entry %s", m.Content)
		seen[m.Content] = true
	}
}

func TestConcurrentGetOrCreateSingleSession(t *testing.T) {
	store := NewSessionStore(0, logger.NewNop())

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			store.GetOrCreate("same")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.Len())
}

func TestSnapshotIsolation(t *testing.T) {
	store := NewSessionStore(0, logger.NewNop())
	store.Append("s1", msg(model.RoleUser, "first"))

	snap, err := store.Get("s1")
	require.NoError(t, err)

	store.Append("s1", msg(model.RoleAssistant, "second"))

	// Earlier snapshot is unaffected by later appends.
	assert.Len(t, snap.Messages, 1)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	store := NewSessionStore(10*time.Millisecond, logger.NewNop())

	store.Append("old", msg(model.RoleUser, "hi"))
	time.Sleep(20 * time.Millisecond)
	store.Append("fresh", msg(model.RoleUser, "hi"))

	store.sweep()

	_, err := store.Get("old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get("fresh")
	assert.NoError(t, err)
}
