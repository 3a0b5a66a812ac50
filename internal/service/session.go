// Package service provides business logic for the research platform.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/pkg/logger"
	"github.com/synapse-ai/research-platform/pkg/metrics"
)

// ErrSessionNotFound is returned when reading an unknown session id. Writes
// never see it: writing to an unknown id creates the session.
var ErrSessionNotFound = errors.New("session not found")

// sessionEntry pairs a session with its own mutex so lazy creation plus
// append on one id is a single critical section.
type sessionEntry struct {
	mu      sync.Mutex
	session *model.Session
}

// SessionStore is the process-wide registry of sessions. State lives for the
// process lifetime only; idle sessions are evicted by the TTL sweeper.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	logger   *logger.Logger
}

// NewSessionStore creates a session store. A zero ttl disables eviction.
func NewSessionStore(ttl time.Duration, log *logger.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		logger:   log,
	}
}

// entry returns the entry for id, creating it if needed. Creation is
// idempotent: concurrent callers with the same unknown id share one entry.
func (s *SessionStore) entry(id string) *sessionEntry {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.sessions[id]; ok {
		return e
	}

	now := time.Now()
	e = &sessionEntry{
		session: &model.Session{
			ID:        id,
			Title:     model.DefaultSessionTitle,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	s.sessions[id] = e
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.logger.Info("session created", zap.String("session_id", id))
	return e
}

// GetOrCreate returns a snapshot of the session, creating it on first
// reference to an unknown id.
func (s *SessionStore) GetOrCreate(id string) *model.Session {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.session)
}

// Get returns a snapshot of an existing session, or ErrSessionNotFound.
func (s *SessionStore) Get(id string) (*model.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.session), nil
}

// Append appends messages to the session in order, creating the session if
// the id is unknown, and touches the update timestamp. The whole
// read-modify-write is serialized per session id.
func (s *SessionStore) Append(id string, msgs ...model.Message) *model.Session {
	e := s.entry(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.session.Messages = append(e.session.Messages, msgs...)
	e.session.UpdatedAt = time.Now()
	for _, m := range msgs {
		metrics.MessagesTotal.WithLabelValues(string(m.Role)).Inc()
	}
	return snapshot(e.session)
}

// History returns the session's history, or nil if the id is unknown.
func (s *SessionStore) History(id string) model.History {
	sess, err := s.Get(id)
	if err != nil {
		return nil
	}
	return sess.Messages
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartSweeper evicts sessions idle longer than the TTL until the context is
// cancelled. Eviction is whole-session: history inside a live session is
// never trimmed.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *SessionStore) sweep() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		e.mu.Lock()
		idle := e.session.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			s.logger.Info("session evicted", zap.String("session_id", id))
		}
	}
	metrics.SessionsActive.Set(float64(len(s.sessions)))
}

// snapshot copies the session so callers never share the live message slice.
func snapshot(sess *model.Session) *model.Session {
	out := *sess
	out.Messages = append(model.History(nil), sess.Messages...)
	return &out
}
