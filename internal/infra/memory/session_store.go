package memory

import (
	"context"
	"sync"

	"formflow/internal/app"
	"formflow/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]app.Session),
	}
}

func (s *SessionStore) Save(_ context.Context, session app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = detach(session)
	return nil
}

func (s *SessionStore) Load(_ context.Context, id string) (app.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return app.Session{}, domain.ErrSessionNotFound
	}
	return detach(session), nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func detach(session app.Session) app.Session {
	session.Snapshot.History = append([]int(nil), session.Snapshot.History...)
	session.Snapshot.Answers = session.Snapshot.Answers.Clone()
	return session
}
