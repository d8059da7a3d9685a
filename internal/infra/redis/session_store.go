package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"formflow/internal/app"
	"formflow/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps fill sessions in Redis so any instance can serve the next request.
// Sessions expire ttl after their last change.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, session app.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	return s.client.Set(ctx, s.key(session.ID), payload, s.ttl).Err()
}

func (s *SessionStore) Load(ctx context.Context, id string) (app.Session, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return app.Session{}, err
	}
	var session app.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return app.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "formflow:session:" + id
}
