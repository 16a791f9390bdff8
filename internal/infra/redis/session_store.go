package redis

import (
	"context"
	"sync"
	"time"

	"ai-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRegistry.
// Notes:
//   - Sessions own a live countdown goroutine, so the session objects stay in a local map.
//   - Redis holds a liveness marker per session (owner id as value) so operators and other
//     instances can see which attempts are in progress.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.AttemptSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.AttemptSession),
	}
}

func (s *SessionStore) Add(ctx context.Context, session *app.AttemptSession) error {
	if err := s.client.Set(ctx, s.key(session.ID()), session.UserID(), s.ttl).Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*app.AttemptSession, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		// best-effort refresh of the liveness marker
		_ = s.client.Expire(ctx, s.key(id), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	_ = s.client.Del(ctx, s.key(id)).Err()
}

// CountLive returns how many sessions are marked live in Redis across all instances.
func (s *SessionStore) CountLive(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

const keyPrefix = "attempt:session:"

func (s *SessionStore) key(id string) string {
	return keyPrefix + id
}
