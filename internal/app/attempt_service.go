package app

import (
	"context"
	"fmt"

	"ai-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// SessionRegistry abstracts where live attempt sessions are tracked (in-memory, Redis, etc).
type SessionRegistry interface {
	Add(ctx context.Context, session *AttemptSession) error
	Get(ctx context.Context, id string) (*AttemptSession, bool)
	Remove(ctx context.Context, id string)
}

// AttemptService opens attempt sessions for authenticated users and tracks them while live.
type AttemptService struct {
	generator Generator
	recorder  AttemptRecorder
	sessions  SessionRegistry
	opts      []SessionOption
}

func NewAttemptService(generator Generator, recorder AttemptRecorder, sessions SessionRegistry, opts ...SessionOption) *AttemptService {
	return &AttemptService{generator: generator, recorder: recorder, sessions: sessions, opts: opts}
}

// Open creates an Idle session for user and registers it. Events are delivered to onEvent.
func (s *AttemptService) Open(ctx context.Context, user domain.User, onEvent func(Event)) (*AttemptSession, error) {
	if user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	session := NewAttemptSession(uuid.NewString(), user, s.generator, s.recorder, onEvent, s.opts...)
	if err := s.sessions.Add(ctx, session); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}
	return session, nil
}

// Get returns a live session owned by userID; other users' sessions are reported as not found.
func (s *AttemptService) Get(ctx context.Context, userID, id string) (*AttemptSession, error) {
	session, ok := s.sessions.Get(ctx, id)
	if !ok || session.UserID() != userID {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

// Close cancels the session's countdown and drops it from the registry.
func (s *AttemptService) Close(ctx context.Context, session *AttemptSession) {
	session.Close()
	s.sessions.Remove(ctx, session.ID())
}
