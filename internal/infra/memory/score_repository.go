package memory

import (
	"context"
	"sort"
	"sync"

	"ai-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// ScoreRepository stores attempts in memory; insertion order breaks timestamp ties.
type ScoreRepository struct {
	mu       sync.RWMutex
	seq      int64
	attempts map[string]storedAttempt
}

type storedAttempt struct {
	seq     int64
	attempt domain.StoredAttempt
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{attempts: make(map[string]storedAttempt)}
}

func (r *ScoreRepository) Insert(_ context.Context, attempt domain.StoredAttempt) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	attempt.ID = uuid.NewString()
	r.attempts[attempt.ID] = storedAttempt{seq: r.seq, attempt: attempt}
	return attempt.ID, nil
}

func (r *ScoreRepository) ListByUser(_ context.Context, userID string) ([]domain.StoredAttempt, error) {
	r.mu.RLock()
	entries := make([]storedAttempt, 0)
	for _, e := range r.attempts {
		if e.attempt.UserID == userID {
			entries = append(entries, e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].attempt.CreatedAt, entries[j].attempt.CreatedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return entries[i].seq > entries[j].seq
	})

	out := make([]domain.StoredAttempt, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.attempt)
	}
	return out, nil
}

func (r *ScoreRepository) Get(_ context.Context, userID, attemptID string) (domain.StoredAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.attempts[attemptID]
	if !ok || e.attempt.UserID != userID {
		return domain.StoredAttempt{}, domain.ErrNotFound
	}
	return e.attempt, nil
}

// Count returns the number of stored attempts.
func (r *ScoreRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attempts)
}
