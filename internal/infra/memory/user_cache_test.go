package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
)

func TestUserCacheCaches(t *testing.T) {
	users := NewUserRepository()
	created, err := users.Create(context.Background(), domain.User{Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo := &countingRepo{UserRepository: users}
	cache := NewUserCache(repo, time.Minute)

	if _, err := cache.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("get user: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected repository once, got %d", repo.calls)
	}

	got, err := cache.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get user 2: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected cache hit, repository calls %d", repo.calls)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestUserCacheDoesNotCacheMisses(t *testing.T) {
	repo := &countingRepo{UserRepository: NewUserRepository()}
	cache := NewUserCache(repo, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected user not found, got %v", err)
		}
	}
	if repo.calls != 2 {
		t.Fatalf("expected misses to reach repository, got %d calls", repo.calls)
	}
}

func TestUserCacheExpires(t *testing.T) {
	users := NewUserRepository()
	created, _ := users.Create(context.Background(), domain.User{Username: "bob", Email: "bob@example.com"})
	repo := &countingRepo{UserRepository: users}
	cache := NewUserCache(repo, time.Minute)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	_, _ = cache.GetByID(context.Background(), created.ID)
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetByID(context.Background(), created.ID)
	if repo.calls != 2 {
		t.Fatalf("expected reload after expiry, got %d calls", repo.calls)
	}
}

type countingRepo struct {
	app.UserRepository
	calls int
}

func (r *countingRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	r.calls++
	return r.UserRepository.GetByID(ctx, id)
}
