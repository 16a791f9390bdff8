package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	"ai-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestUserCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	ctx := context.Background()

	users := memory.NewUserRepository()
	created, err := users.Create(ctx, domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "secret-hash",
		CreatedAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	repo := &countingRepo{UserRepository: users}
	cache := NewUserCache(client, repo, time.Minute)

	if _, err := cache.GetByID(ctx, created.ID); err != nil {
		t.Fatalf("get user: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected repository called once, got %d", repo.calls)
	}
	if mr.HGet("user:"+created.ID, "email") != "alice@example.com" {
		t.Fatalf("expected user hash in redis")
	}
	if mr.HGet("user:"+created.ID, "passwordHash") != "" {
		t.Fatalf("password hash must not be cached")
	}

	// Second call should hit cache, repository not incremented.
	got, err := cache.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get user 2: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected cache hit, repository calls=%d", repo.calls)
	}
	if got.Username != "alice" || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("unexpected cached user %+v", got)
	}
}

func TestUserCachePropagatesNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewUserCache(newClient(mr), memory.NewUserRepository(), time.Minute)
	if _, err := cache.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
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

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
