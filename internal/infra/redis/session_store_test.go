package redis

import (
	"context"
	"testing"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewAttemptSession("s1", domain.User{ID: "u1"}, nil, nil, nil)
	if err := store.Add(ctx, session); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !mr.Exists("attempt:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if v, _ := mr.Get("attempt:session:s1"); v != "u1" {
		t.Fatalf("expected owner id as value, got %q", v)
	}
	if n, err := store.CountLive(ctx); err != nil || n != 1 {
		t.Fatalf("CountLive = (%d, %v), want (1, nil)", n, err)
	}

	if got, ok := store.Get(ctx, "s1"); !ok || got != session {
		t.Fatalf("expected session from local map")
	}

	store.Remove(ctx, "s1")
	if mr.Exists("attempt:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get(ctx, "s1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreMarkerExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	_ = store.Add(context.Background(), app.NewAttemptSession("s2", domain.User{ID: "u1"}, nil, nil, nil))

	mr.FastForward(2 * time.Minute)
	if mr.Exists("attempt:session:s2") {
		t.Fatalf("expected liveness marker to expire")
	}
}
