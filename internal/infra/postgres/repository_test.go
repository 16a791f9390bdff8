package postgres

import (
	"context"
	"errors"
	"testing"

	"ai-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// Malformed ids are answered without a round trip, so a nil pool is enough here.

func TestGetUserByMalformedID(t *testing.T) {
	repo := NewUserRepository(nil)
	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestScoreLookupsWithMalformedIDs(t *testing.T) {
	repo := NewScoreRepository(nil)
	ctx := context.Background()
	valid := uuid.NewString()

	if _, err := repo.Get(ctx, valid, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for bad attempt id, got %v", err)
	}
	if _, err := repo.Get(ctx, "not-a-uuid", valid); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for bad user id, got %v", err)
	}

	list, err := repo.ListByUser(ctx, "not-a-uuid")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}
