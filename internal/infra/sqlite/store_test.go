package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ai-quiz-service/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUserRepositoryRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := newTestStore(t).Users()

	created, err := users.Create(ctx, domain.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := users.Create(ctx, domain.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "h", CreatedAt: time.Now()}); !errors.Is(err, domain.ErrDuplicateUser) {
		t.Fatalf("expected duplicate user, got %v", err)
	}

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	if err != nil || byEmail.ID != created.ID || byEmail.PasswordHash != "h" {
		t.Fatalf("GetByEmail = (%+v, %v)", byEmail, err)
	}
	if _, err := users.GetByID(ctx, "nope"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestScoreRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	scores := newTestStore(t).Scores()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	chosen := "4"

	first, err := scores.Insert(ctx, domain.StoredAttempt{
		UserID:   "u1",
		Username: "alice",
		Attempt: domain.Attempt{
			Topic:      "math",
			Difficulty: domain.DifficultyEasy,
			Score:      1,
			Total:      2,
			Report: []domain.ReportEntry{
				{Question: "2+2", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4", ChosenAnswer: &chosen},
				{Question: "3+3", Options: []string{"5", "6", "7", "8"}, CorrectAnswer: "6"},
			},
		},
		CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := scores.Insert(ctx, domain.StoredAttempt{
		UserID:    "u1",
		Username:  "alice",
		Attempt:   domain.Attempt{Topic: "go", Difficulty: domain.DifficultyHard, Score: 7, Total: 10},
		CreatedAt: base.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("insert 2: %v", err)
	}

	list, err := scores.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second || list[1].ID != first {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].Summary().Percentage != "70.00" {
		t.Fatalf("expected 70.00, got %s", list[0].Summary().Percentage)
	}

	got, err := scores.Get(ctx, "u1", first)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Attempt.Report) != 2 || got.Attempt.Report[1].ChosenAnswer != nil || *got.Attempt.Report[0].ChosenAnswer != "4" {
		t.Fatalf("unexpected report %+v", got.Attempt.Report)
	}

	if _, err := scores.Get(ctx, "u2", first); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
}
