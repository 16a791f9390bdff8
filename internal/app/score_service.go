package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-quiz-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ScoreRepository persists graded attempts. Implementations must return domain.ErrNotFound
// for unknown ids and for attempts owned by another user.
type ScoreRepository interface {
	Insert(ctx context.Context, attempt domain.StoredAttempt) (string, error)
	ListByUser(ctx context.Context, userID string) ([]domain.StoredAttempt, error)
	Get(ctx context.Context, userID, attemptID string) (domain.StoredAttempt, error)
}

// ScoreService validates and stores attempts and serves history and reports.
type ScoreService struct {
	repo     ScoreRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewScoreService(repo ScoreRepository) *ScoreService {
	return NewScoreServiceWithClock(repo, time.Now)
}

// NewScoreServiceWithClock allows deterministic creation timestamps in tests.
func NewScoreServiceWithClock(repo ScoreRepository, now func() time.Time) *ScoreService {
	return &ScoreService{repo: repo, validate: validator.New(), now: now}
}

// Save stores attempt for user and returns its identifier.
func (s *ScoreService) Save(ctx context.Context, user domain.User, attempt domain.Attempt) (string, error) {
	if user.ID == "" {
		return "", fmt.Errorf("%w: user is required", domain.ErrValidation)
	}
	attempt.Topic = strings.TrimSpace(attempt.Topic)
	difficulty, err := domain.ParseDifficulty(string(attempt.Difficulty))
	if err != nil {
		return "", err
	}
	attempt.Difficulty = difficulty

	if err := s.validate.Struct(attempt); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if len(attempt.Report) != attempt.Total {
		return "", fmt.Errorf("%w: report has %d entries, total is %d", domain.ErrValidation, len(attempt.Report), attempt.Total)
	}

	return s.repo.Insert(ctx, domain.StoredAttempt{
		UserID:    user.ID,
		Username:  user.Username,
		Attempt:   attempt,
		CreatedAt: s.now(),
	})
}

// Record implements AttemptRecorder for attempt sessions.
func (s *ScoreService) Record(ctx context.Context, user domain.User, attempt domain.Attempt) (string, error) {
	return s.Save(ctx, user, attempt)
}

// ListByUser returns the user's attempts newest first, without per-question detail.
func (s *ScoreService) ListByUser(ctx context.Context, userID string) ([]domain.ScoreSummary, error) {
	stored, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScoreSummary, 0, len(stored))
	for _, a := range stored {
		out = append(out, a.Summary())
	}
	return out, nil
}

// GetReport returns the per-question report of one of the user's attempts.
func (s *ScoreService) GetReport(ctx context.Context, userID, attemptID string) ([]domain.ReportEntry, error) {
	stored, err := s.Get(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if stored.Attempt.Report == nil {
		return []domain.ReportEntry{}, nil
	}
	return stored.Attempt.Report, nil
}

// Get returns the full stored attempt when it belongs to userID.
func (s *ScoreService) Get(ctx context.Context, userID, attemptID string) (domain.StoredAttempt, error) {
	if strings.TrimSpace(attemptID) == "" {
		return domain.StoredAttempt{}, fmt.Errorf("%w: attempt id is required", domain.ErrValidation)
	}
	return s.repo.Get(ctx, userID, attemptID)
}
