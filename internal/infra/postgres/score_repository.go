package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ai-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreRepository stores graded attempts in Postgres with the report as JSONB.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

func (r *ScoreRepository) Insert(ctx context.Context, attempt domain.StoredAttempt) (string, error) {
	report, err := json.Marshal(attempt.Attempt.Report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	id := uuid.NewString()
	_, err = r.pool.Exec(ctx,
		`INSERT INTO scores (id, user_id, username, topic, difficulty, score, total, report, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, attempt.UserID, attempt.Username, attempt.Attempt.Topic, string(attempt.Attempt.Difficulty),
		attempt.Attempt.Score, attempt.Attempt.Total, report, attempt.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert score: %w", err)
	}
	return id, nil
}

func (r *ScoreRepository) ListByUser(ctx context.Context, userID string) ([]domain.StoredAttempt, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []domain.StoredAttempt{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, username, topic, difficulty, score, total, created_at
		 FROM scores WHERE user_id=$1 ORDER BY created_at DESC, seq DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	out := make([]domain.StoredAttempt, 0)
	for rows.Next() {
		var (
			a          domain.StoredAttempt
			difficulty string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.Attempt.Topic, &difficulty,
			&a.Attempt.Score, &a.Attempt.Total, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		a.Attempt.Difficulty = domain.Difficulty(difficulty)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ScoreRepository) Get(ctx context.Context, userID, attemptID string) (domain.StoredAttempt, error) {
	if _, err := uuid.Parse(attemptID); err != nil {
		return domain.StoredAttempt{}, domain.ErrNotFound
	}
	if _, err := uuid.Parse(userID); err != nil {
		return domain.StoredAttempt{}, domain.ErrNotFound
	}

	var (
		a          domain.StoredAttempt
		difficulty string
		report     []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, username, topic, difficulty, score, total, report, created_at
		 FROM scores WHERE id=$1 AND user_id=$2`, attemptID, userID).
		Scan(&a.ID, &a.UserID, &a.Username, &a.Attempt.Topic, &difficulty,
			&a.Attempt.Score, &a.Attempt.Total, &report, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StoredAttempt{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.StoredAttempt{}, fmt.Errorf("load score: %w", err)
	}
	a.Attempt.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal(report, &a.Attempt.Report); err != nil {
		return domain.StoredAttempt{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return a, nil
}
