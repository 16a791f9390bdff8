package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-quiz-service/internal/domain"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

type scoreRecord struct {
	Seq        uint      `gorm:"primaryKey;autoIncrement"`
	ID         string    `gorm:"uniqueIndex;size:36;not null"`
	UserID     string    `gorm:"index:idx_scores_user_created,priority:1;not null"`
	Username   string    `gorm:"not null"`
	Topic      string    `gorm:"not null"`
	Difficulty string    `gorm:"size:16;not null"`
	Score      int       `gorm:"not null"`
	Total      int       `gorm:"not null"`
	Report     string    `gorm:"not null"` // JSON array of report entries
	CreatedAt  time.Time `gorm:"index:idx_scores_user_created,priority:2"`
}

func (scoreRecord) TableName() string { return "scores" }

// Store is an embedded SQLite backend for users and scores, meant for single-node setups.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userRecord{}, &scoreRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Users returns the store as an app.UserRepository.
func (s *Store) Users() *UserRepository { return &UserRepository{db: s.db} }

// Scores returns the store as an app.ScoreRepository.
func (s *Store) Scores() *ScoreRepository { return &ScoreRepository{db: s.db} }

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	rec := userRecord{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userRecord{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateUser
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.User{}, domain.ErrDuplicateUser
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	user.CreatedAt = rec.CreatedAt
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) first(ctx context.Context, query string, arg string) (domain.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return domain.User{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

type ScoreRepository struct {
	db *gorm.DB
}

func (r *ScoreRepository) Insert(ctx context.Context, attempt domain.StoredAttempt) (string, error) {
	report, err := json.Marshal(attempt.Attempt.Report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	rec := scoreRecord{
		ID:         uuid.NewString(),
		UserID:     attempt.UserID,
		Username:   attempt.Username,
		Topic:      attempt.Attempt.Topic,
		Difficulty: string(attempt.Attempt.Difficulty),
		Score:      attempt.Attempt.Score,
		Total:      attempt.Attempt.Total,
		Report:     string(report),
		CreatedAt:  attempt.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("insert score: %w", err)
	}
	return rec.ID, nil
}

func (r *ScoreRepository) ListByUser(ctx context.Context, userID string) ([]domain.StoredAttempt, error) {
	var recs []scoreRecord
	err := r.db.WithContext(ctx).
		Select("seq", "id", "user_id", "username", "topic", "difficulty", "score", "total", "created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC, seq DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	out := make([]domain.StoredAttempt, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toDomain(nil))
	}
	return out, nil
}

func (r *ScoreRepository) Get(ctx context.Context, userID, attemptID string) (domain.StoredAttempt, error) {
	var rec scoreRecord
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", attemptID, userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.StoredAttempt{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.StoredAttempt{}, fmt.Errorf("load score: %w", err)
	}
	var report []domain.ReportEntry
	if err := json.Unmarshal([]byte(rec.Report), &report); err != nil {
		return domain.StoredAttempt{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return rec.toDomain(report), nil
}

func (rec scoreRecord) toDomain(report []domain.ReportEntry) domain.StoredAttempt {
	return domain.StoredAttempt{
		ID:       rec.ID,
		UserID:   rec.UserID,
		Username: rec.Username,
		Attempt: domain.Attempt{
			Topic:      rec.Topic,
			Difficulty: domain.Difficulty(rec.Difficulty),
			Score:      rec.Score,
			Total:      rec.Total,
			Report:     report,
		},
		CreatedAt: rec.CreatedAt,
	}
}
