package domain

import (
	"fmt"
	"time"
)

// OptionsPerQuestion is the fixed number of choices a generated question carries.
const OptionsPerQuestion = 4

// QuizQuestion is a single generated multiple-choice question.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// HasOption reports whether option is one of the question's choices.
func (q QuizQuestion) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// AnswerMap maps a 0-based question index to the chosen option. A missing key means skipped.
type AnswerMap map[int]string

// ReportEntry is the per-question detail stored with an attempt.
type ReportEntry struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	ChosenAnswer  *string  `json:"chosenAnswer"`
}

// Status returns "correct", "wrong" or "skipped". Wrong and skipped score the same.
func (e ReportEntry) Status() string {
	switch {
	case e.ChosenAnswer == nil:
		return "skipped"
	case *e.ChosenAnswer == e.CorrectAnswer:
		return "correct"
	default:
		return "wrong"
	}
}

// Attempt is one graded quiz submission.
type Attempt struct {
	Topic      string        `json:"topic" validate:"required"`
	Difficulty Difficulty    `json:"difficulty" validate:"required"`
	Score      int           `json:"score" validate:"gte=0,ltefield=Total"`
	Total      int           `json:"total" validate:"gte=1"`
	Report     []ReportEntry `json:"report" validate:"required,dive"`
}

// StoredAttempt is an attempt as persisted for a user.
type StoredAttempt struct {
	ID        string
	UserID    string
	Username  string
	Attempt   Attempt
	CreatedAt time.Time
}

// Summary strips the per-question report for listings.
func (a StoredAttempt) Summary() ScoreSummary {
	return ScoreSummary{
		ID:         a.ID,
		Topic:      a.Attempt.Topic,
		Difficulty: a.Attempt.Difficulty,
		Score:      a.Attempt.Score,
		Total:      a.Attempt.Total,
		Percentage: Percentage(a.Attempt.Score, a.Attempt.Total),
		CreatedAt:  a.CreatedAt,
	}
}

// ScoreSummary is the lightweight listing view of an attempt.
type ScoreSummary struct {
	ID         string     `json:"_id"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	Score      int        `json:"score"`
	Total      int        `json:"total"`
	Percentage string     `json:"percentage"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Percentage formats score/total*100 with two decimals.
func Percentage(score, total int) string {
	if total <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(score)/float64(total)*100)
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns the user without credential material.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
