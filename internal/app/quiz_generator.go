package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-quiz-service/internal/domain"
)

// MaxQuestionCount bounds a single generation request.
const MaxQuestionCount = 50

// TextModel sends a prompt to a generative model and returns its raw text answer.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// QuizGenerator turns a topic/difficulty/count request into validated quiz questions.
type QuizGenerator struct {
	model TextModel
}

func NewQuizGenerator(model TextModel) *QuizGenerator {
	return &QuizGenerator{model: model}
}

// Generate returns exactly count questions or an error; partial results are never returned.
func (g *QuizGenerator) Generate(ctx context.Context, topic string, difficulty domain.Difficulty, count int) ([]domain.QuizQuestion, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", domain.ErrValidation)
	}
	if count <= 0 || count > MaxQuestionCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", domain.ErrValidation, MaxQuestionCount)
	}
	if _, err := domain.ParseDifficulty(string(difficulty)); err != nil {
		return nil, err
	}

	text, err := g.model.GenerateText(ctx, buildPrompt(topic, difficulty, count))
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	return parseQuiz(text, count)
}

func buildPrompt(topic string, difficulty domain.Difficulty, count int) string {
	return fmt.Sprintf(`Generate a %s level multiple-choice quiz on %s with %d questions.
The response should be a valid JSON array in the following format:
[
  {
    "question": "What is the capital of France?",
    "options": ["Berlin", "Madrid", "Paris", "Rome"],
    "answer": "Paris"
  }
]
Every item must have exactly %d options and the answer must be one of the options.
DO NOT include Markdown formatting (e.g. code fences).
ONLY return valid JSON, no explanations.`, difficulty, topic, count, domain.OptionsPerQuestion)
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "[{") {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

type rawQuestion struct {
	Question *string  `json:"question"`
	Options  []string `json:"options"`
	Answer   *string  `json:"answer"`
}

func parseQuiz(text string, count int) ([]domain.QuizQuestion, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &items); err != nil {
		var probe any
		if json.Unmarshal([]byte(stripCodeFence(text)), &probe) == nil {
			return nil, fmt.Errorf("%w: expected a JSON array", domain.ErrGenerationContract)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFormat, err)
	}
	if len(items) != count {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", domain.ErrGenerationContract, count, len(items))
	}

	questions := make([]domain.QuizQuestion, 0, count)
	for i, item := range items {
		var raw rawQuestion
		if err := json.Unmarshal(item, &raw); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", domain.ErrGenerationContract, i, err)
		}
		q, err := raw.validate()
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", domain.ErrGenerationContract, i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (r rawQuestion) validate() (domain.QuizQuestion, error) {
	if r.Question == nil || strings.TrimSpace(*r.Question) == "" {
		return domain.QuizQuestion{}, fmt.Errorf("missing question")
	}
	if len(r.Options) != domain.OptionsPerQuestion {
		return domain.QuizQuestion{}, fmt.Errorf("expected %d options, got %d", domain.OptionsPerQuestion, len(r.Options))
	}
	if r.Answer == nil {
		return domain.QuizQuestion{}, fmt.Errorf("missing answer")
	}
	q := domain.QuizQuestion{Question: *r.Question, Options: r.Options, Answer: *r.Answer}
	if !q.HasOption(q.Answer) {
		return domain.QuizQuestion{}, fmt.Errorf("answer %q is not one of the options", q.Answer)
	}
	return q, nil
}
