package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-quiz-service/internal/domain"
)

// Generator produces the questions for a new attempt.
type Generator interface {
	Generate(ctx context.Context, topic string, difficulty domain.Difficulty, count int) ([]domain.QuizQuestion, error)
}

// AttemptRecorder persists a graded attempt and returns its identifier.
type AttemptRecorder interface {
	Record(ctx context.Context, user domain.User, attempt domain.Attempt) (string, error)
}

// SessionState is the lifecycle position of an attempt session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateLoading
	StateActive
	StateSubmitted
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

// TickerFunc returns a channel receiving one value per interval and a function that stops it.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// StartRequest describes the quiz a session should load. TimeLimit is in seconds; zero
// disables the countdown.
type StartRequest struct {
	Topic      string
	Difficulty domain.Difficulty
	Count      int
	TimeLimit  int
}

// SubmitResult is the graded outcome of a session.
type SubmitResult struct {
	AttemptID  string               `json:"scoreId"`
	Score      int                  `json:"score"`
	Total      int                  `json:"total"`
	Percentage string               `json:"percentage"`
	Report     []domain.ReportEntry `json:"report"`
	Auto       bool                 `json:"auto"`
}

// EventType names a session notification.
type EventType string

const (
	EventTick      EventType = "tick"
	EventSubmitted EventType = "submitted"
	EventError     EventType = "error"
)

// Event is pushed to the session's observer. Remaining is set for ticks, Result for
// submissions and Err for failures.
type Event struct {
	Type      EventType
	Remaining int
	Result    *SubmitResult
	Err       error
}

// SessionSnapshot is a read-only view of a session.
type SessionSnapshot struct {
	ID         string            `json:"id"`
	State      string            `json:"state"`
	Topic      string            `json:"topic,omitempty"`
	Difficulty domain.Difficulty `json:"difficulty,omitempty"`
	TimeLimit  int               `json:"timeLimit"`
	Remaining  int               `json:"remaining"`
	Answered   int               `json:"answered"`
	Total      int               `json:"total"`
	Result     *SubmitResult     `json:"result,omitempty"`
}

// SessionOption customises a session at construction.
type SessionOption func(*AttemptSession)

// WithTicker replaces the one-second ticker, used by tests to drive the countdown.
func WithTicker(fn TickerFunc) SessionOption {
	return func(s *AttemptSession) { s.newTicker = fn }
}

// WithSubmitTimeout bounds the persistence call made by an auto-submit.
func WithSubmitTimeout(d time.Duration) SessionOption {
	return func(s *AttemptSession) { s.submitTimeout = d }
}

// AttemptSession coordinates one quiz attempt: loading questions, capturing answers, an optional
// countdown and a single graded submission.
type AttemptSession struct {
	id            string
	user          domain.User
	generator     Generator
	recorder      AttemptRecorder
	newTicker     TickerFunc
	submitTimeout time.Duration
	onEvent       func(Event)

	mu            sync.Mutex
	state         SessionState
	req           StartRequest
	questions     []domain.QuizQuestion
	answers       domain.AnswerMap
	remaining     int
	stopCountdown context.CancelFunc
	submitted     bool
	closed        bool
	result        *SubmitResult
}

// NewAttemptSession returns an Idle session owned by user. onEvent may be nil.
func NewAttemptSession(id string, user domain.User, generator Generator, recorder AttemptRecorder, onEvent func(Event), opts ...SessionOption) *AttemptSession {
	s := &AttemptSession{
		id:            id,
		user:          user,
		generator:     generator,
		recorder:      recorder,
		newTicker:     realTicker,
		submitTimeout: 10 * time.Second,
		onEvent:       onEvent,
		state:         StateIdle,
		answers:       domain.AnswerMap{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AttemptSession) ID() string { return s.id }

// UserID returns the owner of the session.
func (s *AttemptSession) UserID() string { return s.user.ID }

// State returns the current lifecycle state.
func (s *AttemptSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start loads a quiz. It is only allowed from Idle; a failed or empty load returns to Idle.
func (s *AttemptSession) Start(ctx context.Context, req StartRequest) ([]domain.QuizQuestion, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.TimeLimit < 0 {
		return nil, fmt.Errorf("%w: timeLimit must not be negative", domain.ErrValidation)
	}

	s.mu.Lock()
	if s.closed || s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: start in %s", domain.ErrSessionState, state)
	}
	s.state = StateLoading
	s.req = req
	s.answers = domain.AnswerMap{}
	s.result = nil
	s.mu.Unlock()

	questions, err := s.generator.Generate(ctx, req.Topic, req.Difficulty, req.Count)
	if err == nil && len(questions) == 0 {
		err = domain.ErrEmptyQuiz
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateIdle
		return nil, err
	}
	if s.closed {
		s.state = StateIdle
		return nil, fmt.Errorf("%w: session closed while loading", domain.ErrSessionState)
	}
	s.questions = questions
	s.remaining = req.TimeLimit
	s.state = StateActive
	if req.TimeLimit > 0 {
		s.startCountdownLocked()
	}
	return append([]domain.QuizQuestion(nil), questions...), nil
}

// SelectAnswer records option for the question at index, replacing any earlier choice.
func (s *AttemptSession) SelectAnswer(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return fmt.Errorf("%w: answer in %s", domain.ErrSessionState, s.state)
	}
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: question index %d out of range", domain.ErrInvalidAnswer, index)
	}
	if !s.questions[index].HasOption(option) {
		return fmt.Errorf("%w: %q is not an option of question %d", domain.ErrInvalidAnswer, option, index)
	}
	s.answers[index] = option
	return nil
}

// Submit grades and stores the attempt. Only the first submission, manual or timed, is stored.
func (s *AttemptSession) Submit(ctx context.Context) (SubmitResult, error) {
	return s.submit(ctx, false)
}

// Close stops the countdown. A session that was never submitted is abandoned.
func (s *AttemptSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.stopCountdown != nil {
		s.stopCountdown()
		s.stopCountdown = nil
	}
}

// Snapshot returns the current view of the session.
func (s *AttemptSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SessionSnapshot{
		ID:         s.id,
		State:      s.state.String(),
		Topic:      s.req.Topic,
		Difficulty: s.req.Difficulty,
		TimeLimit:  s.req.TimeLimit,
		Remaining:  s.remaining,
		Answered:   len(s.answers),
		Total:      len(s.questions),
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

func (s *AttemptSession) submit(ctx context.Context, auto bool) (SubmitResult, error) {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return SubmitResult{}, domain.ErrAlreadySubmitted
	}
	if s.closed || s.state != StateActive {
		state := s.state
		s.mu.Unlock()
		return SubmitResult{}, fmt.Errorf("%w: submit in %s", domain.ErrSessionState, state)
	}
	s.submitted = true
	s.state = StateSubmitted
	if s.stopCountdown != nil {
		s.stopCountdown()
		s.stopCountdown = nil
	}
	score, report := domain.Grade(s.questions, s.answers)
	attempt := domain.Attempt{
		Topic:      s.req.Topic,
		Difficulty: s.req.Difficulty,
		Score:      score,
		Total:      len(s.questions),
		Report:     report,
	}
	s.mu.Unlock()

	id, err := s.recorder.Record(ctx, s.user, attempt)
	result := SubmitResult{
		AttemptID:  id,
		Score:      attempt.Score,
		Total:      attempt.Total,
		Percentage: domain.Percentage(attempt.Score, attempt.Total),
		Report:     attempt.Report,
		Auto:       auto,
	}

	s.mu.Lock()
	s.result = &result
	s.mu.Unlock()

	if err != nil {
		s.emit(Event{Type: EventError, Err: err})
		return result, err
	}
	s.emit(Event{Type: EventSubmitted, Result: &result})
	return result, nil
}

func (s *AttemptSession) startCountdownLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopCountdown = cancel
	ticks, stop := s.newTicker(time.Second)

	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				remaining, ok := s.tick()
				if !ok {
					return
				}
				s.emit(Event{Type: EventTick, Remaining: remaining})
				if remaining <= 0 {
					s.autoSubmit()
					return
				}
			}
		}
	}()
}

// tick decrements the countdown; ok is false once the session has left Active.
func (s *AttemptSession) tick() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.submitted || s.state != StateActive {
		return 0, false
	}
	s.remaining--
	return s.remaining, true
}

func (s *AttemptSession) autoSubmit() {
	ctx, cancel := context.WithTimeout(context.Background(), s.submitTimeout)
	defer cancel()
	// A manual submit may have won the race; the latch already made that the only one.
	_, _ = s.submit(ctx, true)
}

func (s *AttemptSession) emit(ev Event) {
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}
