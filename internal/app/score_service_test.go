package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	"ai-quiz-service/internal/infra/memory"
)

func strPtr(s string) *string { return &s }

func reportOf(total, correct int) []domain.ReportEntry {
	out := make([]domain.ReportEntry, 0, total)
	for i := 0; i < total; i++ {
		entry := domain.ReportEntry{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}
		if i < correct {
			entry.ChosenAnswer = strPtr("a")
		}
		out = append(out, entry)
	}
	return out
}

func TestScoreServiceSaveAndList(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := app.NewScoreServiceWithClock(memory.NewScoreRepository(), func() time.Time { return now })
	user := domain.User{ID: "u1", Username: "alice"}

	first, err := svc.Save(ctx, user, domain.Attempt{Topic: "math", Difficulty: "easy", Score: 7, Total: 10, Report: reportOf(10, 7)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	now = now.Add(time.Minute)
	second, err := svc.Save(ctx, user, domain.Attempt{Topic: "go", Difficulty: "Medium", Score: 0, Total: 1, Report: reportOf(1, 0)})
	if err != nil {
		t.Fatalf("save 2: %v", err)
	}

	list, err := svc.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second || list[1].ID != first {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[1].Percentage != "70.00" || list[1].Difficulty != domain.DifficultyEasy {
		t.Fatalf("unexpected summary %+v", list[1])
	}
	if list[0].Difficulty != domain.DifficultyIntermediate {
		t.Fatalf("expected Medium stored as Intermediate, got %s", list[0].Difficulty)
	}

	report, err := svc.GetReport(ctx, "u1", first)
	if err != nil || len(report) != 10 {
		t.Fatalf("report = (%d entries, %v)", len(report), err)
	}
	if _, err := svc.GetReport(ctx, "u2", first); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	if _, err := svc.GetReport(ctx, "u1", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}

	empty, err := svc.ListByUser(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got (%v, %v)", empty, err)
	}
}

func TestScoreServiceRejectsInvalidAttempts(t *testing.T) {
	svc := app.NewScoreService(memory.NewScoreRepository())
	user := domain.User{ID: "u1", Username: "alice"}
	cases := map[string]domain.Attempt{
		"missing topic":   {Difficulty: "Easy", Score: 1, Total: 1, Report: reportOf(1, 1)},
		"bad difficulty":  {Topic: "t", Difficulty: "Expert", Score: 1, Total: 1, Report: reportOf(1, 1)},
		"score over":      {Topic: "t", Difficulty: "Easy", Score: 2, Total: 1, Report: reportOf(1, 1)},
		"zero total":      {Topic: "t", Difficulty: "Easy", Score: 0, Total: 0, Report: reportOf(0, 0)},
		"report mismatch": {Topic: "t", Difficulty: "Easy", Score: 1, Total: 2, Report: reportOf(1, 1)},
		"no report":       {Topic: "t", Difficulty: "Easy", Score: 1, Total: 1},
	}
	for name, attempt := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Save(context.Background(), user, attempt); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

type recordingMailer struct {
	to, subject, body string
	calls             int
	err               error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.calls++
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func TestReportNotifierSendsOwnReport(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	user, err := users.Create(ctx, domain.User{Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	taken := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	scores := app.NewScoreServiceWithClock(memory.NewScoreRepository(), func() time.Time { return taken })
	id, err := scores.Save(ctx, user, domain.Attempt{Topic: "math", Difficulty: "Easy", Score: 1, Total: 2, Report: reportOf(2, 1)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	mailer := &recordingMailer{}
	notifier := app.NewReportNotifier(scores, users, mailer, loc)

	if err := notifier.Send(ctx, user.ID, id); err != nil {
		t.Fatalf("send: %v", err)
	}
	if mailer.calls != 1 || mailer.to != "alice@example.com" || mailer.subject != app.ReportSubject {
		t.Fatalf("unexpected mail %+v", mailer)
	}
	for _, want := range []string{"Not Answered", "50.00", "Saturday, March 1, 2025, 03:00:00 PM", "color: green", "color: red"} {
		if !strings.Contains(mailer.body, want) {
			t.Fatalf("body missing %q:\n%s", want, mailer.body)
		}
	}

	if err := notifier.Send(ctx, "someone-else", id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign attempt, got %v", err)
	}
	if mailer.calls != 1 {
		t.Fatalf("foreign request must not send mail")
	}
}

func TestReportNotifierWrapsDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	user, _ := users.Create(ctx, domain.User{Username: "bob", Email: "bob@example.com"})
	scores := app.NewScoreService(memory.NewScoreRepository())
	id, err := scores.Save(ctx, user, domain.Attempt{Topic: "math", Difficulty: "Hard", Score: 1, Total: 1, Report: reportOf(1, 1)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	notifier := app.NewReportNotifier(scores, users, &recordingMailer{err: errors.New("connection refused")}, nil)
	if err := notifier.Send(ctx, user.ID, id); !errors.Is(err, domain.ErrDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
}
