package app

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"ai-quiz-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ReportSubject is the subject line of report e-mails.
const ReportSubject = "Your Quiz Report"

// Mailer delivers an HTML message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ReportNotifier renders a stored attempt as an HTML table and e-mails it to its owner.
type ReportNotifier struct {
	scores   *ScoreService
	users    UserRepository
	mailer   Mailer
	location *time.Location
}

func NewReportNotifier(scores *ScoreService, users UserRepository, mailer Mailer, location *time.Location) *ReportNotifier {
	if location == nil {
		location = time.UTC
	}
	return &ReportNotifier{scores: scores, users: users, mailer: mailer, location: location}
}

// Send looks up the attempt and the recipient, renders the report and dispatches it once.
func (n *ReportNotifier) Send(ctx context.Context, userID, attemptID string) error {
	var (
		attempt domain.StoredAttempt
		user    domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attempt, err = n.scores.Get(gctx, userID, attemptID)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = n.users.GetByID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	body, err := RenderReport(attempt, n.location)
	if err != nil {
		return err
	}
	if err := n.mailer.Send(ctx, user.Email, ReportSubject, body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return nil
}

type reportRow struct {
	Index   int
	Entry   domain.ReportEntry
	Chosen  string
	Correct bool
}

type reportView struct {
	Topic      string
	Difficulty domain.Difficulty
	Score      int
	Total      int
	Percentage string
	Taken      string
	Rows       []reportRow
}

var reportTemplate = template.Must(template.New("report").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.6;">
  <h2>Your Quiz Report</h2>
  <p><strong>Topic:</strong> {{.Topic}}</p>
  <p><strong>Difficulty:</strong> {{.Difficulty}}</p>
  <p><strong>Score:</strong> {{.Score}} / {{.Total}} ({{.Percentage}}%)</p>
  <p><strong>Date &amp; Time:</strong> {{.Taken}}</p>
  <h3>Questions &amp; Answers:</h3>
  <table border="1" cellpadding="8" cellspacing="0" style="border-collapse: collapse; width: 100%;">
    <thead>
      <tr><th>#</th><th>Question</th><th>Correct Answer</th><th>Your Answer</th></tr>
    </thead>
    <tbody>
{{- range .Rows}}
      <tr>
        <td>{{.Index}}</td>
        <td>{{.Entry.Question}}</td>
        <td>{{.Entry.CorrectAnswer}}</td>
        <td style="color: {{if .Correct}}green{{else}}red{{end}}">{{.Chosen}}</td>
      </tr>
{{- end}}
    </tbody>
  </table>
  <p>Thank you for using our quiz platform!</p>
</div>
`))

// RenderReport produces the HTML body for a stored attempt.
func RenderReport(attempt domain.StoredAttempt, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	view := reportView{
		Topic:      attempt.Attempt.Topic,
		Difficulty: attempt.Attempt.Difficulty,
		Score:      attempt.Attempt.Score,
		Total:      attempt.Attempt.Total,
		Percentage: domain.Percentage(attempt.Attempt.Score, attempt.Attempt.Total),
		Taken:      attempt.CreatedAt.In(loc).Format("Monday, January 2, 2006, 03:04:05 PM"),
	}
	for i, entry := range attempt.Attempt.Report {
		row := reportRow{Index: i + 1, Entry: entry, Chosen: "Not Answered"}
		if entry.ChosenAnswer != nil {
			row.Chosen = *entry.ChosenAnswer
			row.Correct = *entry.ChosenAnswer == entry.CorrectAnswer
		}
		view.Rows = append(view.Rows, row)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}
