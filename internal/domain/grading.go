package domain

// Grade scores answers against questions. A point is awarded iff the chosen option equals the
// question's answer; skipped entries carry a nil ChosenAnswer.
func Grade(questions []QuizQuestion, answers AnswerMap) (int, []ReportEntry) {
	score := 0
	report := make([]ReportEntry, 0, len(questions))
	for i, q := range questions {
		entry := ReportEntry{
			Question:      q.Question,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: q.Answer,
		}
		if chosen, ok := answers[i]; ok {
			c := chosen
			entry.ChosenAnswer = &c
			if chosen == q.Answer {
				score++
			}
		}
		report = append(report, entry)
	}
	return score, report
}
