package domain

import "time"

// AnswerRecorder builds immutable Answer records for one session and tracks
// cumulative time spent for summary reporting. Empty answers are legal; a
// timeout is distinguished only by the timedOut flag supplied by the caller.
type AnswerRecorder struct {
	answered  int
	timeSpent time.Duration
}

// NewAnswerRecorder returns a recorder with zero totals.
func NewAnswerRecorder() *AnswerRecorder {
	return &AnswerRecorder{}
}

// Record constructs the Answer for one submission and updates the totals.
func (r *AnswerRecorder) Record(questionID, text string, timeSpent time.Duration, timedOut bool, submittedAt time.Time) Answer {
	r.answered++
	r.timeSpent += timeSpent
	return Answer{
		QuestionID:  questionID,
		Text:        text,
		TimeSpent:   timeSpent,
		TimedOut:    timedOut,
		SubmittedAt: submittedAt.UTC(),
	}
}

// AnsweredQuestions returns how many answers were recorded.
func (r *AnswerRecorder) AnsweredQuestions() int {
	return r.answered
}

// TotalTimeSpent returns the cumulative answering time across the session.
func (r *AnswerRecorder) TotalTimeSpent() time.Duration {
	return r.timeSpent
}
