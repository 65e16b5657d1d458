package domain

import "time"

// Question models an MCQ question. CorrectAnswer must equal exactly one of
// Options; it is omitted from JSON when stripped for attempt-takers.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

// Quiz is an authored collection of questions with a time limit in minutes.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Field        string     `json:"field"`
	TimeLimit    int        `json:"timeLimit"`
	NumQuestions int        `json:"numQuestions"`
	Questions    []Question `json:"questions"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// AnswerKey returns the ordered list of correct answers, one per question.
// Server-internal; never sent to attempt-takers before submission.
func (q Quiz) AnswerKey() []string {
	key := make([]string, len(q.Questions))
	for i, question := range q.Questions {
		key[i] = question.CorrectAnswer
	}
	return key
}

// Stripped returns a copy of the quiz with correct answers removed, safe to
// serve to attempt-takers.
func (q Quiz) Stripped() Quiz {
	stripped := q
	stripped.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		stripped.Questions[i] = Question{
			Question: question.Question,
			Options:  append([]string(nil), question.Options...),
		}
	}
	return stripped
}

// AttemptResult is the outcome of scoring a single submission.
type AttemptResult struct {
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"totalQuestions"`
	CorrectAnswers int     `json:"correctAnswers"`
}

// AttemptRecord is the persisted best-score summary for a (user, quiz) pair.
// Score is monotonically non-decreasing across submissions; FailedAttempts
// counts submissions that did not improve it.
type AttemptRecord struct {
	UserID         string     `json:"userId"`
	QuizID         string     `json:"quizId"`
	Score          float64    `json:"score"`
	FailedAttempts int        `json:"failedAttempts"`
	CreateReminder bool       `json:"createReminder"`
	ReminderTime   *time.Time `json:"reminderTime,omitempty"`
	AttemptedAt    time.Time  `json:"attemptedAt"`

	// Denormalized quiz fields, populated on reads so listings can render
	// without a second lookup. Empty when the quiz has been deleted.
	QuizTitle     string `json:"quizTitle,omitempty"`
	QuizField     string `json:"quizField,omitempty"`
	QuizTimeLimit int    `json:"quizTimeLimit,omitempty"`
}

// ProgressStats aggregates a user's attempt history.
type ProgressStats struct {
	TotalQuizzes     int             `json:"totalQuizzes"`
	CompletedQuizzes int             `json:"completedQuizzes"`
	AverageScore     float64         `json:"averageScore"`
	HighestScore     float64         `json:"highestScore"`
	RecentAttempts   []AttemptRecord `json:"recentAttempts"`
}
