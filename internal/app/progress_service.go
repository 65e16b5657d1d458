package app

import (
	"context"
	"time"

	"ai-quiz-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store). Quizzes are
// returned with their answer keys; callers strip before serving attempt-takers.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ProgressRepository abstracts how attempt records are stored.
// RecordAttempt must be atomic per (user, quiz): the stored score never
// regresses even under concurrent submissions.
type ProgressRepository interface {
	RecordAttempt(ctx context.Context, userID, quizID string, score float64, at time.Time) (domain.AttemptRecord, error)
	Get(ctx context.Context, userID, quizID string) (domain.AttemptRecord, error)
	ListByUser(ctx context.Context, userID string) ([]domain.AttemptRecord, error)
	SetReminder(ctx context.Context, userID, quizID string, at time.Time) (domain.AttemptRecord, error)
}

// ProgressService contains the attempt submission and history use cases.
type ProgressService struct {
	quizzes  QuizRepository
	progress ProgressRepository
	now      func() time.Time
}

func NewProgressService(quizzes QuizRepository, progress ProgressRepository) *ProgressService {
	return &ProgressService{
		quizzes:  quizzes,
		progress: progress,
		now:      time.Now,
	}
}

// NewProgressServiceWithClock is test-only for deterministic timestamps.
func NewProgressServiceWithClock(quizzes QuizRepository, progress ProgressRepository, now func() time.Time) *ProgressService {
	s := NewProgressService(quizzes, progress)
	s.now = now
	return s
}

// SubmitAttempt scores a finished attempt against the authoritative answer
// key and applies the best-score-wins update to the attempt record.
// The returned result is the score of this attempt, which may be lower than
// the stored best; the returned record reflects the stored state.
func (s *ProgressService) SubmitAttempt(ctx context.Context, userID, quizID string, answers []string) (domain.AttemptResult, domain.AttemptRecord, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptResult{}, domain.AttemptRecord{}, err
	}

	result, err := Score(quiz.AnswerKey(), answers)
	if err != nil {
		return domain.AttemptResult{}, domain.AttemptRecord{}, err
	}

	record, err := s.progress.RecordAttempt(ctx, userID, quizID, result.Score, s.now())
	if err != nil {
		return domain.AttemptResult{}, domain.AttemptRecord{}, err
	}
	return result, record, nil
}

// Progress lists the caller's attempt records, most recent first.
func (s *ProgressService) Progress(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	return s.progress.ListByUser(ctx, userID)
}

// QuizProgress returns the caller's record for one quiz.
func (s *ProgressService) QuizProgress(ctx context.Context, userID, quizID string) (domain.AttemptRecord, error) {
	return s.progress.Get(ctx, userID, quizID)
}

// Stats aggregates the caller's attempt history: total records, records with
// a positive score, average and highest scores, and the 5 most recent attempts.
func (s *ProgressService) Stats(ctx context.Context, userID string) (domain.ProgressStats, error) {
	records, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return domain.ProgressStats{}, err
	}

	stats := domain.ProgressStats{
		TotalQuizzes:   len(records),
		RecentAttempts: []domain.AttemptRecord{},
	}
	sum := 0.0
	for _, record := range records {
		if record.Score > 0 {
			stats.CompletedQuizzes++
		}
		sum += record.Score
		if record.Score > stats.HighestScore {
			stats.HighestScore = record.Score
		}
	}
	if len(records) > 0 {
		stats.AverageScore = sum / float64(len(records))
	}

	recent := records
	if len(recent) > 5 {
		recent = recent[:5]
	}
	stats.RecentAttempts = append(stats.RecentAttempts, recent...)
	return stats, nil
}

// SetReminder flags the caller's record for a quiz with a reminder time,
// creating the record if the quiz has not been attempted yet.
func (s *ProgressService) SetReminder(ctx context.Context, userID, quizID string, at time.Time) (domain.AttemptRecord, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.AttemptRecord{}, err
	}
	return s.progress.SetReminder(ctx, userID, quizID, at)
}
