package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-quiz-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressRepository.
// All mutation happens under one mutex, which serializes concurrent
// submissions per (user, quiz) and keeps the best score monotonic.
type ProgressStore struct {
	quizzes QuizLoader // populates denormalized quiz fields on reads; may be nil

	mu      sync.Mutex
	records map[string]*domain.AttemptRecord
}

func NewProgressStore(quizzes QuizLoader) *ProgressStore {
	return &ProgressStore{
		quizzes: quizzes,
		records: make(map[string]*domain.AttemptRecord),
	}
}

func progressKey(userID, quizID string) string {
	return userID + "|" + quizID
}

// RecordAttempt applies the best-score-wins rule: a strictly greater score
// replaces the stored one, anything else increments failedAttempts. The
// first-ever record starts at the submitted score with zero failures.
func (s *ProgressStore) RecordAttempt(ctx context.Context, userID, quizID string, score float64, at time.Time) (domain.AttemptRecord, error) {
	s.mu.Lock()
	key := progressKey(userID, quizID)
	record, ok := s.records[key]
	if !ok {
		record = &domain.AttemptRecord{
			UserID: userID,
			QuizID: quizID,
			Score:  score,
		}
		s.records[key] = record
	} else if score > record.Score {
		record.Score = score
	} else {
		record.FailedAttempts++
	}
	record.AttemptedAt = at
	snapshot := *record
	s.mu.Unlock()

	return s.withQuizFields(ctx, snapshot), nil
}

func (s *ProgressStore) Get(ctx context.Context, userID, quizID string) (domain.AttemptRecord, error) {
	s.mu.Lock()
	record, ok := s.records[progressKey(userID, quizID)]
	if !ok {
		s.mu.Unlock()
		return domain.AttemptRecord{}, domain.ErrProgressNotFound
	}
	snapshot := *record
	s.mu.Unlock()
	return s.withQuizFields(ctx, snapshot), nil
}

func (s *ProgressStore) ListByUser(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	s.mu.Lock()
	records := make([]domain.AttemptRecord, 0)
	for _, record := range s.records {
		if record.UserID == userID {
			records = append(records, *record)
		}
	}
	s.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].AttemptedAt.Equal(records[j].AttemptedAt) {
			return records[i].AttemptedAt.After(records[j].AttemptedAt)
		}
		return records[i].QuizID < records[j].QuizID
	})
	for i := range records {
		records[i] = s.withQuizFields(ctx, records[i])
	}
	return records, nil
}

func (s *ProgressStore) SetReminder(ctx context.Context, userID, quizID string, at time.Time) (domain.AttemptRecord, error) {
	s.mu.Lock()
	key := progressKey(userID, quizID)
	record, ok := s.records[key]
	if !ok {
		record = &domain.AttemptRecord{UserID: userID, QuizID: quizID}
		s.records[key] = record
	}
	record.CreateReminder = true
	reminderAt := at
	record.ReminderTime = &reminderAt
	snapshot := *record
	s.mu.Unlock()
	return s.withQuizFields(ctx, snapshot), nil
}

func (s *ProgressStore) withQuizFields(ctx context.Context, record domain.AttemptRecord) domain.AttemptRecord {
	if s.quizzes == nil {
		return record
	}
	quiz, err := s.quizzes.LoadQuiz(ctx, record.QuizID)
	if err != nil {
		// Deleted quizzes orphan their records; listings tolerate that.
		return record
	}
	record.QuizTitle = quiz.Title
	record.QuizField = quiz.Field
	record.QuizTimeLimit = quiz.TimeLimit
	return record
}
