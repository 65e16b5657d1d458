package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ProgressStore persists attempt records in Postgres.
// RecordAttempt is a single upsert statement, so the read-modify-write that
// guards the monotonic best score happens atomically inside the database.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) RecordAttempt(ctx context.Context, userID, quizID string, score float64, at time.Time) (domain.AttemptRecord, error) {
	record := domain.AttemptRecord{UserID: userID, QuizID: quizID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO quiz_progress (user_id, quiz_id, score, failed_attempts, attempted_at)
		 VALUES ($1, $2, $3, 0, $4)
		 ON CONFLICT (user_id, quiz_id) DO UPDATE SET
		     score = GREATEST(quiz_progress.score, EXCLUDED.score),
		     failed_attempts = quiz_progress.failed_attempts
		         + CASE WHEN EXCLUDED.score > quiz_progress.score THEN 0 ELSE 1 END,
		     attempted_at = EXCLUDED.attempted_at
		 RETURNING score, failed_attempts, create_reminder, reminder_time, attempted_at`,
		userID, quizID, score, at,
	).Scan(&record.Score, &record.FailedAttempts, &record.CreateReminder, &record.ReminderTime, &record.AttemptedAt)
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("record attempt: %w", err)
	}
	return record, nil
}

func (s *ProgressStore) Get(ctx context.Context, userID, quizID string) (domain.AttemptRecord, error) {
	record := domain.AttemptRecord{}
	err := s.pool.QueryRow(ctx, selectProgress+` WHERE p.user_id = $1 AND p.quiz_id = $2`, userID, quizID).
		Scan(progressFields(&record)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AttemptRecord{}, domain.ErrProgressNotFound
	}
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("get progress: %w", err)
	}
	return record, nil
}

func (s *ProgressStore) ListByUser(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	rows, err := s.pool.Query(ctx,
		selectProgress+` WHERE p.user_id = $1 ORDER BY p.attempted_at DESC, p.quiz_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AttemptRecord, 0)
	for rows.Next() {
		record := domain.AttemptRecord{}
		if err := rows.Scan(progressFields(&record)...); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *ProgressStore) SetReminder(ctx context.Context, userID, quizID string, at time.Time) (domain.AttemptRecord, error) {
	record := domain.AttemptRecord{UserID: userID, QuizID: quizID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO quiz_progress (user_id, quiz_id, create_reminder, reminder_time)
		 VALUES ($1, $2, TRUE, $3)
		 ON CONFLICT (user_id, quiz_id) DO UPDATE SET
		     create_reminder = TRUE,
		     reminder_time = EXCLUDED.reminder_time
		 RETURNING score, failed_attempts, create_reminder, reminder_time, attempted_at`,
		userID, quizID, at,
	).Scan(&record.Score, &record.FailedAttempts, &record.CreateReminder, &record.ReminderTime, &record.AttemptedAt)
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("set reminder: %w", err)
	}
	return record, nil
}

// selectProgress joins the quiz so listings carry title/field/timeLimit;
// a LEFT JOIN keeps records whose quiz has since been deleted.
const selectProgress = `
	SELECT p.user_id, p.quiz_id, p.score, p.failed_attempts, p.create_reminder,
	       p.reminder_time, p.attempted_at,
	       COALESCE(q.title, ''), COALESCE(q.field, ''), COALESCE(q.time_limit, 0)
	FROM quiz_progress p
	LEFT JOIN quizzes q ON q.id = p.quiz_id`

func progressFields(r *domain.AttemptRecord) []interface{} {
	return []interface{}{
		&r.UserID, &r.QuizID, &r.Score, &r.FailedAttempts, &r.CreateReminder,
		&r.ReminderTime, &r.AttemptedAt,
		&r.QuizTitle, &r.QuizField, &r.QuizTimeLimit,
	}
}
