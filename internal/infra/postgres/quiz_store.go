package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ai-quiz-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizStore persists quizzes in Postgres; questions live as a JSONB column
// alongside the filterable scalar fields.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, title, field, time_limit, num_questions, questions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		quiz.ID, quiz.Title, quiz.Field, quiz.TimeLimit, quiz.NumQuestions, questions, quiz.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateTitle
		}
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// LoadQuiz returns the full quiz, answer key included. Callers strip before
// serving attempt-takers.
func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, field, time_limit, num_questions, questions, created_at
		 FROM quizzes WHERE id = $1`, quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.Field, &quiz.TimeLimit, &quiz.NumQuestions, &raw, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, field, time_limit, num_questions, questions, created_at
		 FROM quizzes ORDER BY created_at DESC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var (
			quiz domain.Quiz
			raw  []byte
		)
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.Field, &quiz.TimeLimit, &quiz.NumQuestions, &raw, &quiz.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}
