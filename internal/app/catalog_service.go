package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// QuizCatalog abstracts quiz persistence for the authoring side.
type QuizCatalog interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// ErrValidation wraps a human-readable quiz validation failure.
var ErrValidation = errors.New("quiz validation failed")

// CatalogService covers the catalog reads the attempt flow needs plus
// just enough authoring to create valid quizzes.
type CatalogService struct {
	catalog QuizCatalog
	quizzes QuizRepository
	newID   func() string
	now     func() time.Time
}

func NewCatalogService(catalog QuizCatalog, quizzes QuizRepository) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		quizzes: quizzes,
		newID:   func() string { return uuid.NewString() },
		now:     time.Now,
	}
}

// CreateQuiz validates and persists a new quiz, assigning its ID.
func (s *CatalogService) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if err := ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	quiz.ID = s.newID()
	quiz.CreatedAt = s.now()
	if err := s.catalog.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// ListQuizzes returns all quizzes with answer keys stripped.
func (s *CatalogService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	stripped := make([]domain.Quiz, len(quizzes))
	for i, quiz := range quizzes {
		stripped[i] = quiz.Stripped()
	}
	return stripped, nil
}

// GetQuizForAttempt returns one quiz with its answer key stripped.
func (s *CatalogService) GetQuizForAttempt(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz.Stripped(), nil
}

// ValidateQuiz enforces the creation invariants: non-trivial title and field,
// positive time limit, numQuestions matching the questions slice, and for
// each question at least two non-empty options with the correct answer equal
// to exactly one of them.
func ValidateQuiz(quiz domain.Quiz) error {
	if len(strings.TrimSpace(quiz.Title)) < 3 {
		return validationError("title must be at least 3 characters long")
	}
	if len(strings.TrimSpace(quiz.Field)) < 3 {
		return validationError("field must be at least 3 characters long")
	}
	if quiz.TimeLimit < 1 {
		return validationError("time limit must be at least 1 minute")
	}
	if len(quiz.Questions) < 1 {
		return validationError("quiz must have at least one question")
	}
	if quiz.NumQuestions != len(quiz.Questions) {
		return validationError("number of questions doesn't match the provided questions array")
	}
	for i, question := range quiz.Questions {
		if strings.TrimSpace(question.Question) == "" {
			return validationError("question %d must not be empty", i+1)
		}
		if len(question.Options) < 2 {
			return validationError("question %d must have at least 2 options", i+1)
		}
		matches := 0
		for _, option := range question.Options {
			if option == "" {
				return validationError("question %d has an empty option", i+1)
			}
			if option == question.CorrectAnswer {
				matches++
			}
		}
		if question.CorrectAnswer == "" || matches != 1 {
			return validationError("question %d correct answer must match exactly one option", i+1)
		}
	}
	return nil
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
