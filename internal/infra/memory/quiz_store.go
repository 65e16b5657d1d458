package memory

import (
	"context"
	"sort"
	"sync"

	"ai-quiz-service/internal/domain"
)

// QuizStore is an in-memory quiz catalog (tests, demo mode without Postgres).
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	titles  map[string]string
}

func NewQuizStore() *QuizStore {
	return &QuizStore{
		quizzes: make(map[string]domain.Quiz),
		titles:  make(map[string]string),
	}
}

// NewQuizStoreWith seeds the catalog, keyed by quiz ID.
func NewQuizStoreWith(quizzes map[string]domain.Quiz) *QuizStore {
	store := NewQuizStore()
	for id, quiz := range quizzes {
		quiz.ID = id
		store.quizzes[id] = quiz
		store.titles[quiz.Title] = id
	}
	return store
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.titles[quiz.Title]; exists {
		return domain.ErrDuplicateTitle
	}
	s.quizzes[quiz.ID] = quiz
	s.titles[quiz.Title] = quiz.ID
	return nil
}

func (s *QuizStore) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
		}
		return quizzes[i].Title < quizzes[j].Title
	})
	return quizzes, nil
}

// LoadQuiz satisfies the loader interface the caches wrap.
func (s *QuizStore) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if quiz, ok := s.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}
