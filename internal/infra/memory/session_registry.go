package memory

import (
	"sync"

	"ai-quiz-service/internal/domain"
)

// SessionRegistry tracks live attempt sessions so a user cannot hold two
// concurrent attempts against the same quiz.
type SessionRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{active: make(map[string]struct{})}
}

// Acquire claims the (user, quiz) slot. Callers must Release when the
// session ends.
func (r *SessionRegistry) Acquire(userID, quizID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID + "|" + quizID
	if _, ok := r.active[key]; ok {
		return domain.ErrAttemptInProgress
	}
	r.active[key] = struct{}{}
	return nil
}

func (r *SessionRegistry) Release(userID, quizID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, userID+"|"+quizID)
}
