package app

import (
	"context"
	"sync"
	"time"

	"ai-quiz-service/internal/domain"
)

// SessionState is the lifecycle position of one quiz attempt.
type SessionState int

const (
	StateIdle SessionState = iota
	StateLoading
	StateActive
	StateSubmitting
	StateCompleted
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

// Ticker abstracts the countdown's 1 Hz tick source so tests can drive
// simulated time. The session stops it on every exit from Active.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a fresh ticker each time the countdown (re)starts.
type TickerFactory func() Ticker

type wallTicker struct{ t *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

// NewSecondTicker is the production tick source.
func NewSecondTicker() Ticker {
	return wallTicker{t: time.NewTicker(time.Second)}
}

// Submitter ships a finished attempt to the scoring pipeline.
// *ProgressService satisfies it.
type Submitter interface {
	SubmitAttempt(ctx context.Context, userID, quizID string, answers []string) (domain.AttemptResult, domain.AttemptRecord, error)
}

// SessionEvent is pushed to the session's observer (e.g. a websocket writer).
type SessionEvent struct {
	Type      string                 `json:"type"` // quiz | tick | state | result | error
	State     string                 `json:"state,omitempty"`
	Remaining int                    `json:"remaining,omitempty"`
	Quiz      *domain.Quiz           `json:"quiz,omitempty"`
	Result    *domain.AttemptResult  `json:"result,omitempty"`
	Progress  *domain.AttemptRecord  `json:"progress,omitempty"`
	Message   string                 `json:"message,omitempty"`
}

// AttemptSession manages one quiz-taking run:
// Idle -> Loading -> Active -> Submitting -> Completed.
// Active is left either by a manual submit or by the countdown reaching zero;
// the state check under the mutex is the arbiter when the two race, so
// exactly one transition out of Active ever happens. A completed session is
// never resumed; retaking a quiz is a fresh session.
type AttemptSession struct {
	quizzes   QuizRepository
	submitter Submitter
	newTicker TickerFactory
	userID    string

	mu          sync.Mutex
	state       SessionState
	quiz        domain.Quiz // answer key stripped
	answers     []string
	remaining   int
	tickerStop  chan struct{}
	result      *domain.AttemptResult
	record      *domain.AttemptRecord
	closed      bool

	events chan SessionEvent
}

func NewAttemptSession(quizzes QuizRepository, submitter Submitter, userID string) *AttemptSession {
	return NewAttemptSessionWithTicker(quizzes, submitter, userID, NewSecondTicker)
}

// NewAttemptSessionWithTicker injects the tick source for deterministic tests.
func NewAttemptSessionWithTicker(quizzes QuizRepository, submitter Submitter, userID string, factory TickerFactory) *AttemptSession {
	return &AttemptSession{
		quizzes:   quizzes,
		submitter: submitter,
		newTicker: factory,
		userID:    userID,
		state:     StateIdle,
		events:    make(chan SessionEvent, 64),
	}
}

// Events returns the observer channel. Closed when the session is closed.
func (s *AttemptSession) Events() <-chan SessionEvent { return s.events }

// State reports the current lifecycle state.
func (s *AttemptSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining reports the countdown in seconds.
func (s *AttemptSession) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Answers returns a copy of the captured answer slots.
func (s *AttemptSession) Answers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.answers...)
}

// Result returns the attempt outcome once Completed.
func (s *AttemptSession) Result() (*domain.AttemptResult, *domain.AttemptRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.record
}

// Load fetches the quiz (stripped of its answer key), initializes the answer
// slots and the countdown, and starts ticking. Idle -> Loading -> Active.
func (s *AttemptSession) Load(ctx context.Context, quizID string) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return domain.ErrSessionNotActive
	}
	s.state = StateLoading
	s.mu.Unlock()

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionNotActive
	}
	if err != nil {
		s.state = StateIdle
		return err
	}

	s.quiz = quiz.Stripped()
	s.answers = make([]string, len(s.quiz.Questions))
	s.remaining = s.quiz.TimeLimit * 60
	s.state = StateActive
	s.startCountdownLocked()

	stripped := s.quiz
	s.emitLocked(SessionEvent{Type: "quiz", Quiz: &stripped, Remaining: s.remaining})
	s.emitLocked(SessionEvent{Type: "state", State: s.state.String()})
	return nil
}

// SelectAnswer overwrites slot i with the chosen option. Reselecting
// replaces; nothing leaves the process until submission.
func (s *AttemptSession) SelectAnswer(i int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateActive {
		return domain.ErrSessionNotActive
	}
	if i < 0 || i >= len(s.answers) {
		return domain.ErrInvalidSubmission
	}
	s.answers[i] = option
	return nil
}

// Submit is the manual transition out of Active. With unanswered slots the
// caller must pass confirmed=true, otherwise ErrConfirmationRequired is
// returned and the session stays Active. While a submission is pending or
// after completion this is a no-op returning ErrSessionNotActive.
func (s *AttemptSession) Submit(ctx context.Context, confirmed bool) error {
	s.mu.Lock()
	if s.closed || s.state != StateActive {
		s.mu.Unlock()
		return domain.ErrSessionNotActive
	}
	if !confirmed && s.hasUnansweredLocked() {
		s.mu.Unlock()
		return domain.ErrConfirmationRequired
	}
	answers := append([]string(nil), s.answers...)
	s.beginSubmitLocked()
	s.mu.Unlock()

	return s.deliver(ctx, answers)
}

// Close discards the session at any state: the countdown stops, the events
// channel is closed, and nothing further is emitted. An in-flight server
// write is allowed to complete.
func (s *AttemptSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopCountdownLocked()
	close(s.events)
}

func (s *AttemptSession) hasUnansweredLocked() bool {
	for _, a := range s.answers {
		if a == "" {
			return true
		}
	}
	return false
}

func (s *AttemptSession) beginSubmitLocked() {
	s.state = StateSubmitting
	s.stopCountdownLocked()
	s.emitLocked(SessionEvent{Type: "state", State: s.state.String()})
}

// deliver ships the answers and settles the session. On failure the session
// returns to Active so the user can retry with their answers intact; the
// countdown resumes only if it has not expired.
func (s *AttemptSession) deliver(ctx context.Context, answers []string) error {
	result, record, err := s.submitter.SubmitAttempt(ctx, s.userID, s.quiz.ID, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return err
	}
	if err != nil {
		s.state = StateActive
		if s.remaining > 0 {
			s.startCountdownLocked()
		}
		s.emitLocked(SessionEvent{Type: "error", Message: "failed to submit quiz"})
		s.emitLocked(SessionEvent{Type: "state", State: s.state.String()})
		return err
	}

	s.state = StateCompleted
	s.result = &result
	s.record = &record
	s.emitLocked(SessionEvent{Type: "result", Result: &result, Progress: &record})
	s.emitLocked(SessionEvent{Type: "state", State: s.state.String()})
	return nil
}

func (s *AttemptSession) startCountdownLocked() {
	stop := make(chan struct{})
	s.tickerStop = stop
	ticker := s.newTicker()
	go s.runCountdown(ticker, stop)
}

func (s *AttemptSession) stopCountdownLocked() {
	if s.tickerStop != nil {
		close(s.tickerStop)
		s.tickerStop = nil
	}
}

func (s *AttemptSession) runCountdown(ticker Ticker, stop chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			if s.tick(stop) {
				return
			}
		case <-stop:
			return
		}
	}
}

// tick decrements the countdown and fires the timeout auto-submit at zero.
// Returns true when this countdown run should stop.
func (s *AttemptSession) tick(stop chan struct{}) bool {
	s.mu.Lock()
	// A manual submit may have won the race; this run's stop channel is then
	// already closed and the tick must do nothing.
	if s.closed || s.state != StateActive || s.tickerStop != stop {
		s.mu.Unlock()
		return true
	}
	s.remaining--
	s.emitLocked(SessionEvent{Type: "tick", Remaining: s.remaining})
	if s.remaining > 0 {
		s.mu.Unlock()
		return false
	}

	// Timeout: submit whatever was captured, no confirmation.
	answers := append([]string(nil), s.answers...)
	s.beginSubmitLocked()
	s.mu.Unlock()

	go func() { _ = s.deliver(context.Background(), answers) }()
	return true
}

func (s *AttemptSession) emitLocked(event SessionEvent) {
	if s.closed {
		return
	}
	select {
	case s.events <- event:
	default:
		// Drop the oldest event rather than block the state machine on a
		// slow observer.
		select {
		case <-s.events:
		default:
		}
		s.events <- event
	}
}
