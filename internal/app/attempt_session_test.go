package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	"ai-quiz-service/internal/infra/memory"
)

type fakeTicker struct {
	ch   chan time.Time
	once sync.Once
	done chan struct{}
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time), done: make(chan struct{})}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.once.Do(func() { close(f.done) }) }

// tick feeds one simulated second; returns false once the session stopped
// listening.
func (f *fakeTicker) tick() bool {
	select {
	case f.ch <- time.Time{}:
		return true
	case <-f.done:
		return false
	}
}

type tickerSource struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (s *tickerSource) factory() app.Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := newFakeTicker()
	s.tickers = append(s.tickers, t)
	return t
}

func (s *tickerSource) last() *fakeTicker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickers[len(s.tickers)-1]
}

type stubSubmitter struct {
	mu     sync.Mutex
	calls  [][]string
	fail   bool
	result domain.AttemptResult
	record domain.AttemptRecord
}

func (s *stubSubmitter) SubmitAttempt(_ context.Context, _, _ string, answers []string) (domain.AttemptResult, domain.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]string(nil), answers...))
	if s.fail {
		return domain.AttemptResult{}, domain.AttemptRecord{}, context.DeadlineExceeded
	}
	return s.result, s.record, nil
}

func (s *stubSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubSubmitter) lastCall() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func (s *stubSubmitter) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func newTestSession(submitter app.Submitter) (*app.AttemptSession, *tickerSource) {
	quizzes := memory.NewQuizStoreWith(map[string]domain.Quiz{
		"quiz-1": {
			Title:        "Letters",
			Field:        "Trivia",
			TimeLimit:    1,
			NumQuestions: 2,
			Questions: []domain.Question{
				{Question: "First?", Options: []string{"A", "Z"}, CorrectAnswer: "A"},
				{Question: "Second?", Options: []string{"B", "Z"}, CorrectAnswer: "B"},
			},
		},
	})
	source := &tickerSource{}
	session := app.NewAttemptSessionWithTicker(memory.NewQuizCache(quizzes, time.Minute), submitter, "u1", source.factory)
	return session, source
}

func waitEvent(t *testing.T, events <-chan app.SessionEvent, typ string) app.SessionEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				t.Fatalf("events channel closed while waiting for %q", typ)
			}
			if event.Type == typ {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", typ)
		}
	}
}

func TestLoadStripsAnswerKeyAndStartsCountdown(t *testing.T) {
	session, _ := newTestSession(&stubSubmitter{})

	if err := session.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if session.State() != app.StateActive {
		t.Fatalf("expected active, got %v", session.State())
	}
	if session.Remaining() != 60 {
		t.Fatalf("expected 60s countdown, got %d", session.Remaining())
	}

	event := waitEvent(t, session.Events(), "quiz")
	for _, q := range event.Quiz.Questions {
		if q.CorrectAnswer != "" {
			t.Fatalf("answer key leaked to session: %+v", q)
		}
	}
	if len(session.Answers()) != 2 {
		t.Fatalf("expected 2 empty slots, got %v", session.Answers())
	}
}

func TestLoadUnknownQuizReturnsToIdle(t *testing.T) {
	session, _ := newTestSession(&stubSubmitter{})
	if err := session.Load(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if session.State() != app.StateIdle {
		t.Fatalf("expected idle after failed load, got %v", session.State())
	}
}

func TestSelectAnswerOverwritesSlot(t *testing.T) {
	session, _ := newTestSession(&stubSubmitter{})
	if err := session.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := session.SelectAnswer(0, "Z"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.SelectAnswer(0, "A"); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if answers := session.Answers(); answers[0] != "A" || answers[1] != "" {
		t.Fatalf("expected reselect to replace, got %v", answers)
	}
	if err := session.SelectAnswer(5, "A"); err != domain.ErrInvalidSubmission {
		t.Fatalf("expected out-of-range rejection, got %v", err)
	}
}

func TestManualSubmitNeedsConfirmationWhenIncomplete(t *testing.T) {
	submitter := &stubSubmitter{result: domain.AttemptResult{Score: 50, TotalQuestions: 2, CorrectAnswers: 1}}
	session, _ := newTestSession(submitter)
	if err := session.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = session.SelectAnswer(0, "A")

	if err := session.Submit(context.Background(), false); err != domain.ErrConfirmationRequired {
		t.Fatalf("expected confirmation required, got %v", err)
	}
	if session.State() != app.StateActive {
		t.Fatalf("declined submit must stay active, got %v", session.State())
	}

	if err := session.Submit(context.Background(), true); err != nil {
		t.Fatalf("confirmed submit: %v", err)
	}
	if session.State() != app.StateCompleted {
		t.Fatalf("expected completed, got %v", session.State())
	}
	if got := submitter.lastCall(); got[0] != "A" || got[1] != "" {
		t.Fatalf("expected captured answers shipped, got %v", got)
	}
}

func TestSecondSubmitIsNoOp(t *testing.T) {
	submitter := &stubSubmitter{}
	session, _ := newTestSession(submitter)
	if err := session.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = session.SelectAnswer(0, "A")
	_ = session.SelectAnswer(1, "B")

	if err := session.Submit(context.Background(), false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := session.Submit(context.Background(), true); err != domain.ErrSessionNotActive {
		t.Fatalf("expected no-op second submit, got %v", err)
	}
	if submitter.callCount() != 1 {
		t.Fatalf("expected exactly one submission, got %d", submitter.callCount())
	}
}

func TestTimeoutAutoSubmitsWithCapturedAnswers(t *testing.T) {
	submitter := &stubSubmitter{result: domain.AttemptResult{Score: 0, TotalQuestions: 2}}
	session, source := newTestSession(submitter)
	if err := session.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = session.SelectAnswer(0, "A")

	ticker := source.last()
	for i := 0; i < 60; i++ {
		if !ticker.tick() {
			t.Fatalf("countdown stopped early at tick %d", i)
		}
	}

	waitEvent(t, session.Events(), "result")
	if session.State() != app.StateCompleted {
		t.Fatalf("expected completed after timeout, got %v", session.State())
	}
	if session.Remaining() != 0 {
		t.Fatalf("expected countdown at zero, got %d", session.Remaining())
	}
	if got := submitter.lastCall(); got[0] != "A" || got[1] != "" {
		t.Fatalf("timeout must ship captured answers, got %v", got)
	}
}

func TestFailedSubmitKeepsAnswersAndAllowsRetry(t *testing.T) {
	submitter := &stubSubmitter{fail: true, result: domain.AttemptResult{Score: 100, TotalQuestions: 2, CorrectAnswers: 2}}
	session, _ := newTestSession(submitter)
	if err := session.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = session.SelectAnswer(0, "A")
	_ = session.SelectAnswer(1, "B")

	if err := session.Submit(context.Background(), false); err == nil {
		t.Fatalf("expected submit failure")
	}
	waitEvent(t, session.Events(), "error")
	if session.State() != app.StateActive {
		t.Fatalf("expected retry-eligible session, got %v", session.State())
	}
	if answers := session.Answers(); answers[0] != "A" || answers[1] != "B" {
		t.Fatalf("answers must survive a failed submit, got %v", answers)
	}

	submitter.setFail(false)
	if err := session.Submit(context.Background(), false); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if session.State() != app.StateCompleted {
		t.Fatalf("expected completed after retry, got %v", session.State())
	}
}

func TestCloseStopsCountdownAndEvents(t *testing.T) {
	session, source := newTestSession(&stubSubmitter{})
	if err := session.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	ticker := source.last()

	session.Close()

	deadline := time.After(2 * time.Second)
	for {
		if !ticker.tick() {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("countdown still consuming ticks after close")
		default:
		}
	}
	if err := session.SelectAnswer(0, "A"); err != domain.ErrSessionNotActive {
		t.Fatalf("expected closed session to reject selection, got %v", err)
	}
	if err := session.Submit(context.Background(), true); err != domain.ErrSessionNotActive {
		t.Fatalf("expected closed session to reject submit, got %v", err)
	}
}

func TestSessionEndToEndAgainstProgressService(t *testing.T) {
	quizzes := memory.NewQuizStoreWith(map[string]domain.Quiz{
		"quiz-1": {
			Title:        "Letters",
			Field:        "Trivia",
			TimeLimit:    1,
			NumQuestions: 2,
			Questions: []domain.Question{
				{Question: "First?", Options: []string{"A", "Z"}, CorrectAnswer: "A"},
				{Question: "Second?", Options: []string{"B", "Z"}, CorrectAnswer: "B"},
			},
		},
	})
	progress := memory.NewProgressStore(quizzes)
	service := app.NewProgressService(memory.NewQuizCache(quizzes, time.Minute), progress)

	source := &tickerSource{}
	session := app.NewAttemptSessionWithTicker(memory.NewQuizCache(quizzes, time.Minute), service, "u1", source.factory)
	if err := session.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = session.SelectAnswer(0, "A")
	_ = session.SelectAnswer(1, "Z")

	if err := session.Submit(context.Background(), false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, record := session.Result()
	if result == nil || result.CorrectAnswers != 1 || result.Score != 50 {
		t.Fatalf("expected 1/2 = 50%%, got %+v", result)
	}
	if record == nil || record.Score != 50 {
		t.Fatalf("expected persisted record at 50, got %+v", record)
	}
}
