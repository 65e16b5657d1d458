package app

import (
	"math"
	"testing"

	"ai-quiz-service/internal/domain"
)

func TestScoreCountsExactMatches(t *testing.T) {
	result, err := Score([]string{"A", "B", "C"}, []string{"A", "X", "C"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.CorrectAnswers != 2 || result.TotalQuestions != 3 {
		t.Fatalf("expected 2/3, got %d/%d", result.CorrectAnswers, result.TotalQuestions)
	}
	if math.Abs(result.Score-200.0/3.0) > 1e-9 {
		t.Fatalf("expected 200/3, got %v", result.Score)
	}
}

func TestScoreRejectsShapeMismatch(t *testing.T) {
	_, err := Score([]string{"A", "B", "C", "D", "E"}, []string{"A", "B"})
	if err != domain.ErrInvalidSubmission {
		t.Fatalf("expected invalid submission, got %v", err)
	}
}

func TestScoreRejectsEmptyKey(t *testing.T) {
	_, err := Score(nil, nil)
	if err != domain.ErrInvalidQuiz {
		t.Fatalf("expected invalid quiz, got %v", err)
	}
}

func TestScoreIsCaseSensitiveAndExact(t *testing.T) {
	result, err := Score([]string{"Paris", "Rome"}, []string{"paris", "Rome "})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.CorrectAnswers != 0 {
		t.Fatalf("expected no matches, got %d", result.CorrectAnswers)
	}
}

func TestScoreUnansweredSlotsCountIncorrect(t *testing.T) {
	result, err := Score([]string{"A", "B"}, []string{"", ""})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.CorrectAnswers != 0 || result.Score != 0 {
		t.Fatalf("expected zero score, got %+v", result)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	key := []string{"A", "B", "C"}
	sub := []string{"A", "B", "X"}
	first, err := Score(key, sub)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	second, err := Score(key, sub)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical results, got %+v vs %+v", first, second)
	}
}
