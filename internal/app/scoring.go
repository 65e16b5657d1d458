package app

import "ai-quiz-service/internal/domain"

// Score grades a submission against the authoritative answer key.
// Comparison is exact string equality per position, case-sensitive, no
// trimming; an empty slot never matches a non-empty correct answer.
// Pure function: no side effects, deterministic for identical inputs.
func Score(answerKey, submitted []string) (domain.AttemptResult, error) {
	if len(answerKey) == 0 {
		return domain.AttemptResult{}, domain.ErrInvalidQuiz
	}
	if len(submitted) != len(answerKey) {
		return domain.AttemptResult{}, domain.ErrInvalidSubmission
	}

	correct := 0
	for i := range answerKey {
		if submitted[i] == answerKey[i] {
			correct++
		}
	}

	return domain.AttemptResult{
		Score:          100 * float64(correct) / float64(len(answerKey)),
		TotalQuestions: len(answerKey),
		CorrectAnswers: correct,
	}, nil
}
