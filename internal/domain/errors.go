package domain

import "errors"

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrProgressNotFound is returned when no attempt record exists for a (user, quiz) pair.
	ErrProgressNotFound = errors.New("no progress found for this quiz")
	// ErrInvalidSubmission indicates the submitted answer count does not match the question count.
	ErrInvalidSubmission = errors.New("invalid answers format")
	// ErrInvalidQuiz indicates a quiz with no questions; unreachable through
	// validated creation, kept as a defensive check.
	ErrInvalidQuiz = errors.New("quiz has no questions")
	// ErrUnauthenticated indicates the caller presented no valid credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrDuplicateTitle indicates a quiz with the same title already exists.
	ErrDuplicateTitle = errors.New("quiz with this title already exists")
	// ErrSessionNotActive is returned when an attempt session operation is
	// issued outside the Active state.
	ErrSessionNotActive = errors.New("attempt session not active")
	// ErrConfirmationRequired is returned for a manual submit with unanswered
	// questions that has not been explicitly confirmed.
	ErrConfirmationRequired = errors.New("unanswered questions require confirmation")
	// ErrAttemptInProgress indicates a live attempt already exists for the (user, quiz) pair.
	ErrAttemptInProgress = errors.New("attempt already in progress")
)
