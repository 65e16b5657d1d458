package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// respondServiceError translates domain failures into the structured
// envelope; nothing internal crosses the boundary.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		respondError(w, http.StatusNotFound, "quiz not found")
	case errors.Is(err, domain.ErrProgressNotFound):
		respondError(w, http.StatusNotFound, "no progress found for this quiz")
	case errors.Is(err, domain.ErrInvalidSubmission):
		respondError(w, http.StatusBadRequest, "invalid answers format")
	case errors.Is(err, domain.ErrDuplicateTitle):
		respondError(w, http.StatusConflict, "quiz with this title already exists")
	case errors.Is(err, app.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated")
	default:
		respondError(w, http.StatusInternalServerError, "failed to process request")
	}
}
