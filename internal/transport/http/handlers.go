package http

import (
	"encoding/json"
	"net/http"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	"ai-quiz-service/internal/infra/memory"
)

// API wires the quiz attempt use cases to the HTTP surface.
type API struct {
	progress *app.ProgressService
	catalog  *app.CatalogService
	quizzes  app.QuizRepository
	sessions *memory.SessionRegistry
	secret   []byte

	// test seam for the live attempt countdown
	newTicker app.TickerFactory
}

func NewAPI(progress *app.ProgressService, catalog *app.CatalogService, quizzes app.QuizRepository, secret []byte) *API {
	return &API{
		progress:  progress,
		catalog:   catalog,
		quizzes:   quizzes,
		sessions:  memory.NewSessionRegistry(),
		secret:    secret,
		newTicker: app.NewSecondTicker,
	}
}

// Routes builds the service mux. Progress routes require a bearer token;
// catalog reads are public like the source app's quiz listing.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/v1/quiz/create_quiz", requireAuth(a.secret, a.handleCreateQuiz))
	mux.HandleFunc("GET /api/v1/quiz", a.handleListQuizzes)
	mux.HandleFunc("GET /api/v1/quiz/{id}", a.handleGetQuiz)

	mux.HandleFunc("POST /api/v1/progress/submit", requireAuth(a.secret, a.handleSubmit))
	mux.HandleFunc("GET /api/v1/progress", requireAuth(a.secret, a.handleListProgress))
	mux.HandleFunc("GET /api/v1/progress/{quizId}", requireAuth(a.secret, a.handleQuizProgress))
	mux.HandleFunc("GET /api/v1/progress/stats/summary", requireAuth(a.secret, a.handleStats))
	mux.HandleFunc("POST /api/v1/progress/reminder/{quizId}", requireAuth(a.secret, a.handleSetReminder))

	mux.HandleFunc("GET /ws/attempt", requireAuth(a.secret, a.handleAttemptWS))
	return mux
}

type submitRequest struct {
	QuizID      string   `json:"quizId"`
	UserAnswers []string `json:"userAnswers"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondServiceError(w, domain.ErrUnauthenticated)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, record, err := a.progress.SubmitAttempt(r.Context(), userID, req.QuizID, req.UserAnswers)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Quiz submitted successfully",
		"result":   result,
		"progress": record,
	})
}

func (a *API) handleListProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	records, err := a.progress.Progress(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"progress": records,
	})
}

func (a *API) handleQuizProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	record, err := a.progress.QuizProgress(r.Context(), userID, r.PathValue("quizId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"progress": record,
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	stats, err := a.progress.Stats(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

type reminderRequest struct {
	ReminderTime time.Time `json:"reminderTime"`
}

func (a *API) handleSetReminder(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReminderTime.IsZero() {
		respondError(w, http.StatusBadRequest, "invalid reminder time")
		return
	}

	record, err := a.progress.SetReminder(r.Context(), userID, r.PathValue("quizId"), req.ReminderTime)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Reminder set successfully",
		"progress": record,
	})
}

func (a *API) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := a.catalog.CreateQuiz(r.Context(), quiz)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Quiz created successfully",
		"quiz":    created,
	})
}

func (a *API) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.catalog.ListQuizzes(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"quizzes": quizzes,
	})
}

func (a *API) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.catalog.GetQuizForAttempt(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"quiz":    quiz,
	})
}
