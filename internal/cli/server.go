package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/config"
	"ai-quiz-service/internal/domain"
	"ai-quiz-service/internal/infra/memory"
	"ai-quiz-service/internal/infra/postgres"
	rediscache "ai-quiz-service/internal/infra/redis"
	transport "ai-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz progress server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = "dev-secret"
		log.Println("auth secret not configured, using insecure dev default")
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Without Postgres the service runs self-contained on seeded quizzes.
	var catalog app.QuizCatalog
	var loader memory.QuizLoader
	if pool != nil {
		store := postgres.NewQuizStore(pool)
		catalog, loader = store, store
	} else {
		store := memory.NewQuizStoreWith(sampleQuizzes())
		catalog, loader = store, store
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		quizzes = rediscache.NewQuizCache(client, loader, quizTTL)
	} else {
		quizzes = memory.NewQuizCache(loader, quizTTL)
	}

	var progressStore app.ProgressRepository
	if pool != nil {
		progressStore = postgres.NewProgressStore(pool)
	} else {
		progressStore = memory.NewProgressStore(loader)
	}

	progress := app.NewProgressService(quizzes, progressStore)
	catalogSvc := app.NewCatalogService(catalog, quizzes)
	api := transport.NewAPI(progress, catalogSvc, quizzes, []byte(secret))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz progress service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the in-memory catalog for local runs without Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			Title:        "Basic Arithmetic",
			Field:        "Mathematics",
			TimeLimit:    5,
			NumQuestions: 2,
			Questions: []domain.Question{
				{
					Question:      "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: "4",
				},
				{
					Question:      "What is 9 - 3?",
					Options:       []string{"6", "7", "12"},
					CorrectAnswer: "6",
				},
			},
		},
		"quiz-2": {
			Title:        "World Capitals",
			Field:        "Geography",
			TimeLimit:    3,
			NumQuestions: 2,
			Questions: []domain.Question{
				{
					Question:      "What is the capital of Japan?",
					Options:       []string{"Kyoto", "Tokyo", "Osaka"},
					CorrectAnswer: "Tokyo",
				},
				{
					Question:      "What is the capital of Canada?",
					Options:       []string{"Toronto", "Vancouver", "Ottawa"},
					CorrectAnswer: "Ottawa",
				},
			},
		},
	}
}
