package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicquiz-service/internal/app"
	"civicquiz-service/internal/config"
	"civicquiz-service/internal/domain"
	"civicquiz-service/internal/infra/memory"
	pgloader "civicquiz-service/internal/infra/postgres"
	redisinfra "civicquiz-service/internal/infra/redis"
	"civicquiz-service/internal/mode"
	transport "civicquiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	registry := mode.DefaultRegistry(mode.SpeedConfig{
		FastThreshold:    config.TTLDuration(cfg.Modes.SpeedFastThreshold, 0),
		TimeLimitSeconds: cfg.Modes.SpeedTimeLimitSeconds,
	})
	service := app.NewSessionService(store, quizRepo, registry)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting civic quiz service on :%s", finalPort)
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

// sampleQuizzes seeds demo civics content when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"constitution-basics": {
			ID:    "constitution-basics",
			Title: "Constitution Basics",
			Questions: []domain.Question{
				{
					ID:          "q1",
					Prompt:      "How many branches does the U.S. federal government have?",
					Hint:        "Think separation of powers.",
					Explanation: "The Constitution splits power between the legislative, executive, and judicial branches.",
					Options: []domain.Option{
						{ID: "o1", Text: "Two", Correct: false},
						{ID: "o2", Text: "Three", Correct: true},
						{ID: "o3", Text: "Four", Correct: false},
					},
					Points: 1,
				},
				{
					ID:          "q2",
					Prompt:      "Which amendment protects freedom of speech?",
					Hint:        "It comes first.",
					Explanation: "The First Amendment protects speech, religion, press, assembly, and petition.",
					Options: []domain.Option{
						{ID: "o1", Text: "First", Correct: true},
						{ID: "o2", Text: "Second", Correct: false},
						{ID: "o3", Text: "Fifth", Correct: false},
					},
					Points: 1,
				},
			},
		},
	}
}
