package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-arena/internal/config"
	"trivia-arena/internal/game"
	"trivia-arena/internal/infra/memory"
	pgbank "trivia-arena/internal/infra/postgres"
	redisstore "trivia-arena/internal/infra/redis"
	transport "trivia-arena/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
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

	var store game.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redisstore.NewGameStore(client)
	} else {
		store = memory.NewGameStore()
	}

	// Seed the question bank from Postgres when configured; otherwise the
	// admin API is the only way questions get authored.
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		bank := pgbank.NewQuestionBank(pool)
		questions, err := bank.LoadAll(ctx)
		if err != nil {
			return err
		}
		for i := range questions {
			if err := store.InsertQuestion(ctx, &questions[i]); err != nil {
				return err
			}
		}
		log.Printf("seeded %d questions from postgres", len(questions))
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	cache := memory.NewQuestionCache(store, questionTTL)

	hub := transport.NewHub()
	service := game.NewService(store, cache, hub, game.Config{
		InitialStake: cfg.Game.InitialStake,
		CodeRound:    cfg.Game.CodeRound,
		CodeLength:   cfg.Game.CodeLength,
	})

	wsHandler := transport.NewWSHandler(service, hub)
	apiHandler := transport.NewAPIHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia arena on :%s", finalPort)
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
