package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gameday-trivia-service/internal/app"
	"gameday-trivia-service/internal/config"
	"gameday-trivia-service/internal/infra/memory"
	"gameday-trivia-service/internal/infra/mlb"
	pgbank "gameday-trivia-service/internal/infra/postgres"
	infraredis "gameday-trivia-service/internal/infra/redis"
	transport "gameday-trivia-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	quizCfg := app.Config{
		RevealDelay:     config.Duration(cfg.Quiz.RevealDelay, 5*time.Second),
		Lifetime:        config.Duration(cfg.Quiz.Lifetime, 120*time.Second),
		MinGap:          config.Duration(cfg.Quiz.MinGap, 30*time.Second),
		LeaderboardSize: cfg.Quiz.LeaderboardSize,
	}
	retention := config.Duration(cfg.Quiz.Retention, 24*time.Hour)

	var (
		questions app.QuestionStore
		votes     app.VoteStore
		scores    app.ScoreStore
		games     app.GameStore
		chat      app.ChatStore
	)
	if redisClient != nil {
		questions = infraredis.NewQuestionStore(redisClient, retention)
		votes = infraredis.NewVoteStore(redisClient, retention)
		scores = infraredis.NewScoreStore(redisClient)
		games = infraredis.NewGameStore(redisClient)
		chat = infraredis.NewChatStore(redisClient, cfg.Chat.History)
	} else {
		questions = memory.NewQuestionStore()
		votes = memory.NewVoteStore()
		scores = memory.NewScoreStore()
		games = memory.NewGameStore()
		chat = memory.NewChatStore(cfg.Chat.History)
	}

	mlbClient := mlb.NewClient(cfg.MLB.BaseURL, config.Duration(cfg.MLB.Timeout, 5*time.Second))
	liveCache := memory.NewLiveCache(mlbClient, config.Duration(cfg.MLB.LiveTTL, 20*time.Second))

	var bankLoader app.BankLoader = memory.NewStaticBankLoader(memory.DefaultBank())
	if pool != nil {
		bankLoader = pgbank.NewBankLoader(pool)
	}
	bank, err := bankLoader.LoadBank(ctx)
	if err != nil || len(bank) == 0 {
		if err != nil {
			log.Printf("bank load failed, using built-in bank: %v", err)
		}
		bank = memory.DefaultBank()
	}

	gen := app.NewGenerator(liveCache, mlbClient, bank, cfg.MLB.Season)
	service := app.NewQuizService(questions, votes, scores, gen, quizCfg)
	hub := transport.NewChatHub(chat)
	handler := transport.NewHandler(service, games, chat, hub)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
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
