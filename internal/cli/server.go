package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"group-quiz-bot/internal/app"
	"group-quiz-bot/internal/config"
	"group-quiz-bot/internal/domain"
	"group-quiz-bot/internal/infra/memory"
	pgloader "group-quiz-bot/internal/infra/postgres"
	infraredis "group-quiz-bot/internal/infra/redis"
	transport "group-quiz-bot/internal/transport/http"
	"group-quiz-bot/internal/transport/telegram"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the websocket server and, when configured, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, setupLogging(cfg))
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	switch {
	case pool != nil:
		loader = pgloader.NewQuestionLoader(pool)
	case cfg.Quiz.QuestionsFile != "":
		loader = memory.NewFileQuestionLoader(cfg.Quiz.QuestionsFile)
	}
	bank := memory.NewQuestionBank(loader)
	if err := bank.Reload(ctx); err != nil {
		return err
	}
	log.Info("question bank loaded", "questions", bank.Len())

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var scores app.Scoreboard = memory.NewScoreboard()
	if redisClient != nil {
		scores = infraredis.NewScoreboard(redisClient)
	}
	newSessions := func() app.SessionStore {
		if redisClient != nil {
			return infraredis.NewSessionStore(redisClient, redisTTL)
		}
		return memory.NewSessionStore()
	}

	settings := cfg.Settings()
	g, gctx := errgroup.WithContext(ctx)

	// websocket conversations; privileged actors come from the admin list
	hub := transport.NewHub(log)
	var admins app.Permissions
	if len(cfg.Quiz.Admins) > 0 {
		admins = memory.NewAllowList(cfg.Quiz.Admins)
	}
	wsEngine := app.NewEngine(app.Deps{
		Bank:        bank,
		Scores:      scores,
		Sessions:    newSessions(),
		Transport:   hub,
		Permissions: admins,
	}, settings, app.WithLogger(log.With("transport", "ws")))
	g.Go(func() error { return wsEngine.Sweeper().Run(gctx) })

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      transport.NewRouter(wsEngine, transport.NewWSHandler(wsEngine, hub, log)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	g.Go(func() error {
		log.Info("starting quiz server", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, log)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		tgEngine := app.NewEngine(app.Deps{
			Bank:        bank,
			Scores:      scores,
			Sessions:    newSessions(),
			Transport:   telegram.NewTransport(bot),
			Permissions: telegram.NewPermissions(bot),
		}, settings, app.WithLogger(log.With("transport", "telegram")))
		telegram.NewHandlers(gctx, tgEngine, log).Register(bot)
		g.Go(func() error { return tgEngine.Sweeper().Run(gctx) })
		g.Go(func() error { return telegram.Run(gctx, bot, log) })
	}

	return g.Wait()
}

// sampleQuestions seeds the bank when neither Postgres nor a questions file
// is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:          "q1",
			Prompt:      "What is 2 + 2?",
			Options:     []string{"3", "4", "5"},
			Correct:     1,
			Explanation: "Two pairs make four.",
		},
		{
			ID:      "q2",
			Prompt:  "Which planet is closest to the Sun?",
			Options: []string{"Venus", "Mercury", "Mars"},
			Correct: 1,
		},
		{
			ID:          "q3",
			Prompt:      "How many bits are in a byte?",
			Options:     []string{"4", "8", "16"},
			Correct:     1,
			Explanation: "A byte is eight bits on every platform Go targets.",
		},
	}
}
