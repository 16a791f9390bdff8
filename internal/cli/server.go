package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/config"
	"ai-quiz-service/internal/infra/gemini"
	"ai-quiz-service/internal/infra/mail"
	"ai-quiz-service/internal/infra/memory"
	"ai-quiz-service/internal/infra/postgres"
	infraredis "ai-quiz-service/internal/infra/redis"
	"ai-quiz-service/internal/infra/sqlite"
	transport "ai-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
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

type storage struct {
	users  app.UserRepository
	scores app.ScoreRepository
	closer func()
}

func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return storage{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return storage{}, fmt.Errorf("connect postgres: %w", err)
		}
		return storage{
			users:  postgres.NewUserRepository(pool),
			scores: postgres.NewScoreRepository(pool),
			closer: pool.Close,
		}, nil
	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLite.Path)
		if err != nil {
			return storage{}, err
		}
		return storage{
			users:  store.Users(),
			scores: store.Scores(),
			closer: func() { _ = store.Close() },
		}, nil
	default:
		log.Printf("using in-memory storage; data is lost on restart")
		return storage{
			users:  memory.NewUserRepository(),
			scores: memory.NewScoreRepository(),
			closer: func() {},
		}, nil
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.closer()

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

	users := store.users
	var sessions app.SessionRegistry
	if redisClient != nil {
		users = infraredis.NewUserCache(redisClient, users, redisTTL)
		sessions = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		users = memory.NewUserCache(users, redisTTL)
		sessions = memory.NewSessionStore()
	}

	model, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return err
	}
	defer model.Close()
	if cfg.Gemini.APIKey == "" {
		log.Printf("GOOGLE_API_KEY is not set; quiz generation will fail")
	}

	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		FromName: cfg.SMTP.FromName,
	})

	tokens := app.NewTokenIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, app.DefaultTokenTTL))
	generator := app.NewQuizGenerator(model)
	scores := app.NewScoreService(store.scores)
	router := transport.NewRouter(transport.Services{
		Auth:      app.NewAuthService(users, tokens),
		Generator: generator,
		Scores:    scores,
		Notifier:  app.NewReportNotifier(scores, users, mailer, cfg.Location()),
		Attempts:  app.NewAttemptService(generator, scores, sessions),
	}, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays unset for WebSocket sessions.
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting quiz service on :%s (storage=%s)", finalPort, cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
