package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"studysync-service/internal/app"
	"studysync-service/internal/config"
	"studysync-service/internal/domain"
	"studysync-service/internal/generation"
	"studysync-service/internal/infra/memory"
	"studysync-service/internal/infra/postgres"
	redisinfra "studysync-service/internal/infra/redis"
	transport "studysync-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the study room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	serverCfg := transport.DefaultServerConfig()
	switch {
	case portFlag != "":
		serverCfg.Port = portFlag
	case cfg.Server.Port != "":
		serverCfg.Port = cfg.Server.Port
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable at startup", slog.String("addr", cfg.Redis.Addr), slog.String("error", err.Error()))
		}
	}

	lockTTL := config.TTLDuration(cfg.Generation.LockTTL, 2*time.Minute)
	var registry app.RoomRegistry
	var locks app.GenerationLocks
	if redisClient != nil {
		registry = redisinfra.NewRoomRegistry(redisClient, config.TTLDuration(cfg.Redis.TTL, 6*time.Hour), logger)
		locks = redisinfra.NewGenerationLocks(redisClient, lockTTL)
	} else {
		registry = memory.NewRoomRegistry()
		locks = memory.NewGenerationLocks(lockTTL)
	}

	var recorder generation.Recorder = generation.NopRecorder{}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		recorder = postgres.NewGenerationLog(pool)
	}

	if cfg.Generation.APIKey == "" {
		logger.Warn("no generation api key configured; sections and quizzes will come back empty")
	}
	completer := generation.NewOpenAICompleter(generation.OpenAIConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
	})
	orchestrator := generation.NewOrchestrator(completer, generation.Options{
		Model:         cfg.Generation.Model,
		Timeout:       config.TTLDuration(cfg.Generation.Timeout, 60*time.Second),
		MaxConcurrent: cfg.Generation.MaxConcurrent,
		Recorder:      recorder,
		Logger:        logger,
	})

	dispatcher := app.NewDispatcher(registry, orchestrator, locks,
		app.WithLogger(logger),
		app.WithRoomDefaults(domain.RoomConfig{
			QuizInterval:     cfg.Rooms.QuizInterval,
			QuestionsPerQuiz: cfg.Rooms.QuestionsPerQuiz,
		}),
	)

	router := transport.NewRouter(transport.RouterConfig{
		Logger:        logger,
		Dispatcher:    dispatcher,
		Rooms:         registry,
		AllowedOrigin: cfg.Server.AllowedOrigin,
	})
	server := transport.NewServer(router, serverCfg, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown(context.Background())
	})
	return g.Wait()
}
