package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openai/openai-go/option"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aiox-platform/roverchat/internal/api"
	"github.com/aiox-platform/roverchat/internal/chat"
	"github.com/aiox-platform/roverchat/internal/config"
	"github.com/aiox-platform/roverchat/internal/database"
	"github.com/aiox-platform/roverchat/internal/embedding"
	"github.com/aiox-platform/roverchat/internal/generation"
	"github.com/aiox-platform/roverchat/internal/history"
	"github.com/aiox-platform/roverchat/internal/logs"
	"github.com/aiox-platform/roverchat/internal/memory"
	mw "github.com/aiox-platform/roverchat/internal/middleware"
	inats "github.com/aiox-platform/roverchat/internal/nats"
	"github.com/aiox-platform/roverchat/internal/prompt"
	iredis "github.com/aiox-platform/roverchat/internal/redis"
	"github.com/aiox-platform/roverchat/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("roverchat exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog := config.NewLogger(cfg.Log)
	defer closeLog()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	pool, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()

	checks := map[string]api.ReadinessCheck{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, pool) },
		"redis":    nil,
		"nats":     nil,
	}

	// Redis
	var redisClient *goredis.Client
	if cfg.History.Backend == config.HistoryBackendRedis || cfg.Chat.RateLimitMax > 0 {
		redisClient, err = iredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisClient.Close()
		checks["redis"] = iredis.Ping(redisClient)
	}

	// NATS
	var publisher *inats.Publisher
	if cfg.NATS.URL != "" {
		natsClient, err := inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer natsClient.Close()
		publisher = inats.NewPublisher(natsClient.JetStream())
		checks["nats"] = natsClient.Ping
	}

	// Model clients
	openaiOpts := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.APIKey)}
	if cfg.OpenAI.BaseURL != "" {
		openaiOpts = append(openaiOpts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	embedder := embedding.NewOpenAIEmbedder(cfg.OpenAI.EmbeddingModel, openaiOpts...)
	generator := generation.NewOpenAIGenerator(generation.Options{
		Model:               cfg.OpenAI.ChatModel,
		Temperature:         cfg.OpenAI.Temperature,
		MaxCompletionTokens: cfg.OpenAI.MaxTokens,
	}, openaiOpts...)

	index, err := newIndex(cfg.Index, pool)
	if err != nil {
		return err
	}
	store := newHistoryStore(cfg.History, redisClient)

	persona, err := prompt.LoadPersona(cfg.Chat.PersonaFile)
	if err != nil {
		return err
	}

	// Chat
	chatSvc := chat.NewService(embedder, index, store, generator, chat.Options{
		Persona:              persona,
		TopK:                 cfg.Index.TopK,
		FailOnEmptyRetrieval: cfg.Chat.EmptyRetrieval == config.EmptyRetrievalFail,
	})
	if publisher != nil {
		chatSvc.WithPublisher(publisher)
	}
	chatHandler := chat.NewHandler(chatSvc)

	// Transaction logs
	blobs, err := logs.NewMinioFetcher(cfg.Storage)
	if err != nil {
		return err
	}
	logsSvc := logs.NewService(logs.NewRepository(pool), blobs, logs.Steps{
		Images:   cfg.Logs.ImagesStep,
		Memories: cfg.Logs.MemoriesStep,
	})
	if publisher != nil {
		logsSvc.WithPublisher(publisher)
	}
	logsHandler := logs.NewHandler(logsSvc)

	// Router
	routerCfg := api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		Checks:             checks,
	}
	if cfg.Chat.RateLimitMax > 0 {
		limiter := mw.NewRateLimiter(redisClient, "chat", cfg.Chat.RateLimitMax, cfg.Chat.RateLimitWindow)
		routerCfg.ChatRateLimiter = limiter.Middleware
	}
	router := api.NewRouter(routerCfg, api.HandlerSet{
		Chat: chatHandler.Chat,
		Logs: logsHandler.Get,
	})

	slog.Info("roverchat ready",
		"index", cfg.Index.Backend,
		"history", cfg.History.Backend,
		"top_k", cfg.Index.TopK,
		"empty_retrieval", cfg.Chat.EmptyRetrieval,
		"events", publisher != nil,
	)

	return server.New(cfg.Server, router).Run(ctx)
}

func newIndex(cfg config.IndexConfig, pool memory.Querier) (memory.Index, error) {
	switch cfg.Backend {
	case config.IndexBackendChromem:
		idx, err := memory.NewChromemIndex(cfg.ChromemPath, cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("opening chromem index: %w", err)
		}
		return idx, nil
	default:
		return memory.NewPgvectorIndex(pool), nil
	}
}

func newHistoryStore(cfg config.HistoryConfig, client *goredis.Client) history.Store {
	retention := history.Retention{MaxTurns: cfg.MaxTurns, TTL: cfg.TTL}
	if cfg.Backend == config.HistoryBackendMemory {
		slog.Warn("using in-memory history store, conversations are lost on restart")
		return history.NewInMemoryStore(retention)
	}
	return history.NewRedisStore(client, retention)
}
