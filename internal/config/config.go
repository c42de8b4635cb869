package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Index backends.
const (
	IndexBackendPgvector = "pgvector"
	IndexBackendChromem  = "chromem"
)

// History backends.
const (
	HistoryBackendRedis  = "redis"
	HistoryBackendMemory = "memory"
)

// Empty retrieval policies.
const (
	EmptyRetrievalProceed = "proceed"
	EmptyRetrievalFail    = "fail"
)

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	OpenAI  OpenAIConfig
	Index   IndexConfig
	History HistoryConfig
	Chat    ChatConfig
	Logs    LogsConfig
	Storage StorageConfig
	NATS    NATSConfig
	CORS    CORSConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OpenAIConfig configures both the embedding and the chat completion clients.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Temperature    float64
	MaxTokens      int64
}

type IndexConfig struct {
	Backend     string
	TopK        int
	Collection  string
	ChromemPath string
}

// HistoryConfig controls conversation retention. Zero values mean unbounded.
type HistoryConfig struct {
	Backend  string
	MaxTurns int
	TTL      time.Duration
}

type ChatConfig struct {
	PersonaFile     string
	EmptyRetrieval  string
	RateLimitMax    int
	RateLimitWindow int
}

type LogsConfig struct {
	ImagesStep   string
	MemoriesStep string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

type NATSConfig struct {
	URL string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         k.String("openai.api.key"),
			BaseURL:        k.String("openai.base.url"),
			EmbeddingModel: k.String("openai.embedding.model"),
			ChatModel:      k.String("openai.chat.model"),
			Temperature:    k.Float64("openai.temperature"),
			MaxTokens:      k.Int64("openai.max.tokens"),
		},
		Index: IndexConfig{
			Backend:     k.String("index.backend"),
			TopK:        k.Int("index.top.k"),
			Collection:  k.String("index.collection"),
			ChromemPath: k.String("index.chromem.path"),
		},
		History: HistoryConfig{
			Backend:  k.String("history.backend"),
			MaxTurns: k.Int("history.max.turns"),
		},
		Chat: ChatConfig{
			PersonaFile:     k.String("chat.persona.file"),
			EmptyRetrieval:  k.String("chat.empty.retrieval"),
			RateLimitMax:    k.Int("chat.rate.limit.max"),
			RateLimitWindow: k.Int("chat.rate.limit.window"),
		},
		Logs: LogsConfig{
			ImagesStep:   k.String("logs.images.step"),
			MemoriesStep: k.String("logs.memories.step"),
		},
		Storage: StorageConfig{
			Endpoint:  k.String("storage.endpoint"),
			AccessKey: k.String("storage.access.key"),
			SecretKey: k.String("storage.secret.key"),
			Region:    k.String("storage.region"),
			UseSSL:    k.String("storage.use.ssl") != "false",
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
			File:   k.String("log.file"),
		},
	}

	if origins := k.String("cors.allowed.origins"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, o)
			}
		}
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "roverchat"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "roverchat"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 10
	}
	if cfg.DB.MigrationsPath == "" {
		cfg.DB.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = 0.7
	}
	if cfg.OpenAI.MaxTokens == 0 {
		cfg.OpenAI.MaxTokens = 1024
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = IndexBackendPgvector
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = 5
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "rover-memories"
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = HistoryBackendRedis
	}
	if cfg.Chat.EmptyRetrieval == "" {
		cfg.Chat.EmptyRetrieval = EmptyRetrievalProceed
	}
	if cfg.Chat.RateLimitWindow == 0 {
		cfg.Chat.RateLimitWindow = 60
	}
	if cfg.Logs.ImagesStep == "" {
		cfg.Logs.ImagesStep = "Lambda1__FetchImages"
	}
	if cfg.Logs.MemoriesStep == "" {
		cfg.Logs.MemoriesStep = "Lambda2__GenerateMemories"
	}
	if cfg.Storage.Endpoint == "" {
		cfg.Storage.Endpoint = "s3.amazonaws.com"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	if ttlStr := k.String("history.ttl"); ttlStr != "" {
		cfg.History.TTL, err = time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("parsing history ttl: %w", err)
		}
	}

	return cfg, nil
}
