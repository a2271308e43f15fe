// Package agentroute provides a top-level convenience entry point composing
// the handoff router and the model call orchestrator with minimal
// boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/agentroute"
//
//	engine, err := agentroute.New(agentroute.WithAnthropic(""))
//	decision, err := engine.Route(ctx, task)
//	resp, err := engine.Ask(ctx, prompt, tenantID)
package agentroute

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/agentroute/cache"
	"github.com/BaSui01/agentroute/config"
	"github.com/BaSui01/agentroute/internal/database"
	"github.com/BaSui01/agentroute/internal/metrics"
	"github.com/BaSui01/agentroute/internal/telemetry"
	"github.com/BaSui01/agentroute/llm"
	"github.com/BaSui01/agentroute/llm/embedding"
	"github.com/BaSui01/agentroute/llm/providers/anthropic"
	"github.com/BaSui01/agentroute/llm/providers/gemini"
	"github.com/BaSui01/agentroute/llm/providers/openai"
	"github.com/BaSui01/agentroute/routing"
	"github.com/BaSui01/agentroute/types"
)

// Engine bundles a configured router and orchestrator.
type Engine struct {
	Router       *routing.Router
	Orchestrator *llm.Orchestrator

	cfg       *config.Config
	logger    *zap.Logger
	redis     *redis.Client
	telemetry *telemetry.Providers
}

// Option configures the engine created by [New].
type Option func(*options)

type options struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	providers  []llm.Provider
	classifier routing.Classifier
	store      routing.RecordStore
	collector  *metrics.Collector
	embedder   cache.Embedder
	useModel   bool
}

// WithConfig supplies a resolved configuration, skipping file and env
// loading.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads configuration from the YAML file (plus env
// overrides). A missing file falls back to defaults.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProvider registers a pre-built model provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.providers = append(o.providers, p) }
}

// WithAnthropic registers the Claude provider. An empty key falls back to
// the ANTHROPIC_API_KEY environment variable.
func WithAnthropic(apiKey string) Option {
	return func(o *options) {
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		o.providers = append(o.providers, anthropic.New(anthropic.Config{APIKey: apiKey}, o.logger))
	}
}

// WithOpenAI registers the GPT-4 provider. An empty key falls back to the
// OPENAI_API_KEY environment variable.
func WithOpenAI(apiKey string) Option {
	return func(o *options) {
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		o.providers = append(o.providers, openai.New(openai.Config{APIKey: apiKey}, o.logger))
	}
}

// WithGemini registers the Gemini provider. An empty key falls back to the
// GEMINI_API_KEY environment variable.
func WithGemini(apiKey string) Option {
	return func(o *options) {
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		o.providers = append(o.providers, gemini.New(gemini.Config{APIKey: apiKey}, o.logger))
	}
}

// WithClassifier overrides the keyword classifier.
func WithClassifier(c routing.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithModelClassifier routes through the orchestrator itself: the model's
// intent picks the target agent. tenant scoping follows the Ask call.
// Tasks routed this way usually carry no pre-computed confidence; set
// Task.InferConfidence so the model's score is used.
func WithModelClassifier() Option {
	return func(o *options) { o.useModel = true }
}

// WithRecordStore overrides the in-memory transfer history store.
func WithRecordStore(s routing.RecordStore) Option {
	return func(o *options) { o.store = s }
}

// WithCollector attaches a metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithEmbedder enables the semantic cache tier with the given embedder.
func WithEmbedder(e cache.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// New builds an engine from the options. Providers named in the configured
// fallback chain but not registered through options are created with API
// keys from the conventional environment variables.
func New(opts ...Option) (*Engine, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if cfg == nil {
		loaded, err := config.NewLoader().WithConfigPath(o.configPath).Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger := o.logger
	if logger == nil {
		built, err := buildLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
		logger = built
	}

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}

	registry := llm.NewRegistry()
	for _, p := range o.providers {
		registry.Register(p)
	}
	for _, name := range cfg.LLM.ProviderOrder {
		if _, ok := registry.Get(name); ok {
			continue
		}
		p, err := defaultProvider(name, logger)
		if err != nil {
			return nil, err
		}
		registry.Register(p)
	}

	var redisClient *redis.Client
	var redisTier *cache.Redis
	if cfg.Cache.EnableRedis && cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		redisTier = cache.NewRedis(redisClient, logger)
	}

	var semanticTier *cache.Semantic
	if cfg.Cache.EnableSemantic {
		embedder := o.embedder
		if embedder == nil {
			embedder = embedding.NewHashing(0)
		}
		semanticTier = cache.NewSemantic(embedder, cfg.Cache.SemanticThreshold, logger)
	}

	tiers := cache.NewMultiTier(cfg.Cache, redisTier, semanticTier, logger)

	orchestrator, err := llm.NewOrchestrator(cfg.LLM, registry, tiers, o.collector, logger)
	if err != nil {
		return nil, err
	}

	store := o.store
	if store == nil && cfg.Database.DSN != "" {
		db, err := database.Open(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		store, err = routing.NewGormStore(db)
		if err != nil {
			return nil, err
		}
	}
	if store == nil && redisClient != nil {
		store = routing.NewRedisStore(redisClient, cfg.Routing.Retention, logger)
	}
	if store == nil {
		store = routing.NewMemoryStore()
	}

	classifier := o.classifier
	if classifier == nil {
		if o.useModel {
			classifier = routing.NewIntentClassifier(func(ctx context.Context, prompt, tenantID string) (*types.ParsedResponse, error) {
				return orchestrator.Ask(ctx, llm.AskRequest{Prompt: prompt, TenantID: tenantID})
			}, "routing", nil)
		} else {
			classifier = routing.NewKeywordClassifier()
		}
	}

	router := routing.NewRouter(cfg.Routing, store, classifier, o.collector, logger)

	return &Engine{
		Router:       router,
		Orchestrator: orchestrator,
		cfg:          cfg,
		logger:       logger,
		redis:        redisClient,
		telemetry:    providers,
	}, nil
}

// Route decides whether the task moves to another agent.
func (e *Engine) Route(ctx context.Context, task types.Task) (types.HandoffDecision, error) {
	return e.Router.Route(ctx, task)
}

// Ask resolves a prompt through caches and the provider chain.
func (e *Engine) Ask(ctx context.Context, prompt, tenantID string) (*types.ParsedResponse, error) {
	return e.Orchestrator.Ask(ctx, llm.AskRequest{Prompt: prompt, TenantID: tenantID})
}

// Config returns the resolved configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Close flushes telemetry and releases the redis connection.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if err := e.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close engine: %v", errs)
	}
	return nil
}

func defaultProvider(name string, logger *zap.Logger) (llm.Provider, error) {
	switch name {
	case "claude":
		return anthropic.New(anthropic.Config{APIKey: os.Getenv("ANTHROPIC_API_KEY")}, logger), nil
	case "gpt4":
		return openai.New(openai.Config{APIKey: os.Getenv("OPENAI_API_KEY")}, logger), nil
	case "gemini":
		return gemini.New(gemini.Config{APIKey: os.Getenv("GEMINI_API_KEY")}, logger), nil
	default:
		return nil, types.NewError(types.ErrConfiguration, "no builtin provider named "+name)
	}
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
