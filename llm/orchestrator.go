// Package llm implements the model call path: multi-tier response cache,
// request coalescing, per-provider retries and the provider fallback chain.
package llm

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/BaSui01/agentroute/cache"
	"github.com/BaSui01/agentroute/config"
	"github.com/BaSui01/agentroute/internal/metrics"
	"github.com/BaSui01/agentroute/llm/retry"
	"github.com/BaSui01/agentroute/parser"
	"github.com/BaSui01/agentroute/types"
)

// Metadata keys set on returned responses.
const (
	MetaCacheTier     = "cache_tier"
	MetaCoalesced     = "coalesced"
	MetaProviderError = "provider_error"
)

// AskRequest is a single model call.
type AskRequest struct {
	// Prompt is the full prompt text. Required.
	Prompt string

	// TenantID isolates cache entries between tenants. Tenants never see
	// each other's cached responses, even for identical prompts.
	TenantID string

	// SkipCache bypasses all cache reads. The response is still written
	// through so later calls benefit.
	SkipCache bool
}

func (r *AskRequest) validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return types.NewError(types.ErrValidation, "prompt must not be empty")
	}
	return nil
}

// Orchestrator answers prompts through the cache tiers and the provider
// fallback chain. Every terminal path yields a ParsedResponse: when all
// providers are exhausted the caller gets a degraded "unknown" response, not
// an error. Errors are reserved for malformed requests and misconfiguration.
type Orchestrator struct {
	cfg       config.LLMConfig
	chain     []Provider
	cache     *cache.MultiTier
	retryer   retry.Retryer
	limiters  map[string]*rate.Limiter
	collector *metrics.Collector
	logger    *zap.Logger
	sf        singleflight.Group
}

// NewOrchestrator wires the orchestrator. cacheTiers and collector may be
// nil; the provider order must name at least one registered provider.
func NewOrchestrator(
	cfg config.LLMConfig,
	registry *Registry,
	cacheTiers *cache.MultiTier,
	collector *metrics.Collector,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if len(cfg.ProviderOrder) == 0 {
		return nil, types.NewError(types.ErrConfiguration, "provider order must not be empty")
	}
	chain, err := registry.Resolve(cfg.ProviderOrder)
	if err != nil {
		return nil, types.NewError(types.ErrConfiguration, err.Error())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiters map[string]*rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiters = make(map[string]*rate.Limiter, len(chain))
		for _, p := range chain {
			limiters[p.Name()] = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
		}
	}

	return &Orchestrator{
		cfg:   cfg,
		chain: chain,
		cache: cacheTiers,
		retryer: retry.NewBackoffRetryer(&retry.Policy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Multiplier:  2.0,
			Jitter:      true,
		}, logger),
		limiters:  limiters,
		collector: collector,
		logger:    logger.With(zap.String("component", "orchestrator")),
	}, nil
}

// Ask resolves the prompt to a ParsedResponse. Lookup order: cache tiers
// fastest first, then the provider chain with per-provider retries.
// Concurrent identical requests are coalesced into one upstream call.
func (o *Orchestrator) Ask(ctx context.Context, req AskRequest) (*types.ParsedResponse, error) {
	ctx, span := otel.Tracer("agentroute/llm").Start(ctx, "Orchestrator.Ask")
	defer span.End()

	if err := req.validate(); err != nil {
		return nil, err
	}

	if o.cache != nil && !req.SkipCache {
		if entry, tier, err := o.cache.Get(ctx, req.TenantID, req.Prompt); err == nil {
			o.collector.RecordCacheHit(string(tier))
			span.SetAttributes(attribute.String("cache.tier", string(tier)))
			resp := cloneResponse(entry.Response)
			resp.CacheHit = true
			resp.WithMeta(MetaCacheTier, string(tier))
			return resp, nil
		}
		o.collector.RecordCacheMiss()
	}

	key := cache.Fingerprint(req.TenantID, req.Prompt)
	v, _, shared := o.sf.Do(key, func() (interface{}, error) {
		return o.resolve(ctx, req), nil
	})

	resp := cloneResponse(v.(*types.ParsedResponse))
	if shared {
		resp.WithMeta(MetaCoalesced, "true")
	}
	return resp, nil
}

// resolve walks the provider chain. It always returns a response; total
// exhaustion degrades to intent "unknown" with zero confidence.
func (o *Orchestrator) resolve(ctx context.Context, req AskRequest) *types.ParsedResponse {
	var lastErr error

	for _, provider := range o.chain {
		if ctx.Err() != nil {
			// The caller's deadline has passed; nobody is waiting for the
			// remaining providers.
			o.logger.Warn("abandoning provider chain",
				zap.String("next_provider", provider.Name()),
				zap.Error(ctx.Err()),
			)
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			break
		}

		raw, err := o.callProvider(ctx, provider, req.Prompt)
		if err != nil {
			lastErr = err
			o.logger.Warn("provider failed, falling through",
				zap.String("provider", provider.Name()),
				zap.Bool("retryable", types.IsRetryable(err)),
				zap.Error(err),
			)
			continue
		}

		resp := parser.Parse(raw)
		resp.Provider = provider.Name()
		o.collector.RecordParseStrategy(resp.Metadata["parse_strategy"])

		if o.cache != nil {
			o.cache.Set(ctx, req.TenantID, req.Prompt, &cache.Entry{Response: cloneResponse(resp)})
		}
		return resp
	}

	return o.degraded(lastErr)
}

// callProvider runs one provider through the rate limiter and the retryer,
// bounding each attempt with the configured request timeout.
func (o *Orchestrator) callProvider(ctx context.Context, provider Provider, prompt string) (string, error) {
	if limiter, ok := o.limiters[provider.Name()]; ok {
		if err := limiter.Wait(ctx); err != nil {
			return "", types.NewTransientProviderError(types.ErrRateLimited, provider.Name(), err.Error())
		}
	}

	start := time.Now()
	var raw string
	err := o.retryer.Do(ctx, func() error {
		attemptCtx := ctx
		if o.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, o.cfg.RequestTimeout)
			defer cancel()
		}
		var callErr error
		raw, callErr = provider.Complete(attemptCtx, prompt)
		return callErr
	})

	outcome := "success"
	if err != nil {
		outcome = "fatal_error"
		if types.IsRetryable(err) {
			outcome = "transient_error"
		}
	}
	o.collector.RecordProviderCall(provider.Name(), outcome, time.Since(start))
	return raw, err
}

// degraded builds the all-providers-exhausted response. It is never cached:
// a later call should get a fresh chance at a real answer.
func (o *Orchestrator) degraded(lastErr error) *types.ParsedResponse {
	resp := &types.ParsedResponse{
		Intent:     types.IntentUnknown,
		Confidence: 0.0,
		CreatedAt:  time.Now(),
	}
	if lastErr != nil {
		resp.RawResponse = lastErr.Error()
		resp.WithMeta(MetaProviderError, lastErr.Error())
	}
	o.logger.Error("all providers exhausted", zap.Error(lastErr))
	return resp
}

// CacheStats exposes the cache tier counters, or a zero value when the
// orchestrator runs cacheless.
func (o *Orchestrator) CacheStats() cache.Stats {
	if o.cache == nil {
		return cache.Stats{}
	}
	return o.cache.Stats()
}

func cloneResponse(src *types.ParsedResponse) *types.ParsedResponse {
	if src == nil {
		return nil
	}
	dst := *src
	if src.Entities != nil {
		dst.Entities = make(map[string]any, len(src.Entities))
		for k, v := range src.Entities {
			dst.Entities[k] = v
		}
	}
	if src.Metadata != nil {
		dst.Metadata = make(map[string]string, len(src.Metadata))
		for k, v := range src.Metadata {
			dst.Metadata[k] = v
		}
	}
	return &dst
}
