package routing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BaSui01/agentroute/config"
	"github.com/BaSui01/agentroute/internal/metrics"
	"github.com/BaSui01/agentroute/types"
)

// Router evaluates handoff decisions. Decisions for the same contact run
// serially; different contacts proceed in parallel.
type Router struct {
	cfg        config.RoutingConfig
	store      RecordStore
	classifier Classifier
	policy     *ThresholdPolicy
	collector  *metrics.Collector
	logger     *zap.Logger
	locks      keyedMutex
	now        func() time.Time
}

// NewRouter wires the router. store and classifier are required; collector
// may be nil.
func NewRouter(
	cfg config.RoutingConfig,
	store RecordStore,
	classifier Classifier,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:        cfg,
		store:      store,
		classifier: classifier,
		policy:     NewThresholdPolicy(cfg),
		collector:  collector,
		logger:     logger.With(zap.String("component", "router")),
		now:        time.Now,
	}
}

// Route decides whether the task moves to another agent. Stay outcomes are
// reported through the decision's reason code, never as errors; an error
// means the task was malformed or the record store failed.
func (r *Router) Route(ctx context.Context, task types.Task) (types.HandoffDecision, error) {
	start := time.Now()
	ctx, span := otel.Tracer("agentroute/routing").Start(ctx, "Router.Route")
	defer span.End()

	if err := task.Validate(); err != nil {
		return types.HandoffDecision{}, err
	}

	unlock := r.locks.lock(task.ContactID)
	defer unlock()

	decision, err := r.decide(ctx, task)
	if err != nil {
		return types.HandoffDecision{}, err
	}

	span.SetAttributes(
		attribute.String("routing.reason", string(decision.Reason)),
		attribute.Bool("routing.transfer", decision.Transfer),
	)
	r.collector.RecordDecision(string(decision.Reason), time.Since(start))
	if decision.Transfer {
		r.logger.Info("transferring contact",
			zap.String("contact_id", task.ContactID),
			zap.String("from", string(task.CurrentAgent)),
			zap.String("to", string(decision.TargetAgent)),
			zap.Float64("confidence", decision.Confidence),
		)
	} else {
		r.logger.Debug("keeping contact",
			zap.String("contact_id", task.ContactID),
			zap.String("agent", string(task.CurrentAgent)),
			zap.String("reason", string(decision.Reason)),
		)
	}
	return decision, nil
}

func (r *Router) decide(ctx context.Context, task types.Task) (types.HandoffDecision, error) {
	now := r.now()

	target, classifierConf, err := r.classifier.Classify(ctx, task.Content)
	if err != nil {
		// Without a target proposal there is nothing to transfer to.
		r.logger.Warn("classifier failed, keeping current agent",
			zap.String("contact_id", task.ContactID),
			zap.Error(err),
		)
		return types.Stay(task.CurrentAgent, types.ReasonLowConfidence, 0), nil
	}

	confidence := task.Confidence
	if task.InferConfidence {
		confidence = classifierConf
	}

	if target == "" || target == task.CurrentAgent {
		return types.Stay(task.CurrentAgent, types.ReasonSameAgent, confidence), nil
	}

	history, err := r.store.RecentByContact(ctx, task.ContactID, now.Add(-r.cfg.Retention))
	if err != nil {
		return types.HandoffDecision{}, err
	}

	if confidence < r.policy.Threshold(now, history) {
		return types.Stay(task.CurrentAgent, types.ReasonLowConfidence, confidence), nil
	}

	if r.inCooldown(now, history, task.CurrentAgent, target) {
		return types.Stay(task.CurrentAgent, types.ReasonCooldown, confidence), nil
	}

	if reason, limited := r.rateLimited(now, history); limited {
		return types.Stay(task.CurrentAgent, reason, confidence), nil
	}

	rec := &types.HandoffRecord{
		ID:          uuid.NewString(),
		ContactID:   task.ContactID,
		SourceAgent: task.CurrentAgent,
		TargetAgent: target,
		Timestamp:   now,
	}
	if err := r.store.Append(ctx, rec); err != nil {
		return types.HandoffDecision{}, err
	}
	if err := r.store.Prune(ctx, now.Add(-r.cfg.Retention)); err != nil {
		r.logger.Warn("prune failed", zap.Error(err))
	}

	decision := types.Transfer(target, confidence)
	decision.DecidedAt = now
	return decision, nil
}

// inCooldown reports whether the same-direction transfer happened within
// the cooldown window. The reverse direction is a distinct key and is not
// blocked by this transfer.
func (r *Router) inCooldown(now time.Time, history []types.HandoffRecord, source, target types.AgentType) bool {
	cutoff := now.Add(-r.cfg.Cooldown)
	for i := len(history) - 1; i >= 0; i-- {
		rec := history[i]
		if rec.Timestamp.Before(cutoff) {
			break // history is oldest-first
		}
		if rec.SourceAgent == source && rec.TargetAgent == target {
			return true
		}
	}
	return false
}

// rateLimited applies the hourly and daily transfer caps for the contact.
func (r *Router) rateLimited(now time.Time, history []types.HandoffRecord) (types.DecisionReason, bool) {
	var lastHour, lastDay int
	hourCutoff := now.Add(-time.Hour)
	dayCutoff := now.Add(-24 * time.Hour)

	for _, rec := range history {
		if !rec.Timestamp.Before(dayCutoff) {
			lastDay++
		}
		if !rec.Timestamp.Before(hourCutoff) {
			lastHour++
		}
	}

	if r.cfg.MaxHandoffsPerHour > 0 && lastHour >= r.cfg.MaxHandoffsPerHour {
		return types.ReasonRateLimited, true
	}
	if r.cfg.MaxHandoffsPerDay > 0 && lastDay >= r.cfg.MaxHandoffsPerDay {
		return types.ReasonRateLimited, true
	}
	return "", false
}

// keyedMutex serializes work per key while letting distinct keys proceed
// concurrently. Entries are reference counted and removed when idle, so the
// map does not grow with the contact population.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
