package rules

import (
	"context"
	"fmt"
	"log/slog"

	"ossectail/internal/metrics"
	"ossectail/internal/model"
)

type Store interface {
	LookupRule(ctx context.Context, number int) (int64, bool, error)
	EnsureRule(ctx context.Context, rule model.Rule) (int64, bool, error)
}

// Resolver maps OSSEC rule numbers to stored rule ids, creating rules on
// first sight. Known ids are cached for the life of the resolver.
type Resolver struct {
	store    Store
	counters *metrics.Counters
	logger   *slog.Logger
	known    map[int]int64
}

func NewResolver(store Store, counters *metrics.Counters, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:    store,
		counters: counters,
		logger:   logger,
		known:    make(map[int]int64),
	}
}

func (r *Resolver) Resolve(ctx context.Context, number int) (int64, bool, error) {
	if id, ok := r.known[number]; ok {
		return id, true, nil
	}
	id, ok, err := r.store.LookupRule(ctx, number)
	if err != nil {
		return 0, false, fmt.Errorf("lookup rule %d: %w", number, err)
	}
	if ok {
		r.known[number] = id
	}
	return id, ok, nil
}

// Create stores the rule unless another writer got there first; either way
// the id now on record for rule.Number is returned.
func (r *Resolver) Create(ctx context.Context, rule model.Rule) (int64, error) {
	id, created, err := r.store.EnsureRule(ctx, rule)
	if err != nil {
		return 0, fmt.Errorf("create rule %d: %w", rule.Number, err)
	}
	if created {
		r.counters.RuleCreated()
		if r.logger != nil {
			r.logger.Info("rule created", "rule_number", rule.Number, "rule_id", id, "level", rule.Level)
		}
	}
	r.known[rule.Number] = id
	return id, nil
}
