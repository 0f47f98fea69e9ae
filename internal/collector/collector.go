// Package collector implements the per-source ingestion side of the
// pipeline: each configured source runs its own periodic fetch loop,
// normalizes entries to the canonical bus message, filters spam, and
// publishes. Sources share nothing with each other.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"trendstream/internal/config"
	"trendstream/internal/domain"
	"trendstream/internal/metric"
	"trendstream/internal/ports"
	"trendstream/internal/spam"
)

// maxSeenLinks bounds the local recently-sent set. When the cap is hit the
// set is cleared in full; the store consumer's link uniqueness remains the
// authoritative dedupe.
const maxSeenLinks = 1000

// Source fetches the current item list of one external feed, already
// normalized to canonical messages.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Message, error)
}

// Factory builds a source from its config entry.
type Factory func(cfg config.SourceConfig, client *http.Client) Source

// Registry maps collector strategy names to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a strategy factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Resolve returns a factory by strategy name or an error if it is absent.
func (r *Registry) Resolve(name string) (Factory, error) {
	if f, ok := r.factories[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("collector %s is not registered", name)
}

// DefaultRegistry registers all built-in source strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("hackernews", NewHackerNews)
	r.Register("rss", NewRSS)
	r.Register("lobsters", NewLobsters)
	r.Register("geeknews", NewGeekNews)
	return r
}

// Runner owns the periodic loop for one source.
type Runner struct {
	source   Source
	bus      ports.Bus
	interval time.Duration
	logger   *slog.Logger
	metrics  *metric.Metrics

	seen map[string]struct{}
}

// NewRunner wires a source to the bus.
func NewRunner(source Source, bus ports.Bus, interval time.Duration, logger *slog.Logger, metrics *metric.Metrics) *Runner {
	return &Runner{
		source:   source,
		bus:      bus,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		seen:     map[string]struct{}{},
	}
}

// Start launches the fetch loop. The first tick runs immediately; every
// failure is confined to its tick and the next one proceeds independently.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

func (r *Runner) tick(ctx context.Context) {
	msgs, err := r.source.Fetch(ctx)
	if err != nil {
		r.logger.Warn("fetch failed, skipping tick", "source", r.source.Name(), "error", err)
		return
	}

	published := 0
	for _, msg := range msgs {
		if msg.Link == "" || msg.Title == "" {
			continue
		}

		if _, ok := r.seen[msg.Link]; ok {
			continue
		}

		if reason := spam.Reason(msg.Title, msg.Description); reason != "" {
			r.logger.Debug("spam filtered", "source", r.source.Name(), "title", msg.Title, "reason", reason)
			continue
		}

		if err := r.bus.Publish(ctx, msg); err != nil {
			r.logger.Warn("publish failed", "source", r.source.Name(), "link", msg.Link, "error", err)
			continue
		}

		r.markSeen(msg.Link)
		if r.metrics != nil {
			r.metrics.Published.WithLabelValues(msg.Source).Inc()
		}
		published++
	}

	if published > 0 {
		r.logger.Info("tick published", "source", r.source.Name(), "count", published)
	} else {
		r.logger.Debug("tick produced nothing new", "source", r.source.Name())
	}
}

func (r *Runner) markSeen(link string) {
	if len(r.seen) >= maxSeenLinks {
		r.seen = map[string]struct{}{}
	}
	r.seen[link] = struct{}{}
}
