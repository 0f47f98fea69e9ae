// Package enrich runs the background enrichment loop: it drains stored
// records that still lack a real analysis, sends them to the configured
// provider in small batches, and writes summaries and tags back.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trendstream/internal/domain"
	"trendstream/internal/metric"
	"trendstream/internal/ports"
)

// Scheduler drives enrichment with a fixed delay between runs: the next run
// starts its wait only after the previous one finished, so runs never
// overlap however long a provider call takes.
type Scheduler struct {
	news     ports.NewsRepository
	tags     ports.TagRepository
	analyzer ports.Analyzer

	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *metric.Metrics
}

// NewScheduler wires the enrichment loop.
func NewScheduler(
	news ports.NewsRepository,
	tags ports.TagRepository,
	analyzer ports.Analyzer,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
	metrics *metric.Metrics,
) *Scheduler {
	return &Scheduler{
		news:      news,
		tags:      tags,
		analyzer:  analyzer,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start launches the loop until the context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(s.interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := s.RunOnce(ctx); err != nil {
				s.logger.Warn("enrichment run failed", "error", err)
			}

			timer.Reset(s.interval)
		}
	}()
}

// RunOnce selects and enriches a single batch. Records with no enrichment
// at all come first; only when none remain are earlier failures retried.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	batch, err := s.news.SelectUnenriched(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("select unenriched: %w", err)
	}
	if len(batch) == 0 {
		batch, err = s.news.SelectFailedEnrichment(ctx, s.batchSize)
		if err != nil {
			return fmt.Errorf("select failed enrichment: %w", err)
		}
	}
	if len(batch) == 0 {
		return nil
	}

	items := make([]domain.AnalysisItem, len(batch))
	for i, rec := range batch {
		items[i] = domain.AnalysisItem{Title: rec.Title, Description: rec.Description}
	}

	results := s.analyzer.AnalyzeBatch(ctx, items)

	enriched, failed := 0, 0
	for i := range batch {
		rec := batch[i]
		result := results[i]
		rec.Enrichment = &result

		if err := s.news.Update(ctx, rec); err != nil {
			s.logger.Warn("record update failed", "id", rec.ID, "error", err)
			continue
		}

		if result.Failed() {
			failed++
			continue
		}

		s.recordTags(ctx, rec.ID, result.Keywords)
		enriched++
	}

	if s.metrics != nil {
		s.metrics.Enriched.Add(float64(enriched))
		s.metrics.EnrichFailed.Add(float64(failed))
	}
	s.logger.Info("enrichment run finished", "enriched", enriched, "failed", failed)
	return nil
}

// recordTags normalizes each keyword and links the record to it. A single
// broken tag never blocks the rest.
func (s *Scheduler) recordTags(ctx context.Context, recordID int64, keywords []string) {
	for _, kw := range keywords {
		name := domain.NormalizeTag(kw)
		if name == "" {
			continue
		}

		tagID, err := s.tags.FindOrCreate(ctx, name)
		if err != nil {
			s.logger.Warn("tag upsert failed", "tag", name, "error", err)
			continue
		}
		if err := s.tags.LinkRecord(ctx, recordID, tagID); err != nil {
			s.logger.Warn("tag link failed", "tag", name, "record", recordID, "error", err)
		}
	}
}
