// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest drives one crawl-and-download run. Work is strictly
// sequential: the source is a public institution's website and the inter
// request delays are part of the contract with it, not an optimization
// opportunity.
package harvest

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/gpc-harvester/internal/catalog"
	"github.com/pdiddy/gpc-harvester/internal/crawl"
	"github.com/pdiddy/gpc-harvester/internal/download"
	"github.com/pdiddy/gpc-harvester/pkg/types"
)

// Runner wires the crawler and download manager into one pipeline.
type Runner struct {
	crawler *crawl.Crawler
	manager *download.Manager

	// catalog records successful downloads; nil disables recording.
	catalog *catalog.Store

	delay time.Duration
	log   *zap.Logger
}

// New builds a Runner. cat may be nil.
func New(crawler *crawl.Crawler, manager *download.Manager, cat *catalog.Store, delay time.Duration, log *zap.Logger) *Runner {
	return &Runner{crawler: crawler, manager: manager, catalog: cat, delay: delay, log: log}
}

// Run crawls the listing and downloads every discovered guideline,
// waiting the configured delay between documents. Individual download
// failures are counted, never fatal; only an unreachable first listing
// page aborts the run. The returned stats are valid either way.
func (r *Runner) Run(ctx context.Context) (types.RunStats, error) {
	var stats types.RunStats
	start := time.Now()

	r.log.Info("starting harvest")

	guidelines, err := r.crawler.Run(ctx, &stats)
	if err != nil {
		return stats, err
	}
	stats.DocumentsFound = len(guidelines)
	r.log.Info("crawl complete",
		zap.Int("pages_visited", stats.PagesVisited),
		zap.Int("documents_found", stats.DocumentsFound))

	for i, g := range guidelines {
		if i > 0 && r.delay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(r.delay):
			}
		}

		outcome, err := r.manager.Download(ctx, g)
		switch outcome {
		case download.OutcomeDownloaded:
			stats.Downloaded++
			r.record(ctx, g)
		case download.OutcomeSkipped:
			stats.Skipped++
		case download.OutcomeFailed:
			stats.Failed++
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			_ = err // already logged at the download boundary
		}
	}

	r.log.Info("harvest complete",
		zap.Int("pages_visited", stats.PagesVisited),
		zap.Int("documents_found", stats.DocumentsFound),
		zap.Int("downloaded", stats.Downloaded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	return stats, nil
}

// record stores a completed download in the catalog. Catalog trouble is
// reported but never fails the document.
func (r *Runner) record(ctx context.Context, g *types.Guideline) {
	if r.catalog == nil {
		return
	}

	path := r.manager.Path(g)
	var size int64
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}

	err := r.catalog.Record(ctx, catalog.Entry{
		LocalName: g.LocalName,
		GuideID:   g.GuideID,
		Title:     g.Title,
		SourceURL: g.SourceURL,
		FilePath:  path,
		SizeBytes: size,
	})
	if err != nil {
		r.log.Warn("catalog record failed",
			zap.String("file", g.LocalName), zap.Error(err))
	}
}
