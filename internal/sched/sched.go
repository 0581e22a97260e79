// Package sched is the scheduling collaborator: it invokes the ingestion
// orchestrator on configured cron cadences. Cadence policy lives here and in
// config, never in the ingestion core.
package sched

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/TobiSchelling/mobnews/internal/crawler"
	"github.com/TobiSchelling/mobnews/internal/ingest"
)

// Runner periodically triggers feed and forum crawl batches.
type Runner struct {
	cron *cron.Cron
}

// New wires the cron entries. feedSpec and forumSpec are standard 5-field
// cron expressions.
func New(ing *ingest.Ingestor, feedSpec, forumSpec string) (*Runner, error) {
	c := cron.New()

	if _, err := c.AddFunc(feedSpec, func() {
		log.Println("Scheduled feed crawl starting")
		stats := ing.RunKind(context.Background(), crawler.KindFeed)
		log.Printf("Scheduled feed crawl complete: %s", stats)
	}); err != nil {
		return nil, fmt.Errorf("invalid feed schedule %q: %w", feedSpec, err)
	}

	if _, err := c.AddFunc(forumSpec, func() {
		log.Println("Scheduled forum crawl starting")
		stats := ing.RunKind(context.Background(), crawler.KindForum)
		log.Printf("Scheduled forum crawl complete: %s", stats)
	}); err != nil {
		return nil, fmt.Errorf("invalid forum schedule %q: %w", forumSpec, err)
	}

	return &Runner{cron: c}, nil
}

// Start begins triggering scheduled crawls. Overlapping runs are allowed:
// URL deduplication makes double-processing a no-op.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for any in-flight run to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
