// Package ingest drives crawlers through normalization, categorization,
// deduplication and persistence, producing per-run statistics and crawl logs.
package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/TobiSchelling/mobnews/internal/categorize"
	"github.com/TobiSchelling/mobnews/internal/crawler"
	"github.com/TobiSchelling/mobnews/internal/store"
)

// Stats accumulates per-item outcomes across one or more sources.
type Stats struct {
	Total   int
	Created int
	Skipped int
	Errors  int

	// FallbackArbitrary counts items that could be assigned neither their
	// keyword-scored category nor the configured fallback and landed on an
	// arbitrary persisted category. Nonzero values indicate a seeding problem.
	FallbackArbitrary int
}

// Add accumulates another source's stats into s.
func (s *Stats) Add(o Stats) {
	s.Total += o.Total
	s.Created += o.Created
	s.Skipped += o.Skipped
	s.Errors += o.Errors
	s.FallbackArbitrary += o.FallbackArbitrary
}

func (s Stats) String() string {
	return fmt.Sprintf("%d created, %d skipped, %d errors (total: %d)", s.Created, s.Skipped, s.Errors, s.Total)
}

// Ingestor orchestrates crawl runs: fetch, per-item persist, source stamping
// and crawl logging.
type Ingestor struct {
	store        *store.Store
	categorizer  *categorize.Categorizer
	registry     *crawler.Registry
	fallbackSlug string
}

// New creates an Ingestor. fallbackSlug is the category used when a source's
// own default category is missing from the database.
func New(st *store.Store, cat *categorize.Categorizer, reg *crawler.Registry, fallbackSlug string) *Ingestor {
	return &Ingestor{
		store:        st,
		categorizer:  cat,
		registry:     reg,
		fallbackSlug: fallbackSlug,
	}
}

// RunSource crawls a single named source. An unknown name is a caller error,
// returned immediately.
func (ing *Ingestor) RunSource(ctx context.Context, name string) (Stats, error) {
	c, err := ing.registry.ByName(name)
	if err != nil {
		return Stats{}, err
	}
	return ing.runCrawler(ctx, c), nil
}

// RunKind crawls every source of one kind, summing statistics. A failure in
// one source never aborts the batch.
func (ing *Ingestor) RunKind(ctx context.Context, kind crawler.Kind) Stats {
	return ing.runBatch(ctx, ing.registry.ByKind(kind))
}

// RunAll crawls every configured source.
func (ing *Ingestor) RunAll(ctx context.Context) Stats {
	return ing.runBatch(ctx, ing.registry.All())
}

func (ing *Ingestor) runBatch(ctx context.Context, crawlers []crawler.Crawler) Stats {
	var total Stats
	for _, c := range crawlers {
		total.Add(ing.runCrawler(ctx, c))
	}
	log.Printf("Batch complete: %s", total)
	return total
}

// runCrawler executes one source run: Fetching, Processing, Finalizing.
// All failures are absorbed here; the caller only ever sees statistics.
func (ing *Ingestor) runCrawler(ctx context.Context, c crawler.Crawler) Stats {
	started := time.Now().UTC()

	items, fetchErr := c.Crawl(ctx)

	stats := Stats{Total: len(items)}

	src, err := ing.resolveSource(c)
	if err != nil {
		// Without a source row there is nothing to stamp or log against.
		log.Printf("Failed to resolve source %s: %v", c.SourceName(), err)
		stats.Errors = len(items)
		return stats
	}

	for _, item := range items {
		created, arbitrary, err := ing.persistItem(item, src, c.Category())
		switch {
		case err != nil:
			log.Printf("Error saving %q (%s): %v", item.Title, item.URL, err)
			stats.Errors++
		case created:
			stats.Created++
		default:
			stats.Skipped++
		}
		if arbitrary {
			stats.FallbackArbitrary++
		}
	}

	finished := time.Now().UTC()

	// The stamp is unconditional: a failed or empty run still counts as an
	// attempt.
	if err := ing.store.TouchSourceCrawled(src.ID, finished); err != nil {
		log.Printf("Failed to stamp source %s: %v", c.SourceName(), err)
	}

	status := store.CrawlStatusSuccess
	errMsg := ""
	if fetchErr != nil {
		status = store.CrawlStatusFailed
		errMsg = fetchErr.Error()
	}
	if _, err := ing.store.InsertCrawlLog(src.ID, status, len(items), errMsg, started, finished); err != nil {
		log.Printf("Failed to write crawl log for %s: %v", c.SourceName(), err)
	}

	log.Printf("Processed %d items from %s: %s", stats.Total, c.SourceName(), stats)
	return stats
}

// persistItem saves one normalized item: dedup check, categorization, title
// truncation, tag capping, then a single transactional insert.
func (ing *Ingestor) persistItem(item crawler.Item, src *store.Source, fallbackSlug string) (created, arbitrary bool, err error) {
	exists, err := ing.store.ArticleExistsByURL(item.URL)
	if err != nil {
		return false, false, err
	}
	if exists {
		return false, false, nil
	}

	category, arbitrary, err := ing.categorize(item, fallbackSlug)
	if err != nil {
		return false, false, err
	}

	published := item.Published
	if published.IsZero() {
		published = time.Now().UTC()
	}

	article := &store.Article{
		Title:          truncateRunes(item.Title, 500),
		Summary:        item.Summary,
		Content:        item.Content,
		URL:            item.URL,
		ThumbnailURL:   item.ThumbnailURL,
		CategoryID:     category.ID,
		SourceID:       src.ID,
		PublishedAt:    published,
		ContentFetched: item.Content != "",
	}

	if _, err := ing.store.CreateArticle(article, validTags(item.Tags)); err != nil {
		return false, arbitrary, err
	}
	return true, arbitrary, nil
}

// categorize resolves an item's category: keyword winner, then the
// caller-supplied fallback slug, then the configured fallback, then — as a
// documented last resort — any persisted category.
func (ing *Ingestor) categorize(item crawler.Item, fallbackSlug string) (*store.Category, bool, error) {
	text := item.Title + " " + item.Summary + " " + item.Content

	if slug, ok := ing.categorizer.Best(text); ok {
		category, err := ing.store.GetCategoryBySlug(slug)
		if err != nil {
			return nil, false, err
		}
		if category != nil {
			return category, false, nil
		}
		log.Printf("Scored category %q not in database, falling back", slug)
	}

	return ing.fallbackCategory(fallbackSlug)
}

// fallbackCategory walks the fallback chain for a missing or unscored
// category.
func (ing *Ingestor) fallbackCategory(slug string) (*store.Category, bool, error) {
	for _, s := range []string{slug, ing.fallbackSlug} {
		if s == "" {
			continue
		}
		category, err := ing.store.GetCategoryBySlug(s)
		if err != nil {
			return nil, false, err
		}
		if category != nil {
			return category, false, nil
		}
	}

	category, err := ing.store.FirstCategory()
	if err != nil {
		return nil, false, err
	}
	if category == nil {
		return nil, false, fmt.Errorf("no category %q and no fallback category in database", slug)
	}
	log.Printf("Category %q missing, using arbitrary category %q", slug, category.Slug)
	return category, true, nil
}

// resolveSource get-or-creates the crawler's source row. The source kind is
// derived from the URL shape on creation.
func (ing *Ingestor) resolveSource(c crawler.Crawler) (*store.Source, error) {
	category, _, err := ing.fallbackCategory(c.Category())
	if err != nil {
		return nil, err
	}

	src, created, err := ing.store.GetOrCreateSource(c.SourceName(), c.SourceURL(), sourceKind(c.SourceURL()), category.ID)
	if err != nil {
		return nil, err
	}
	if created {
		log.Printf("Created new source: %s", c.SourceName())
	}
	return src, nil
}

func sourceKind(url string) string {
	if strings.Contains(url, "reddit.com") {
		return store.SourceKindForum
	}
	return store.SourceKindFeed
}

// validTags trims tags, drops empty or overlong ones and caps the result at
// ten.
func validTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || len(tag) > 100 {
			continue
		}
		out = append(out, tag)
		if len(out) == 10 {
			break
		}
	}
	return out
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
