package crawler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedCrawler fetches one RSS/Atom feed. One generic type covers every feed
// source; differences live in configuration, not subclasses.
type FeedCrawler struct {
	name       string
	sourceName string
	sourceURL  string
	feedURL    string
	category   string
	parser     *gofeed.Parser
}

// NewFeedCrawler creates a feed crawler with its own fetch timeout.
func NewFeedCrawler(name, sourceName, sourceURL, feedURL, category, userAgent string, timeout time.Duration) *FeedCrawler {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = userAgent
	return &FeedCrawler{
		name:       name,
		sourceName: sourceName,
		sourceURL:  sourceURL,
		feedURL:    feedURL,
		category:   category,
		parser:     parser,
	}
}

func (f *FeedCrawler) Name() string       { return f.name }
func (f *FeedCrawler) SourceName() string { return f.sourceName }
func (f *FeedCrawler) SourceURL() string  { return f.sourceURL }
func (f *FeedCrawler) Kind() Kind         { return KindFeed }
func (f *FeedCrawler) Category() string   { return f.category }

// Crawl fetches and parses the feed. A fetch or parse failure yields no items
// and the error for the run log; it is never propagated as a fault.
func (f *FeedCrawler) Crawl(ctx context.Context) ([]Item, error) {
	log.Printf("Crawling feed %s (%s)", f.sourceName, f.feedURL)

	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		log.Printf("Failed to fetch feed %s: %v", f.feedURL, err)
		return nil, err
	}

	var items []Item
	for _, entry := range feed.Items {
		item, ok := f.parseEntry(entry)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	log.Printf("Crawled %d items from %s", len(items), f.sourceName)
	return items, nil
}

func (f *FeedCrawler) parseEntry(entry *gofeed.Item) (Item, bool) {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		log.Printf("Entry from %s missing title, skipping", f.sourceName)
		return Item{}, false
	}

	link := strings.TrimSpace(entry.Link)
	if link == "" {
		log.Printf("Entry %q from %s missing link, skipping", title, f.sourceName)
		return Item{}, false
	}

	published := f.entryTime(entry)

	var summary string
	if entry.Description != "" {
		summary = Truncate(CleanHTML(entry.Description), summaryLimit)
	}

	content := summary
	if entry.Content != "" {
		content = CleanHTML(entry.Content)
	}

	return Item{
		Title:        title,
		URL:          link,
		Published:    published,
		Summary:      summary,
		Content:      content,
		ThumbnailURL: entryThumbnail(entry),
		Tags:         entry.Categories,
	}, true
}

// entryTime resolves the published-or-updated instant, falling back to the
// raw strings and finally to the current time when nothing parses.
func (f *FeedCrawler) entryTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}
	for _, raw := range []string{entry.Published, entry.Updated} {
		if t, ok := ParseTime(raw); ok {
			return t
		}
	}
	return time.Now().UTC()
}

// entryThumbnail returns the first media thumbnail or media content URL, or
// the feed item's own image.
func entryThumbnail(entry *gofeed.Item) string {
	if media, ok := entry.Extensions["media"]; ok {
		for _, key := range []string{"thumbnail", "content"} {
			for _, ext := range media[key] {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}
	if entry.Image != nil {
		return entry.Image.URL
	}
	return ""
}
