package crawler

import (
	"context"
	"time"
)

// Item is the normalized shape every adapter's raw output is converted into
// before categorization and persistence. It lives only for the duration of
// one ingestion run.
type Item struct {
	Title        string
	URL          string // canonical URL, the dedup key
	Published    time.Time
	Summary      string // plain text, truncated
	Content      string // plain text, falls back to Summary
	ThumbnailURL string
	Tags         []string
}

// Kind distinguishes adapter families.
type Kind string

const (
	KindFeed  Kind = "feed"
	KindForum Kind = "forum"
)

// Crawler fetches one external source and yields normalized items.
//
// Crawl absorbs all fetch and parse failures: it never panics, and a returned
// error means the fetch produced nothing — the error text is recorded in the
// run log but is not propagated further. Per-entry problems (missing title or
// link) are logged and the entry skipped without failing the run.
type Crawler interface {
	Name() string       // registry key, e.g. "android" or "reddit-androiddev"
	SourceName() string // display name, e.g. "Android Developers Blog"
	SourceURL() string  // canonical source URL, unique per source
	Kind() Kind
	Category() string // default category slug for items that match no keywords
	Crawl(ctx context.Context) ([]Item, error)
}
