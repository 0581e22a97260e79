package store

import "time"

// Source kinds. Feed covers RSS/Atom blogs; forum covers Reddit-style sources.
const (
	SourceKindFeed  = "feed"
	SourceKindForum = "forum"
)

// Crawl log statuses.
const (
	CrawlStatusSuccess = "success"
	CrawlStatusFailed  = "failed"
)

// Category is a persisted article category. Keyword sets live in config,
// not here.
type Category struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
}

// Source is a crawled publication or forum, created lazily on first crawl.
type Source struct {
	ID            int64
	Name          string
	URL           string
	Kind          string
	CategoryID    int64
	LastCrawledAt *time.Time
	CreatedAt     time.Time
}

// Article is a persisted news article. URL is the deduplication key.
type Article struct {
	ID             int64
	Title          string
	Summary        string
	Content        string
	URL            string
	ThumbnailURL   string
	CategoryID     int64
	SourceID       int64
	PublishedAt    time.Time
	LikeCount      int
	CommentCount   int
	ContentFetched bool
	CreatedAt      time.Time
}

// Tag is a label attached to articles, unique by slug.
type Tag struct {
	ID   int64
	Name string
	Slug string
}

// CrawlLog records the outcome of one crawl run against one source.
// Rows are append-only.
type CrawlLog struct {
	ID            int64
	SourceID      int64
	Status        string
	ArticlesFound int
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Comment is a reader comment on an article.
type Comment struct {
	ID        int64
	ArticleID int64
	Author    string
	Body      string
	CreatedAt time.Time
}

// SourceStatus is a source joined with its most recent crawl log.
type SourceStatus struct {
	Source
	CategorySlug  string
	LastStatus    string
	LastError     string
	LastFound     int
	LastStartedAt *time.Time
}

// Stats contains aggregate database statistics.
type Stats struct {
	Categories int
	Sources    int
	Articles   int
	Tags       int
	Comments   int
}
