package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

const defaultRedditBaseURL = "https://www.reddit.com"

var markdown = goldmark.New()

// RedditCrawler fetches hot submissions from one subreddit via Reddit's
// public listing endpoint.
type RedditCrawler struct {
	name      string
	subreddit string
	category  string
	limit     int
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewRedditCrawler creates a subreddit crawler fetching up to limit hot
// submissions per run.
func NewRedditCrawler(name, subreddit, category, userAgent string, limit int, timeout time.Duration) *RedditCrawler {
	if limit <= 0 {
		limit = 25
	}
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &RedditCrawler{
		name:      name,
		subreddit: subreddit,
		category:  category,
		limit:     limit,
		baseURL:   defaultRedditBaseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (r *RedditCrawler) Name() string       { return r.name }
func (r *RedditCrawler) SourceName() string { return fmt.Sprintf("Reddit: r/%s", r.subreddit) }
func (r *RedditCrawler) SourceURL() string  { return fmt.Sprintf("https://reddit.com/r/%s", r.subreddit) }
func (r *RedditCrawler) Kind() Kind         { return KindForum }
func (r *RedditCrawler) Category() string   { return r.category }

// redditListing mirrors the fields we read from /r/<sub>/hot.json.
type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title         string  `json:"title"`
	Permalink     string  `json:"permalink"`
	CreatedUTC    float64 `json:"created_utc"`
	Selftext      string  `json:"selftext"`
	Thumbnail     string  `json:"thumbnail"`
	LinkFlairText string  `json:"link_flair_text"`
}

// Crawl fetches the subreddit's hot listing. Failures yield no items and the
// error for the run log; they never propagate as faults.
func (r *RedditCrawler) Crawl(ctx context.Context) ([]Item, error) {
	log.Printf("Crawling r/%s (limit=%d)", r.subreddit, r.limit)

	url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d&raw_json=1", r.baseURL, r.subreddit, r.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("Failed to fetch r/%s: %v", r.subreddit, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("reddit returned HTTP %d for r/%s", resp.StatusCode, r.subreddit)
		log.Printf("%v", err)
		return nil, err
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		log.Printf("Failed to decode r/%s listing: %v", r.subreddit, err)
		return nil, fmt.Errorf("decoding r/%s listing: %w", r.subreddit, err)
	}

	var items []Item
	for _, child := range listing.Data.Children {
		item, ok := r.parsePost(child.Data)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	log.Printf("Crawled %d posts from r/%s", len(items), r.subreddit)
	return items, nil
}

func (r *RedditCrawler) parsePost(post redditPost) (Item, bool) {
	title := strings.TrimSpace(post.Title)
	if title == "" {
		log.Printf("Post from r/%s missing title, skipping", r.subreddit)
		return Item{}, false
	}
	if post.Permalink == "" {
		log.Printf("Post %q from r/%s missing permalink, skipping", title, r.subreddit)
		return Item{}, false
	}

	// Selftext is markdown; render it and strip the markup so stored content
	// is plain text like every other source.
	var summary, content string
	if post.Selftext != "" {
		content = CleanHTML(renderMarkdown(post.Selftext))
		summary = Truncate(content, summaryLimit)
	}

	// Reddit uses placeholder tokens ("self", "default", "nsfw") for posts
	// without a real preview image.
	var thumbnail string
	if strings.HasPrefix(post.Thumbnail, "http") {
		thumbnail = post.Thumbnail
	}

	var tags []string
	if flair := strings.TrimSpace(post.LinkFlairText); flair != "" {
		tags = append(tags, flair)
	}

	return Item{
		Title:        title,
		URL:          "https://reddit.com" + post.Permalink,
		Published:    time.Unix(int64(post.CreatedUTC), 0).UTC(),
		Summary:      summary,
		Content:      content,
		ThumbnailURL: thumbnail,
		Tags:         tags,
	}, true
}

func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return buf.String()
}
