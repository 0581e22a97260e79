package crawler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/TobiSchelling/mobnews/internal/config"
)

// Registry holds the crawlers built from configuration, keyed by name.
type Registry struct {
	crawlers []Crawler
	byName   map[string]Crawler
}

// NewRegistry builds one crawler per configured source. redditLimit overrides
// the configured hot-listing limit when positive.
func NewRegistry(cfg *config.Config, redditLimit int) *Registry {
	timeout := time.Duration(cfg.Crawl.FetchTimeoutSeconds) * time.Second
	if redditLimit <= 0 {
		redditLimit = cfg.Crawl.RedditLimit
	}

	r := &Registry{byName: make(map[string]Crawler)}

	for _, f := range cfg.Sources.Feeds {
		r.Register(NewFeedCrawler(f.Name, f.Title, f.URL, f.FeedURL, f.Category, cfg.Crawl.UserAgent, timeout))
	}
	for _, s := range cfg.Sources.Subreddits {
		r.Register(NewRedditCrawler(s.Name, s.Subreddit, s.Category, cfg.Crawl.UserAgent, redditLimit, timeout))
	}

	return r
}

// Register adds a crawler under its name, replacing any previous entry with
// the same name.
func (r *Registry) Register(c Crawler) {
	if _, ok := r.byName[c.Name()]; ok {
		for i, existing := range r.crawlers {
			if existing.Name() == c.Name() {
				r.crawlers[i] = c
				break
			}
		}
	} else {
		r.crawlers = append(r.crawlers, c)
	}
	r.byName[c.Name()] = c
}

// ByName returns the crawler registered under name. An unknown name is a
// caller error listing what is available.
func (r *Registry) ByName(name string) (Crawler, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q; available sources: %s", name, strings.Join(r.Names(), ", "))
	}
	return c, nil
}

// ByKind returns all crawlers of one kind, in configuration order.
func (r *Registry) ByKind(kind Kind) []Crawler {
	var out []Crawler
	for _, c := range r.crawlers {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// All returns every registered crawler in configuration order.
func (r *Registry) All() []Crawler {
	return append([]Crawler(nil), r.crawlers...)
}

// Names returns all registry keys, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
