package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/mobnews/internal/categorize"
	"github.com/TobiSchelling/mobnews/internal/config"
	"github.com/TobiSchelling/mobnews/internal/crawler"
	"github.com/TobiSchelling/mobnews/internal/store"
)

// fakeCrawler returns canned items, or an error, without touching the
// network.
type fakeCrawler struct {
	name      string
	sourceURL string
	kind      crawler.Kind
	category  string
	items     []crawler.Item
	err       error
}

func (f *fakeCrawler) Name() string       { return f.name }
func (f *fakeCrawler) SourceName() string { return "Fake: " + f.name }
func (f *fakeCrawler) SourceURL() string  { return f.sourceURL }
func (f *fakeCrawler) Kind() crawler.Kind { return f.kind }
func (f *fakeCrawler) Category() string   { return f.category }

func (f *fakeCrawler) Crawl(ctx context.Context) ([]crawler.Item, error) {
	return f.items, f.err
}

func testItems(n int) []crawler.Item {
	items := make([]crawler.Item, n)
	for i := range items {
		items[i] = crawler.Item{
			Title:     "Kotlin tip #" + string(rune('a'+i)),
			URL:       "https://example.com/post-" + string(rune('a'+i)),
			Published: time.Date(2026, 2, 1, i, 0, 0, 0, time.UTC),
			Summary:   "a short kotlin summary",
		}
	}
	return items
}

type fixture struct {
	store    *store.Store
	registry *crawler.Registry
	ingestor *Ingestor
}

// newFixture opens a fresh store with the standard categories seeded and an
// empty registry ready for fakes.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cats := []config.Category{
		{Name: "Android", Slug: "android", Keywords: []string{"android", "kotlin", "jetpack", "compose", "gradle"}},
		{Name: "iOS", Slug: "ios", Keywords: []string{"ios", "swift", "swiftui", "xcode"}},
		{Name: "Flutter", Slug: "flutter", Keywords: []string{"flutter", "dart", "widget"}},
		{Name: "Cross-Platform", Slug: "cross-platform", Keywords: []string{"cross-platform", "multiplatform"}},
	}
	for _, c := range cats {
		if _, err := st.InsertCategory(c.Name, c.Slug, ""); err != nil {
			t.Fatalf("InsertCategory: %v", err)
		}
	}

	reg := crawler.NewRegistry(&config.Config{}, 0)
	return &fixture{
		store:    st,
		registry: reg,
		ingestor: New(st, categorize.New(cats), reg, "cross-platform"),
	}
}

func (fx *fixture) register(t *testing.T, fake *fakeCrawler) {
	t.Helper()
	if fake.sourceURL == "" {
		fake.sourceURL = "https://example.com/" + fake.name
	}
	if fake.kind == "" {
		fake.kind = crawler.KindFeed
	}
	fx.registry.Register(fake)
}

func TestRunSourceCreatesArticles(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, &fakeCrawler{name: "blog", category: "android", items: testItems(3)})

	stats, err := fx.ingestor.RunSource(context.Background(), "blog")
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if stats.Total != 3 || stats.Created != 3 || stats.Skipped != 0 || stats.Errors != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}

	dbStats, err := fx.store.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if dbStats.Articles != 3 {
		t.Errorf("expected 3 articles, got %d", dbStats.Articles)
	}
	if dbStats.Sources != 1 {
		t.Errorf("expected 1 source, got %d", dbStats.Sources)
	}

	statuses, err := fx.store.ListSourceStatuses()
	if err != nil {
		t.Fatalf("ListSourceStatuses: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("expected 1 source status, got %d", len(statuses))
	}
	src := statuses[0]
	if src.Name != "Fake: blog" {
		t.Errorf("unexpected source name %q", src.Name)
	}
	if src.LastCrawledAt == nil {
		t.Error("expected last_crawled_at stamped")
	}
	if src.LastStatus != store.CrawlStatusSuccess {
		t.Errorf("expected success log, got %q", src.LastStatus)
	}
	if src.LastFound != 3 {
		t.Errorf("expected 3 found in log, got %d", src.LastFound)
	}
}

func TestRunSourceIdempotent(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, &fakeCrawler{name: "blog", category: "android", items: testItems(3)})

	if _, err := fx.ingestor.RunSource(context.Background(), "blog"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stats, err := fx.ingestor.RunSource(context.Background(), "blog")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Created != 0 || stats.Skipped != 3 || stats.Errors != 0 {
		t.Errorf("expected full skip on rerun, got %+v", stats)
	}

	dbStats, _ := fx.store.GetStats()
	if dbStats.Articles != 3 {
		t.Errorf("expected article count unchanged, got %d", dbStats.Articles)
	}
}

func TestRunSourcePartialOverlap(t *testing.T) {
	fx := newFixture(t)
	first := &fakeCrawler{name: "blog", category: "android", items: testItems(2)}
	fx.register(t, first)

	if _, err := fx.ingestor.RunSource(context.Background(), "blog"); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// One old item plus two new ones.
	first.items = append(testItems(1), crawler.Item{
		Title: "fresh one", URL: "https://example.com/fresh-1", Summary: "kotlin",
	}, crawler.Item{
		Title: "fresh two", URL: "https://example.com/fresh-2", Summary: "kotlin",
	})

	stats, err := fx.ingestor.RunSource(context.Background(), "blog")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Created != 2 || stats.Skipped != 1 || stats.Errors != 0 {
		t.Errorf("expected 2 created 1 skipped, got %+v", stats)
	}
}

func TestRunSourceDuplicateURLWithinBatch(t *testing.T) {
	fx := newFixture(t)
	items := []crawler.Item{
		{Title: "first title", URL: "https://example.com/same", Summary: "kotlin"},
		{Title: "different title, same page", URL: "https://example.com/same", Summary: "swift"},
	}
	fx.register(t, &fakeCrawler{name: "blog", category: "android", items: items})

	stats, err := fx.ingestor.RunSource(context.Background(), "blog")
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if stats.Created != 1 || stats.Skipped != 1 {
		t.Errorf("expected second occurrence skipped, got %+v", stats)
	}

	articles, total, err := fx.store.ListArticles(1, 10, "")
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 article, got %d", total)
	}
	if articles[0].Title != "first title" {
		t.Errorf("expected first occurrence to win, got %q", articles[0].Title)
	}
}

func TestRunSourceTruncatesLongTitle(t *testing.T) {
	fx := newFixture(t)
	long := strings.Repeat("x", 600)
	fx.register(t, &fakeCrawler{name: "blog", category: "android", items: []crawler.Item{
		{Title: long, URL: "https://example.com/long", Summary: "kotlin"},
	}})

	if _, err := fx.ingestor.RunSource(context.Background(), "blog"); err != nil {
		t.Fatalf("RunSource: %v", err)
	}

	articles, _, err := fx.store.ListArticles(1, 1, "")
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if got := len([]rune(articles[0].Title)); got != 500 {
		t.Errorf("expected title capped at 500 runes, got %d", got)
	}
}

func TestRunSourceCapsTags(t *testing.T) {
	fx := newFixture(t)
	tags := []string{"", "   ", strings.Repeat("y", 101)}
	for i := 0; i < 15; i++ {
		tags = append(tags, "tag-"+string(rune('a'+i)))
	}

	fx.register(t, &fakeCrawler{name: "blog", category: "android", items: []crawler.Item{
		{Title: "tagged", URL: "https://example.com/tagged", Summary: "kotlin", Tags: tags},
	}})

	if _, err := fx.ingestor.RunSource(context.Background(), "blog"); err != nil {
		t.Fatalf("RunSource: %v", err)
	}

	articles, _, err := fx.store.ListArticles(1, 1, "")
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	got, err := fx.store.GetArticleTags(articles[0].ID)
	if err != nil {
		t.Fatalf("GetArticleTags: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("expected tag cap of 10, got %d", len(got))
	}
}

func TestRunSourceKeywordCategorization(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, &fakeCrawler{name: "blog", category: "android", items: []crawler.Item{
		{Title: "SwiftUI and Xcode tricks", URL: "https://example.com/ios-post", Summary: "some swift content"},
	}})

	if _, err := fx.ingestor.RunSource(context.Background(), "blog"); err != nil {
		t.Fatalf("RunSource: %v", err)
	}

	// Keyword score overrides the source's default category.
	_, total, err := fx.store.ListArticles(1, 10, "ios")
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if total != 1 {
		t.Errorf("expected article filed under ios, got %d there", total)
	}
}

func TestRunSourceFallbackToSourceCategory(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, &fakeCrawler{name: "blog", category: "flutter", items: []crawler.Item{
		{Title: "An unrelated announcement", URL: "https://example.com/misc", Summary: "nothing mobile here"},
	}})

	stats, err := fx.ingestor.RunSource(context.Background(), "blog")
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if stats.FallbackArbitrary != 0 {
		t.Errorf("expected clean fallback, got %+v", stats)
	}

	_, total, err := fx.store.ListArticles(1, 10, "flutter")
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if total != 1 {
		t.Errorf("expected article filed under source default flutter, got %d there", total)
	}
}

func TestRunSourceArbitraryFallbackCounted(t *testing.T) {
	fx := newFixture(t)
	// Source category and configured fallback both missing from the database.
	fx.ingestor = New(fx.store, categorize.New(nil), fx.registry, "missing-too")
	fx.register(t, &fakeCrawler{name: "blog", category: "missing", items: []crawler.Item{
		{Title: "post", URL: "https://example.com/p", Summary: "text"},
	}})

	stats, err := fx.ingestor.RunSource(context.Background(), "blog")
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if stats.Created != 1 {
		t.Fatalf("expected article created via arbitrary fallback, got %+v", stats)
	}
	if stats.FallbackArbitrary != 1 {
		t.Errorf("expected arbitrary fallback counted, got %+v", stats)
	}
}

func TestRunSourceNoCategoriesAtAll(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	reg := crawler.NewRegistry(&config.Config{}, 0)
	reg.Register(&fakeCrawler{
		name: "blog", sourceURL: "https://example.com/blog", kind: crawler.KindFeed,
		category: "android", items: testItems(2),
	})
	ing := New(st, categorize.New(nil), reg, "cross-platform")

	stats, err := ing.RunSource(context.Background(), "blog")
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	// The source row itself cannot be created, so every item is an error.
	if stats.Errors != 2 || stats.Created != 0 {
		t.Errorf("expected all items errored, got %+v", stats)
	}

	dbStats, _ := st.GetStats()
	if dbStats.Articles != 0 {
		t.Errorf("expected no articles, got %d", dbStats.Articles)
	}
}

func TestRunSourceFetchFailure(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, &fakeCrawler{name: "blog", category: "android", err: errors.New("HTTP 503 from upstream")})

	stats, err := fx.ingestor.RunSource(context.Background(), "blog")
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if stats.Total != 0 || stats.Errors != 0 {
		t.Errorf("expected empty stats for failed fetch, got %+v", stats)
	}

	statuses, err := fx.store.ListSourceStatuses()
	if err != nil {
		t.Fatalf("ListSourceStatuses: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("expected source row despite fetch failure, got %d", len(statuses))
	}
	src := statuses[0]
	if src.LastStatus != store.CrawlStatusFailed {
		t.Errorf("expected failed log, got %q", src.LastStatus)
	}
	if !strings.Contains(src.LastError, "HTTP 503") {
		t.Errorf("expected error message recorded, got %q", src.LastError)
	}
	if src.LastCrawledAt == nil {
		t.Error("expected last_crawled_at stamped even on failure")
	}
}

func TestRunSourceUnknownName(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.ingestor.RunSource(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestRunKindSubset(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, &fakeCrawler{name: "blog", kind: crawler.KindFeed, category: "android", items: testItems(2)})
	fx.register(t, &fakeCrawler{
		name: "forum", sourceURL: "https://reddit.com/r/androiddev", kind: crawler.KindForum,
		category: "android", items: []crawler.Item{
			{Title: "forum post", URL: "https://reddit.com/r/androiddev/p1", Summary: "kotlin"},
		},
	})

	stats := fx.ingestor.RunKind(context.Background(), crawler.KindFeed)
	if stats.Created != 2 {
		t.Errorf("expected only feed items, got %+v", stats)
	}

	stats = fx.ingestor.RunKind(context.Background(), crawler.KindForum)
	if stats.Created != 1 {
		t.Errorf("expected only forum items, got %+v", stats)
	}

	// Source kind derives from the URL shape.
	statuses, err := fx.store.ListSourceStatuses()
	if err != nil {
		t.Fatalf("ListSourceStatuses: %v", err)
	}
	kinds := map[string]string{}
	for _, s := range statuses {
		kinds[s.Name] = s.Kind
	}
	if kinds["Fake: blog"] != store.SourceKindFeed {
		t.Errorf("expected feed kind for blog, got %q", kinds["Fake: blog"])
	}
	if kinds["Fake: forum"] != store.SourceKindForum {
		t.Errorf("expected forum kind for reddit URL, got %q", kinds["Fake: forum"])
	}
}

func TestRunAll(t *testing.T) {
	fx := newFixture(t)
	fx.register(t, &fakeCrawler{name: "one", category: "android", items: testItems(2)})
	fx.register(t, &fakeCrawler{name: "two", category: "ios", items: []crawler.Item{
		{Title: "swift post", URL: "https://example.com/swift-post", Summary: "swift"},
	}})

	stats := fx.ingestor.RunAll(context.Background())
	if stats.Total != 3 || stats.Created != 3 {
		t.Errorf("expected all sources crawled, got %+v", stats)
	}
}

func TestStatsAddAndString(t *testing.T) {
	a := Stats{Total: 3, Created: 2, Skipped: 1}
	a.Add(Stats{Total: 2, Errors: 1, Skipped: 1, FallbackArbitrary: 1})

	if a.Total != 5 || a.Created != 2 || a.Skipped != 2 || a.Errors != 1 || a.FallbackArbitrary != 1 {
		t.Errorf("unexpected sum %+v", a)
	}
	if got := a.String(); got != "2 created, 2 skipped, 1 errors (total: 5)" {
		t.Errorf("unexpected string %q", got)
	}
}
