package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/mobnews/internal/categorize"
	"github.com/TobiSchelling/mobnews/internal/config"
	"github.com/TobiSchelling/mobnews/internal/crawler"
	"github.com/TobiSchelling/mobnews/internal/fetch"
	"github.com/TobiSchelling/mobnews/internal/ingest"
	"github.com/TobiSchelling/mobnews/internal/sched"
	"github.com/TobiSchelling/mobnews/internal/server"
	"github.com/TobiSchelling/mobnews/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "mobnews",
	Short:   "Mobile development news aggregator",
	Long:    "mobnews crawls mobile-dev blogs and subreddits, categorizes new articles and serves them over a local API.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mobnews", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/mobnews/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure sources, categories and schedules, then run 'mobnews seed'.")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the configured categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		for _, cat := range cfg.Categories {
			created, err := st.InsertCategory(cat.Name, cat.Slug, "")
			if err != nil {
				return fmt.Errorf("seeding category %q: %w", cat.Slug, err)
			}
			status := "exists"
			if created {
				status = "created"
			}
			fmt.Printf("  %s (%s): %s\n", cat.Name, cat.Slug, status)
		}

		categories, err := st.ListCategories()
		if err != nil {
			return err
		}
		fmt.Printf("Done — %d categories total.\n", len(categories))
		return nil
	},
}

// --- crawl command ---

var (
	crawlSource       string
	crawlType         string
	crawlLimit        int
	crawlFetchContent bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl configured sources and store new articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		reg := crawler.NewRegistry(cfg, crawlLimit)
		ing := ingest.New(st, categorize.New(cfg.Categories), reg, cfg.Crawl.DefaultCategory)
		ctx := context.Background()

		var stats ingest.Stats
		switch {
		case crawlSource != "":
			stats, err = ing.RunSource(ctx, crawlSource)
			if err != nil {
				return err
			}
		case crawlType == "feed":
			stats = ing.RunKind(ctx, crawler.KindFeed)
		case crawlType == "forum":
			stats = ing.RunKind(ctx, crawler.KindForum)
		case crawlType == "all":
			stats = ing.RunAll(ctx)
		default:
			return fmt.Errorf("invalid --type %q (want feed, forum or all)", crawlType)
		}

		fmt.Println("\nCrawl complete:")
		fmt.Printf("  Total found: %d\n", stats.Total)
		fmt.Printf("  Created: %d\n", stats.Created)
		fmt.Printf("  Skipped (duplicates): %d\n", stats.Skipped)
		fmt.Printf("  Errors: %d\n", stats.Errors)
		if stats.FallbackArbitrary > 0 {
			fmt.Printf("  Arbitrary category fallbacks: %d (run 'mobnews seed')\n", stats.FallbackArbitrary)
		}

		if crawlFetchContent {
			fmt.Println("\nFetching full article content...")
			fetcher := fetch.NewContentFetcher(st, cfg.Crawl.UserAgent, fetchTimeout())
			result := fetcher.FetchMissingContent()
			fmt.Printf("  Fetched: %d, failed: %d\n", result.Fetched, result.Failed)
		}
		return nil
	},
}

func init() {
	crawlCmd.Flags().StringVar(&crawlSource, "source", "", "Crawl a single named source (e.g. 'android', 'reddit-androiddev')")
	crawlCmd.Flags().StringVar(&crawlType, "type", "all", "Type of sources to crawl: feed, forum or all")
	crawlCmd.Flags().IntVar(&crawlLimit, "limit", 0, "Max posts per subreddit (default from config)")
	crawlCmd.Flags().BoolVar(&crawlFetchContent, "fetch-content", false, "Fetch full article text after crawling")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch full text for articles that only have a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		fetcher := fetch.NewContentFetcher(st, cfg.Crawl.UserAgent, fetchTimeout())
		result := fetcher.FetchMissingContent()
		fmt.Printf("Fetched %d articles, %d failed\n", result.Fetched, result.Failed)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and crawl status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Database:")
		fmt.Printf("  Categories: %d\n", stats.Categories)
		fmt.Printf("  Sources: %d\n", stats.Sources)
		fmt.Printf("  Articles: %d\n", stats.Articles)
		fmt.Printf("  Tags: %d\n", stats.Tags)
		fmt.Printf("  Comments: %d\n", stats.Comments)

		statuses, err := st.ListSourceStatuses()
		if err != nil {
			return err
		}
		if len(statuses) > 0 {
			fmt.Println("\nSources:")
			for _, src := range statuses {
				line := fmt.Sprintf("  %s [%s]", src.Name, src.Kind)
				if src.LastStatus != "" {
					line += fmt.Sprintf(" — last run %s, %d found", src.LastStatus, src.LastFound)
					if src.LastError != "" {
						line += fmt.Sprintf(" (%s)", src.LastError)
					}
				} else {
					line += " — never crawled"
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(st, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run crawls on the configured cron cadences until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		reg := crawler.NewRegistry(cfg, 0)
		ing := ingest.New(st, categorize.New(cfg.Categories), reg, cfg.Crawl.DefaultCategory)

		runner, err := sched.New(ing, cfg.Schedule.Feeds, cfg.Schedule.Forums)
		if err != nil {
			return err
		}

		fmt.Printf("Scheduling crawls (feeds: %q, forums: %q)\n", cfg.Schedule.Feeds, cfg.Schedule.Forums)
		fmt.Println("Press Ctrl+C to stop")

		runner.Start()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		fmt.Println("\nStopping scheduler...")
		runner.Stop()
		return nil
	},
}

func fetchTimeout() time.Duration {
	return time.Duration(cfg.Crawl.FetchTimeoutSeconds) * time.Second
}

func openStore() (*store.Store, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "mobnews.db")
	return store.Open(dbPath)
}
