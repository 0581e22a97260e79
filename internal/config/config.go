package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources    Sources    `yaml:"sources"`
	Categories []Category `yaml:"categories"`
	Crawl      Crawl      `yaml:"crawl"`
	Schedule   Schedule   `yaml:"schedule"`
	Server     Server     `yaml:"server"`
	Output     Output     `yaml:"output"`
}

type Sources struct {
	Feeds      []FeedSource      `yaml:"feeds"`
	Subreddits []SubredditSource `yaml:"subreddits"`
}

// FeedSource configures one RSS/Atom source. Name is the registry key used
// with `mobnews crawl --source`.
type FeedSource struct {
	Name     string `yaml:"name"`
	Title    string `yaml:"title"`
	URL      string `yaml:"url"`
	FeedURL  string `yaml:"feed_url"`
	Category string `yaml:"category"`
}

// SubredditSource configures one subreddit source.
type SubredditSource struct {
	Name      string `yaml:"name"`
	Subreddit string `yaml:"subreddit"`
	Category  string `yaml:"category"`
}

// Category pairs a persisted category with the keyword set used for
// auto-categorization. Keywords are matched as lowercase substrings.
type Category struct {
	Name     string   `yaml:"name"`
	Slug     string   `yaml:"slug"`
	Keywords []string `yaml:"keywords"`
}

type Crawl struct {
	RedditLimit         int    `yaml:"reddit_limit"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
	DefaultCategory     string `yaml:"default_category"`
	UserAgent           string `yaml:"user_agent"`
}

// Schedule holds cron expressions consumed by the `schedule` command only.
// The ingestion core never reads these.
type Schedule struct {
	Feeds  string `yaml:"feeds"`
	Forums string `yaml:"forums"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

// ConfigDir returns the XDG config directory for mobnews.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "mobnews")
}

// DataDir returns the XDG data directory for mobnews.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "mobnews")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/mobnews/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'mobnews init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Crawl: Crawl{
			RedditLimit:         25,
			FetchTimeoutSeconds: 20,
			DefaultCategory:     "cross-platform",
			UserAgent:           "mobnews/1.0 (mobile dev news aggregator)",
		},
		Schedule: Schedule{
			Feeds:  "0 */6 * * *",
			Forums: "30 */2 * * *",
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// FindCategory returns the configured category with the given slug, or nil.
func (c *Config) FindCategory(slug string) *Category {
	for i := range c.Categories {
		if c.Categories[i].Slug == slug {
			return &c.Categories[i]
		}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
