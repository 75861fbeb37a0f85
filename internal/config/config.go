package config

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"

	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	defaultItemsPerFeed = 2
	defaultDelay        = time.Second
)

type Feed struct {
	Name    string `yaml:"name,omitempty"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // "gemini", "claude" or "openai"
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

type CacheConfig struct {
	Path    string `yaml:"path,omitempty"`
	Backend string `yaml:"backend,omitempty"`
}

type Config struct {
	Feeds        []Feed      `yaml:"feeds"`
	FeedsFile    string      `yaml:"feeds_file,omitempty"`
	ItemsPerFeed int         `yaml:"items_per_feed,omitempty"`
	Delay        string      `yaml:"delay,omitempty"`
	LogLevel     string      `yaml:"log_level,omitempty"`
	Cache        CacheConfig `yaml:"cache,omitempty"`
	AI           *AIConfig   `yaml:"ai,omitempty"`
}

// providerKeyEnv is the conventional API key variable for each provider.
var providerKeyEnv = map[string]string{
	ProviderGemini: "GEMINI_API_KEY",
	ProviderClaude: "ANTHROPIC_API_KEY",
	ProviderOpenAI: "OPENAI_API_KEY",
}

// LoadDotEnv loads a .env file from the working directory if one exists.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// AIKey returns the resolved API key: config, then DBROAST_AI_KEY, then the
// provider's own variable.
func (c *Config) AIKey() string {
	if c.AI != nil && c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	if key := os.Getenv("DBROAST_AI_KEY"); key != "" {
		return key
	}
	provider := ProviderGemini
	if c.AI != nil && c.AI.Provider != "" {
		provider = c.AI.Provider
	}
	if env, ok := providerKeyEnv[provider]; ok {
		return os.Getenv(env)
	}
	return ""
}

// GetItemsPerFeed returns how many items to take from the head of each feed,
// defaulting to 2.
func (c *Config) GetItemsPerFeed() int {
	if c.ItemsPerFeed <= 0 {
		return defaultItemsPerFeed
	}
	return c.ItemsPerFeed
}

// DelayDuration is the pause after each successful generation.
func (c *Config) DelayDuration() time.Duration {
	if c.Delay == "" {
		return defaultDelay
	}
	d, err := time.ParseDuration(c.Delay)
	if err != nil || d < 0 {
		return defaultDelay
	}
	return d
}

func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return DefaultCachePath(c.CacheBackend())
}

func (c *Config) CacheBackend() string {
	if c.Cache.Backend == "" {
		return BackendJSON
	}
	return c.Cache.Backend
}

func (c *Config) EnabledFeeds() []Feed {
	var out []Feed
	for _, f := range c.Feeds {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// FeedURLs returns the enabled feed URLs followed by those listed in
// feeds_file, in order, without duplicates.
func (c *Config) FeedURLs() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	for _, f := range c.EnabledFeeds() {
		add(f.URL)
	}
	if c.FeedsFile != "" {
		urls, err := LoadFeedList(c.FeedsFile)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			add(u)
		}
	}
	return out, nil
}

// FeedName returns the configured name for a feed URL, or the URL itself.
func (c *Config) FeedName(feedURL string) string {
	for _, f := range c.Feeds {
		if f.URL == feedURL && f.Name != "" {
			return f.Name
		}
	}
	return feedURL
}

type feedList struct {
	URLs []string `json:"urls"`
}

// LoadFeedList reads a JSON document of the form {"urls": [...]}.
func LoadFeedList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds file: %w", err)
	}
	var fl feedList
	if err := json.Unmarshal(data, &fl); err != nil {
		return nil, fmt.Errorf("parsing feeds file %s: %w", path, err)
	}
	for _, u := range fl.URLs {
		if err := checkURL(u); err != nil {
			return nil, fmt.Errorf("feeds file %s: %w", path, err)
		}
	}
	return fl.URLs, nil
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "dbroast", "config.yaml")
}

func DefaultCachePath(backend string) string {
	name := "roasts.json"
	if backend == BackendSQLite {
		name = "roasts.db"
	}
	return filepath.Join(xdg.CacheHome, "dbroast", name)
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults still apply.
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if !hasFeedList(data, &cfg) {
		cfg.Feeds = defaults.Feeds
	}
	if cfg.AI == nil {
		cfg.AI = defaults.AI
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// hasFeedList reports whether the user config chooses its own feeds, through a
// feeds key (even an empty one) or a feeds_file. Only configs that do neither
// get the built-in feeds.
func hasFeedList(data []byte, cfg *Config) bool {
	if cfg.FeedsFile != "" {
		return true
	}
	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return false
	}
	_, ok := keys["feeds"]
	return ok
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

func validate(cfg *Config) error {
	for i, f := range cfg.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feed %d (%s): url is required", i, f.Name)
		}
		if err := checkURL(f.URL); err != nil {
			return fmt.Errorf("feed %d (%s): %w", i, f.Name, err)
		}
	}
	if cfg.ItemsPerFeed < 0 {
		return fmt.Errorf("items_per_feed must not be negative")
	}
	if cfg.Delay != "" {
		if d, err := time.ParseDuration(cfg.Delay); err != nil || d < 0 {
			return fmt.Errorf("invalid delay %q", cfg.Delay)
		}
	}
	switch cfg.Cache.Backend {
	case "", BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q (valid: json, sqlite)", cfg.Cache.Backend)
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", cfg.LogLevel)
	}
	if cfg.AI != nil {
		if _, ok := providerKeyEnv[cfg.AI.Provider]; !ok && cfg.AI.Provider != "" {
			return fmt.Errorf("unknown AI provider %q (valid: gemini, claude, openai)", cfg.AI.Provider)
		}
	}
	return nil
}
