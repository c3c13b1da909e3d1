package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgraeger/contentfeeds/internal/content"
)

const (
	StoreElasticsearch = "elasticsearch"
	StorePostgres      = "postgres"
	StoreMemory        = "memory"
)

type Indexes struct {
	Events    string `yaml:"events"`
	News      string `yaml:"news"`
	DataUse   string `yaml:"data_use"`
	Programme string `yaml:"programme"`
}

type Store struct {
	Type string `yaml:"type"`
	// URL is the Elasticsearch base URL.
	URL string `yaml:"url"`
	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn"`
	// Fixtures is the JSON fixture file of the memory store.
	Fixtures string        `yaml:"fixtures"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Feed struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Link        string `yaml:"link"`
	Format      string `yaml:"format"`
}

type Feeds struct {
	Events Feed `yaml:"events"`
	News   Feed `yaml:"news"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Config struct {
	// DefaultLocale is normalized when the config is loaded.
	DefaultLocale    string  `yaml:"default_locale"`
	PortalURL        string  `yaml:"portal_url"`
	PageSize         int     `yaml:"page_size"`
	DescriptionField string  `yaml:"description_field"`
	Indexes          Indexes `yaml:"indexes"`
	Store            Store   `yaml:"store"`
	Feeds            Feeds   `yaml:"feeds"`
	Log              Log     `yaml:"log"`
}

// Load reads the YAML file at path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return finish(&c)
}

// Default returns the configuration used without a config file.
func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(c *Config) (*Config, error) {
	applyEnv(c)
	applyDefaults(c)

	locale, err := content.NormalizeLocale(c.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default_locale: %w", err)
	}
	c.DefaultLocale = locale

	switch c.Store.Type {
	case StoreElasticsearch, StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown store type %q", c.Store.Type)
	}
	if c.Store.Type == StorePostgres && c.Store.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required for the postgres store")
	}
	if c.Store.Type == StoreMemory && c.Store.Fixtures == "" {
		return nil, fmt.Errorf("store.fixtures is required for the memory store")
	}

	return c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("CONTENT_STORE_URL"); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv("CONTENT_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("CONTENT_DEFAULT_LOCALE"); v != "" {
		c.DefaultLocale = v
	}
}

func applyDefaults(c *Config) {
	if c.DefaultLocale == "" {
		c.DefaultLocale = "en"
	}
	if c.PortalURL == "" {
		c.PortalURL = "https://www.gbif.org/"
	}
	if c.PageSize == 0 {
		c.PageSize = 10
	}
	if c.DescriptionField == "" {
		c.DescriptionField = "description"
	}
	if c.Indexes.Events == "" {
		c.Indexes.Events = "event"
	}
	if c.Indexes.News == "" {
		c.Indexes.News = "news"
	}
	if c.Indexes.DataUse == "" {
		c.Indexes.DataUse = "datause"
	}
	if c.Indexes.Programme == "" {
		c.Indexes.Programme = "programme"
	}
	if c.Store.Type == "" {
		c.Store.Type = StoreElasticsearch
	}
	if c.Store.URL == "" {
		c.Store.URL = "http://localhost:9200"
	}
	if c.Store.Timeout == 0 {
		c.Store.Timeout = 10 * time.Second
	}
	defaultFeed(&c.Feeds.Events, Feed{
		Title:       "Upcoming events",
		Description: "GBIF Upcoming News",
		Language:    "en",
		Link:        "http://www.gbif.org/newsroom/events/upcoming.xml",
		Format:      "rss",
	})
	defaultFeed(&c.Feeds.News, Feed{
		Title:       "GBIF news feed",
		Description: "GBIF News",
		Language:    "en",
		Link:        "http://www.gbif.org/newsroom/news/rss",
		Format:      "rss",
	})
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func defaultFeed(f *Feed, d Feed) {
	if f.Title == "" {
		f.Title = d.Title
	}
	if f.Description == "" {
		f.Description = d.Description
	}
	if f.Language == "" {
		f.Language = d.Language
	}
	if f.Link == "" {
		f.Link = d.Link
	}
	if f.Format == "" {
		f.Format = d.Format
	}
}
