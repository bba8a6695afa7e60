package topicblog

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/eringen/topicblog/links"
)

// Content source kinds.
const (
	SourceCMS    = "cms"
	SourceSQLite = "sqlite"
)

// SiteConfig holds all configuration for a topicblog site. It is read once
// at startup and passed into constructors.
type SiteConfig struct {
	Name        string `env:"SITE_NAME" envDefault:"Blog"`
	URL         string `env:"SITE_URL" envDefault:"http://localhost:3000"` // Canonical origin, without the base path
	Description string `env:"SITE_DESCRIPTION"`
	BasePath    string `env:"BASE_URL"` // Deployment prefix applied to every link
	BuildTag    string `env:"BUILD_TAG" envDefault:"none"`

	Addr      string `env:"ADDR" envDefault:":3000"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"out"`

	ContentSource string        `env:"CONTENT_SOURCE" envDefault:"cms"`
	DatabasePath  string        `env:"DATABASE_PATH" envDefault:"data/content.db"`
	ServerURL     string        `env:"SERVER_URL"`
	APIVersion    string        `env:"API_VERSION" envDefault:"v1.1"`
	ChannelToken  string        `env:"CHANNEL_TOKEN"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`

	BuildConcurrency int           `env:"BUILD_CONCURRENCY" envDefault:"8"`
	RebuildInterval  time.Duration `env:"REBUILD_INTERVAL" envDefault:"0s"` // 0 disables scheduled rebuilds
	FallbackRate     int           `env:"FALLBACK_RATE" envDefault:"30"`    // On-demand pages per IP per minute, 0 disables limiting
	BuildTimeout     time.Duration `env:"BUILD_TIMEOUT" envDefault:"0s"`    // Bound on a scheduled rebuild, 0 means none
	TopicCacheTTL    time.Duration `env:"TOPIC_CACHE_TTL" envDefault:"1m"`  // Topic ids known to on-demand generation
}

// LoadConfig reads and validates the configuration from the environment.
func LoadConfig() (SiteConfig, error) {
	cfg, err := ParseConfig()
	if err != nil {
		return SiteConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

// ParseConfig reads the configuration from the environment without
// validating it, for commands that only need part of it.
func ParseConfig() (SiteConfig, error) {
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("topicblog: parse env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.BuildTag == "" {
		c.BuildTag = "none"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.ContentSource == "" {
		c.ContentSource = SourceCMS
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.APIVersion == "" {
		c.APIVersion = "v1.1"
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.BuildConcurrency == 0 {
		c.BuildConcurrency = 8
	}
	if c.TopicCacheTTL == 0 {
		c.TopicCacheTTL = time.Minute
	}
	c.BasePath = links.NormalizeBase(c.BasePath)
}

// Validate reports configuration errors that would only surface later.
func (c SiteConfig) Validate() error {
	var errs []error
	switch c.ContentSource {
	case SourceCMS:
		if c.ServerURL == "" {
			errs = append(errs, errors.New("SERVER_URL is required when CONTENT_SOURCE=cms"))
		}
	case SourceSQLite:
	default:
		errs = append(errs, fmt.Errorf("CONTENT_SOURCE %q must be %q or %q", c.ContentSource, SourceCMS, SourceSQLite))
	}
	if c.BuildConcurrency < 1 {
		errs = append(errs, fmt.Errorf("BUILD_CONCURRENCY must be positive, got %d", c.BuildConcurrency))
	}
	if c.RebuildInterval < 0 {
		errs = append(errs, errors.New("REBUILD_INTERVAL must not be negative"))
	}
	if c.BuildTimeout < 0 {
		errs = append(errs, errors.New("BUILD_TIMEOUT must not be negative"))
	}
	if c.FallbackRate < 0 {
		errs = append(errs, errors.New("FALLBACK_RATE must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("topicblog: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Links returns the link builder for the configured base path.
func (c SiteConfig) Links() links.Builder {
	return links.NewBuilder(c.BasePath)
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger sets the logger used by the generator and the server.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithMetrics sets the metrics sink; by default the App creates its own.
func WithMetrics(m *Metrics) Option {
	return func(a *App) {
		a.Metrics = m
	}
}
