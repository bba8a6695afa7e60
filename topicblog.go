// Package topicblog is a static blog generator for topics and articles kept
// in a headless CMS. It pre-renders every enumerable page at build time and
// serves the result, generating article pages the build did not know about
// on first request.
//
// Users may provide their own templ components via the ViewFuncs struct;
// topicblog owns enumeration, assembly, sanitizing and the output layout.
package topicblog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/topicblog/content"
	"github.com/eringen/topicblog/links"
	"github.com/eringen/topicblog/pages"
	"github.com/eringen/topicblog/views"
)

const shutdownTimeout = 10 * time.Second

// ViewFuncs holds the templ components used to render pages. Any nil field
// falls back to the default views.
type ViewFuncs struct {
	Topics      func(page pages.TopicsPage) templ.Component
	Articles    func(page pages.ArticlesPage) templ.Component
	Article     func(page pages.ArticlePage) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// DefaultViews returns the built-in views for cfg.
func DefaultViews(cfg SiteConfig) ViewFuncs {
	cfg.setDefaults()
	v := views.New(views.SiteConfig{
		Name:        cfg.Name,
		URL:         cfg.URL,
		Description: cfg.Description,
		Links:       cfg.Links(),
	})
	return ViewFuncs{
		Topics:      v.Topics,
		Articles:    v.Articles,
		Article:     v.Article,
		NotFound:    v.NotFound,
		ServerError: v.ServerError,
	}
}

func (v ViewFuncs) withDefaults(cfg SiteConfig) ViewFuncs {
	d := DefaultViews(cfg)
	if v.Topics == nil {
		v.Topics = d.Topics
	}
	if v.Articles == nil {
		v.Articles = d.Articles
	}
	if v.Article == nil {
		v.Article = d.Article
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
	return v
}

// App wires a content source, the generator and the HTTP server together.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Source    content.Source
	Views     ViewFuncs
	Links     links.Builder
	Logger    *slog.Logger
	Metrics   *Metrics
	Generator *Generator

	fallback     *onDemand
	limiter      *FallbackLimiter
	rebuilder    *Rebuilder
	customRoutes []func(*App)
	setupOnce    sync.Once
}

// New creates an App reading content from src.
func New(cfg SiteConfig, src content.Source, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Source: src,
		Views:  views.withDefaults(cfg),
		Links:  cfg.Links(),
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	if a.Metrics == nil {
		a.Metrics = NewMetrics()
	}

	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.Generator = NewGenerator(cfg, src, a.Views, a.Logger, a.Metrics)
	a.limiter = NewFallbackLimiter(cfg.FallbackRate, time.Minute)
	a.fallback = newOnDemand(a.Generator, cfg, a.Logger, a.Metrics)
	return a
}

// Build generates the site into the output directory. A successful build
// also drops the topic ids cached for on-demand generation.
func (a *App) Build(ctx context.Context) (BuildReport, error) {
	report, err := a.Generator.Build(ctx)
	if err == nil {
		a.fallback.topics.Invalidate()
	}
	return report, err
}

// Handler returns the configured server, for tests and embedding.
func (a *App) Handler() http.Handler {
	a.setup()
	return a.Echo
}

func (a *App) setup() {
	a.setupOnce.Do(func() {
		a.setupMiddleware()
		a.setupRoutes()
		for _, fn := range a.customRoutes {
			fn(a)
		}
	})
}

// Start serves the output directory until ctx is cancelled, then shuts the
// server down gracefully. Scheduled rebuilds run while serving when
// RebuildInterval is set.
func (a *App) Start(ctx context.Context) error {
	a.setup()

	if a.Config.RebuildInterval > 0 && a.rebuilder == nil {
		r, err := NewRebuilder(a.Build, a.Config.RebuildInterval, a.Config.BuildTimeout, a.Logger)
		if err != nil {
			return err
		}
		a.rebuilder = r
		r.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Echo.Start(a.Config.Addr)
	}()
	a.Logger.Info("serving", slog.String("addr", a.Config.Addr), slog.String("output", a.Config.OutputDir), slog.String("base", a.Links.Base()))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("topicblog: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("topicblog: shutdown: %w", err)
	}
	return nil
}

// Close stops background work. The content source is owned by the caller.
func (a *App) Close() error {
	a.limiter.Close()
	if a.rebuilder != nil {
		return a.rebuilder.Stop()
	}
	return nil
}

// OpenSource returns the content source selected by cfg.ContentSource.
// A *content.Store must be closed by the caller.
func OpenSource(cfg SiteConfig, log *slog.Logger) (content.Source, error) {
	cfg.setDefaults()
	switch cfg.ContentSource {
	case SourceCMS:
		cms, err := content.NewCMS(content.CMSConfig{
			ServerURL:    cfg.ServerURL,
			APIVersion:   cfg.APIVersion,
			ChannelToken: cfg.ChannelToken,
			Timeout:      cfg.FetchTimeout,
			Logger:       log,
		})
		if err != nil {
			return nil, err
		}
		return cms, nil
	case SourceSQLite:
		store, err := content.NewStore(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("topicblog: unknown content source %q", cfg.ContentSource)
	}
}
