package topicblog

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/topicblog/internal/logfields"
	"github.com/eringen/topicblog/pages"
)

// onDemand generates lenient pages that the build did not produce. Each id
// is generated at most once at a time; concurrent requests share the result.
type onDemand struct {
	gen     *Generator
	topics  *topicCache
	route   Route
	root    string
	timeout time.Duration
	log     *slog.Logger
	metrics *Metrics
	group   singleflight.Group
}

func newOnDemand(gen *Generator, cfg SiteConfig, log *slog.Logger, m *Metrics) *onDemand {
	topics := newTopicCache(gen.src, cfg.TopicCacheTTL)
	return &onDemand{
		gen:     gen,
		topics:  topics,
		route:   gen.ArticleRoute(topics),
		root:    cfg.OutputDir,
		timeout: cfg.FetchTimeout,
		log:     log,
		metrics: m,
	}
}

// generate renders the page for id and persists it below the output root.
// The work runs detached from the request so one client going away does
// not fail the others waiting on the same id.
func (o *onDemand) generate(ctx context.Context, id string) ([]byte, bool, error) {
	v, err, shared := o.group.Do(id, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
		defer cancel()

		start := time.Now()
		p := pages.StaticPath{ID: id}
		data, _, err := o.gen.renderPage(ctx, o.route, p)
		if err != nil {
			return nil, err
		}
		file, err := pageFile(o.root, o.route.Dir(), id)
		if err != nil {
			return nil, err
		}
		if err := o.gen.persist(file, data); err != nil {
			// The page is still served; the next request retries the write.
			o.log.Error("persist on-demand page", logfields.PageID(id), logfields.Path(file), logfields.Error(err))
		}
		o.log.Info("page generated on demand", logfields.Route(o.route.Name()), logfields.PageID(id), logfields.Outcome(OutcomeGenerated), logfields.Since(start))
		return data, nil
	})
	if err != nil {
		return nil, shared, err
	}
	return v.([]byte), shared, nil
}

// handleArticle serves /article/:id when the page is not on disk yet.
func (a *App) handleArticle(c echo.Context) error {
	id := c.Param("id")
	file, err := pageFile(a.Config.OutputDir, articleDir, id)
	if err != nil {
		return echo.ErrNotFound
	}
	if _, err := os.Stat(file); err == nil {
		return c.File(file)
	}

	ip := c.RealIP()
	if !a.limiter.Allow(ip) {
		a.Metrics.observeFallback(OutcomeLimited)
		a.Logger.Warn("on-demand generation rate limited", logfields.PageID(id), logfields.Outcome(OutcomeLimited), logfields.RemoteAddr(ip))
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
	}

	data, shared, err := a.fallback.generate(c.Request().Context(), id)
	if err != nil {
		switch {
		case pages.IsNotFound(err):
			a.Metrics.observeFallback(OutcomeNotFound)
			a.Logger.Debug("on-demand page not found", logfields.PageID(id), logfields.Outcome(OutcomeNotFound))
		case pages.IsDeferred(err):
			a.Metrics.observeFallback(OutcomeDeferred)
			a.Logger.Warn("on-demand page unresolvable", logfields.PageID(id), logfields.Outcome(OutcomeDeferred), logfields.Error(err))
		default:
			a.Metrics.observeFallback(OutcomeFailed)
			a.Logger.Error("on-demand generation failed", logfields.PageID(id), logfields.Outcome(OutcomeFailed), logfields.Error(err))
		}
		return echo.ErrNotFound
	}
	if shared {
		a.Metrics.observeFallback(OutcomeShared)
	} else {
		a.Metrics.observeFallback(OutcomeGenerated)
	}
	return c.HTMLBlob(http.StatusOK, data)
}
