package topicblog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/topicblog/content"
	"github.com/eringen/topicblog/internal/logfields"
	"github.com/eringen/topicblog/links"
	"github.com/eringen/topicblog/pages"
)

// Output layout below OUTPUT_DIR.
const (
	topicsDir    = "articles"
	articleDir   = "article"
	assetsDir    = "public"
	manifestFile = "build.json"
)

// PageResult is one page of a build.
type PageResult struct {
	Route string `json:"route"`
	ID    string `json:"id,omitempty"`
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

// BuildReport summarizes a build. It is also written to build.json.
type BuildReport struct {
	ID       string       `json:"id"`
	Tag      string       `json:"tag"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Pages    []PageResult `json:"pages"`
	Deferred []PageResult `json:"deferred"`
	Failed   []PageResult `json:"failed"`
}

// Generator pre-renders every enumerable page into the output directory.
// Builds are serialized; page assembly within a build runs in parallel.
type Generator struct {
	cfg     SiteConfig
	src     content.Source
	links   links.Builder
	views   ViewFuncs
	log     *slog.Logger
	metrics *Metrics

	mu sync.Mutex
	// publishMu orders the output swap against on-demand writes into the
	// published tree.
	publishMu sync.RWMutex
}

// NewGenerator returns a Generator writing to cfg.OutputDir.
func NewGenerator(cfg SiteConfig, src content.Source, views ViewFuncs, log *slog.Logger, m *Metrics) *Generator {
	cfg.setDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		cfg:     cfg,
		src:     src,
		links:   cfg.Links(),
		views:   views,
		log:     log,
		metrics: m,
	}
}

// HomeRoute is the topics list at "/".
func (g *Generator) HomeRoute() Route {
	return NewRoute[pages.TopicsPage](pages.RouteHome, pages.Strict, "",
		pages.HomePaths(),
		pages.NewHomeAssembler(g.src, g.links),
		func(pages.StaticPath) links.Target { return g.links.Home() },
		g.views.Topics)
}

// TopicRoute is /articles/{topicId}, enumerated by topics.
func (g *Generator) TopicRoute(topics pages.Enumerator) Route {
	return NewRoute[pages.ArticlesPage](pages.RouteArticles, pages.Strict, topicsDir,
		topics,
		pages.NewTopicAssembler(g.src, g.links),
		func(p pages.StaticPath) links.Target { return g.links.Topic(p.ID) },
		g.views.Articles)
}

// ArticleRoute is /article/{articleId}, checking article topics against set.
func (g *Generator) ArticleRoute(set pages.TopicSet) Route {
	return NewRoute[pages.ArticlePage](pages.RouteArticle, pages.Lenient, articleDir,
		pages.ArticlePaths(g.src),
		pages.NewArticleAssembler(g.src, g.links, set, nil),
		func(p pages.StaticPath) links.Target { return g.links.Article(p.ID) },
		g.views.Article)
}

// routes returns the build-time routes. Topics are enumerated once and
// shared by the topic route and the article topic check.
func (g *Generator) routes(ctx context.Context) []Route {
	topicPaths, topicErr := pages.TopicPaths(g.src).StaticPaths(ctx)
	ids := make([]string, len(topicPaths))
	for i, p := range topicPaths {
		ids[i] = p.ID
	}
	topics := pages.EnumeratorFunc(func(context.Context) ([]pages.StaticPath, error) {
		return topicPaths, topicErr
	})
	return []Route{
		g.HomeRoute(),
		g.TopicRoute(topics),
		g.ArticleRoute(pages.StaticTopics(ids)),
	}
}

type job struct {
	route Route
	path  pages.StaticPath
}

// Build generates the whole site into a staging directory and publishes it
// over OUTPUT_DIR. Strict page failures and enumeration failures fail the
// build after every sibling page has finished, and the previous output is
// kept; lenient failures are deferred to request time.
func (g *Generator) Build(ctx context.Context) (BuildReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	report := BuildReport{ID: uuid.NewString(), Tag: g.cfg.BuildTag, Started: start.UTC()}
	log := g.log.With(logfields.BuildID(report.ID))
	log.Info("build started", slog.String("tag", report.Tag), slog.String("output", g.cfg.OutputDir))

	out := filepath.Clean(g.cfg.OutputDir)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return report, fmt.Errorf("topicblog: output parent: %w", err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(out), "."+filepath.Base(out)+"-build-")
	if err != nil {
		return report, fmt.Errorf("topicblog: staging dir: %w", err)
	}
	defer os.RemoveAll(staging)
	if err := os.Chmod(staging, 0o755); err != nil {
		return report, err
	}

	var errs []error
	var jobs []job
	for _, r := range g.routes(ctx) {
		paths, err := r.StaticPaths(ctx)
		if err != nil {
			log.Error("enumeration failed", logfields.Route(r.Name()), logfields.Outcome(OutcomeFailed), logfields.Error(err))
			g.metrics.observePage(r.Name(), OutcomeFailed, 0)
			errs = append(errs, err)
			continue
		}
		log.Debug("enumerated", logfields.Route(r.Name()), slog.Int("pages", len(paths)), slog.String("policy", r.Policy().String()))
		for _, p := range paths {
			jobs = append(jobs, job{route: r, path: p})
		}
	}

	var (
		mu      sync.Mutex
		eg      errgroup.Group
		sitemap []sitemapURL
		feed    = map[string]feedEntry{}
	)
	eg.SetLimit(g.cfg.BuildConcurrency)
	for _, j := range jobs {
		eg.Go(func() error {
			res := PageResult{Route: j.route.Name(), ID: j.path.ID, Path: j.route.Target(j.path).String()}
			bundle, err := g.writePage(ctx, staging, j.route, j.path)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Pages = append(report.Pages, res)
				sitemap = append(sitemap, g.sitemapEntry(j.route.Target(j.path), bundle))
				g.collectFeed(feed, bundle)
			case j.route.Policy().Fallback():
				res.Error = err.Error()
				report.Deferred = append(report.Deferred, res)
				log.Warn("page deferred to request time", logfields.Route(res.Route), logfields.PageID(res.ID), logfields.Outcome(OutcomeDeferred), logfields.Error(err))
			default:
				res.Error = err.Error()
				report.Failed = append(report.Failed, res)
				errs = append(errs, err)
				log.Error("page failed", logfields.Route(res.Route), logfields.PageID(res.ID), logfields.Outcome(OutcomeFailed), logfields.Error(err))
			}
			return nil
		})
	}
	_ = eg.Wait()
	sortResults(report.Pages)
	sortResults(report.Deferred)
	sortResults(report.Failed)

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		report.Finished = time.Now().UTC()
		g.metrics.observeBuild(time.Since(start), false)
		log.Error("build failed, previous output kept",
			slog.Int("pages", len(report.Pages)),
			slog.Int("failed", len(report.Failed)),
			logfields.Since(start))
		return report, fmt.Errorf("topicblog: build %s: %w", report.ID, err)
	}

	entries := make([]feedEntry, 0, len(feed))
	for _, e := range feed {
		entries = append(entries, e)
	}
	if err := g.writeSiteFiles(staging, sitemap, entries); err != nil {
		return report, fmt.Errorf("topicblog: build %s: %w", report.ID, err)
	}
	report.Finished = time.Now().UTC()
	if err := writeManifest(staging, report); err != nil {
		return report, fmt.Errorf("topicblog: build %s: %w", report.ID, err)
	}
	if err := g.publish(staging, out); err != nil {
		return report, fmt.Errorf("topicblog: publish %s: %w", report.ID, err)
	}

	g.metrics.observeBuild(time.Since(start), true)
	log.Info("build finished",
		slog.Int("pages", len(report.Pages)),
		slog.Int("deferred", len(report.Deferred)),
		logfields.Since(start))
	return report, nil
}

// publish swaps staging in as out. No on-demand page is written while the
// output directory is being replaced.
func (g *Generator) publish(staging, out string) error {
	g.publishMu.Lock()
	defer g.publishMu.Unlock()
	return publish(staging, out)
}

// persist writes a page generated on demand into the published output.
func (g *Generator) persist(file string, data []byte) error {
	g.publishMu.RLock()
	defer g.publishMu.RUnlock()
	return writeFileAtomic(file, data)
}

// renderPage assembles and renders one page without touching the disk.
func (g *Generator) renderPage(ctx context.Context, r Route, p pages.StaticPath) ([]byte, any, error) {
	start := time.Now()
	rendered, err := r.Render(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	data, err := renderBytes(ctx, rendered.Component)
	if err != nil {
		return nil, nil, &pages.Error{Kind: pages.KindFetch, Route: r.Name(), ID: p.ID, Err: fmt.Errorf("render: %w", err)}
	}
	g.metrics.observePage(r.Name(), OutcomeGenerated, time.Since(start))
	return data, rendered.Bundle, nil
}

// writePage renders one page into root.
func (g *Generator) writePage(ctx context.Context, root string, r Route, p pages.StaticPath) (any, error) {
	file, err := pageFile(root, r.Dir(), p.ID)
	if err != nil {
		return nil, &pages.Error{Kind: pages.KindNotFound, Route: r.Name(), ID: p.ID, Err: err}
	}
	data, bundle, err := g.renderPage(ctx, r, p)
	if err != nil {
		outcome := OutcomeFailed
		if r.Policy().Fallback() {
			outcome = OutcomeDeferred
		}
		g.metrics.observePage(r.Name(), outcome, 0)
		return nil, err
	}
	if err := writeFileAtomic(file, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", file, err)
	}
	return bundle, nil
}

func (g *Generator) sitemapEntry(t links.Target, bundle any) sitemapURL {
	u := sitemapURL{Loc: g.links.Absolute(g.cfg.URL, t)}
	if a, ok := bundle.(pages.ArticlePage); ok && !a.Date.IsZero() {
		u.LastMod = a.Date.Format("2006-01-02")
	}
	return u
}

// collectFeed takes feed entries from topic pages, which carry the article
// descriptions.
func (g *Generator) collectFeed(feed map[string]feedEntry, bundle any) {
	page, ok := bundle.(pages.ArticlesPage)
	if !ok {
		return
	}
	for _, a := range page.Articles {
		feed[a.ID] = feedEntry{
			Title:       a.Name,
			Link:        g.links.Absolute(g.cfg.URL, a.Href),
			Description: a.Description,
			Category:    page.TopicName,
			Published:   a.PublishedDate,
		}
	}
}

func (g *Generator) writeSiteFiles(root string, sitemap []sitemapURL, feed []feedEntry) error {
	assets, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		return err
	}
	if err := copyFS(filepath.Join(root, assetsDir), assets); err != nil {
		return fmt.Errorf("copy assets: %w", err)
	}

	var buf bytes.Buffer
	if err := writeSitemap(&buf, sitemap); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(root, "sitemap.xml"), buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := g.writeFeed(&buf, feed); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(root, "feed.xml"), buf.Bytes()); err != nil {
		return err
	}

	robots := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s\n",
		g.links.Absolute(g.cfg.URL, g.links.File("sitemap.xml")))
	return writeFileAtomic(filepath.Join(root, "robots.txt"), []byte(robots))
}

func writeManifest(root string, report BuildReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(root, manifestFile), append(data, '\n'))
}

// ReadManifest returns the report of the build currently published in dir.
func ReadManifest(dir string) (BuildReport, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return BuildReport{}, err
	}
	var report BuildReport
	if err := json.Unmarshal(data, &report); err != nil {
		return BuildReport{}, fmt.Errorf("topicblog: %s: %w", manifestFile, err)
	}
	return report, nil
}

func sortResults(rs []PageResult) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Path < rs[j].Path })
}
