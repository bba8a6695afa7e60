package topicblog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/topicblog/content"
)

func newTestApp(t *testing.T, cfg SiteConfig, src content.Source) *App {
	t.Helper()
	app := New(cfg, src, ViewFuncs{})
	t.Cleanup(func() { app.Close() })
	_, err := app.Build(context.Background())
	require.NoError(t, err)
	return app
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.7:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServeBuiltPages(t *testing.T) {
	app := newTestApp(t, testConfig(t), newTestStore(t))
	h := app.Handler()

	tests := []struct {
		path string
		want string
	}{
		{"/blog/", "Cafe Supremo"},
		{"/blog/articles/t1", "Lisbon in a day"},
		{"/blog/articles/t1/", "Porto"},
		{"/articles/t1", "Lisbon in a day"},
		{"/blog/article/a1", "Posted on March 1, 2024"},
		{"/blog/feed.xml", "<rss"},
		{"/blog/public/styles.css", ".article-content"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestServeGeneratesUnknownArticleOnDemand(t *testing.T) {
	cfg := testConfig(t)
	store := newTestStore(t)
	app := newTestApp(t, cfg, store)

	snap := loadTestSnapshot(t)
	snap.Articles = append(snap.Articles, content.ArticleRecord{
		ID:      "a99",
		TopicID: "t1",
		Name:    "Published after the build",
		Author:  "Ana",
		Date:    time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
		Content: "<p>Fresh</p>",
	})
	require.NoError(t, store.Import(context.Background(), snap))

	rec := get(t, app.Handler(), "/blog/article/a99")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Published after the build")
	assert.Contains(t, body, "<p>Fresh</p>")
	assert.Contains(t, body, `href="/blog/articles/t1"`)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "article", "a99", "index.html"))

	// Served from disk from now on, even once the source forgets it.
	require.NoError(t, store.Import(context.Background(), loadTestSnapshot(t)))
	rec = get(t, app.Handler(), "/blog/article/a99/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeConcurrentOnDemandRequests(t *testing.T) {
	app := newTestApp(t, testConfig(t), newTestStore(t))
	h := app.Handler()

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = get(t, h, "/blog/article/missing").Code
		}()
	}
	wg.Wait()
	for _, code := range codes {
		assert.Equal(t, http.StatusNotFound, code)
	}
}

func TestServeNotFound(t *testing.T) {
	app := newTestApp(t, testConfig(t), newTestStore(t))
	h := app.Handler()

	tests := []struct {
		name string
		path string
	}{
		{"unknown article", "/blog/article/nope"},
		{"article with unresolved topic", "/blog/article/a3"},
		{"unknown topic is strict", "/blog/articles/t99"},
		{"unknown route", "/blog/elsewhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "Page not found")
		})
	}
	assert.NoDirExists(t, filepath.Join(app.Config.OutputDir, "articles", "t99"))
	assert.NoDirExists(t, filepath.Join(app.Config.OutputDir, "article", "a3"))
}

func TestServeRateLimitsOnDemandGeneration(t *testing.T) {
	cfg := testConfig(t)
	cfg.FallbackRate = 1
	app := newTestApp(t, cfg, newTestStore(t))
	h := app.Handler()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/blog/article/x1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, h, "/blog/article/x2").Code)
	// Pages on disk are never limited.
	assert.Equal(t, http.StatusOK, get(t, h, "/blog/article/a1").Code)
}

func TestServeHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, testConfig(t), newTestStore(t))
	h := app.Handler()

	rec := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var status healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "test", status.Tag)
	assert.NotEmpty(t, status.BuildID)

	get(t, h, "/blog/article/nope")

	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `topicblog_pages_total{outcome="generated",route="article"} 2`)
	assert.Contains(t, body, `topicblog_fallback_requests_total{outcome="not_found"} 1`)
	assert.Contains(t, body, "topicblog_last_successful_build_timestamp_seconds")
}

// noSeedSource enumerates no articles at build time.
type noSeedSource struct{ content.Source }

func (noSeedSource) AllArticles(context.Context) ([]content.ArticleRef, error) { return nil, nil }

func TestServeWithoutSeedArticles(t *testing.T) {
	cfg := testConfig(t)
	store := newTestStore(t)
	app := newTestApp(t, cfg, noSeedSource{Source: store})
	assert.NoDirExists(t, filepath.Join(cfg.OutputDir, "article"))

	snap := loadTestSnapshot(t)
	snap.Articles = append(snap.Articles, content.ArticleRecord{ID: "a99", TopicID: "t2", Name: "Soup season", Content: "Warm."})
	require.NoError(t, store.Import(context.Background(), snap))

	rec := get(t, app.Handler(), "/blog/article/a99")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Soup season")
	assert.Contains(t, rec.Body.String(), "<p>Warm.</p>")
}

func TestServeLogsOnDemandOutcome(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig(t)
	app := New(cfg, newTestStore(t), ViewFuncs{},
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	t.Cleanup(func() { app.Close() })
	_, err := app.Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "outcome=deferred")

	get(t, app.Handler(), "/blog/article/nope")
	assert.Contains(t, logs.String(), "page_id=nope outcome=not_found")
	get(t, app.Handler(), "/blog/article/a3")
	assert.Contains(t, logs.String(), "page_id=a3 outcome=deferred")
}
