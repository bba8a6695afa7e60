package views

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/topicblog/content"
	"github.com/eringen/topicblog/links"
	"github.com/eringen/topicblog/pages"
	"github.com/eringen/topicblog/sanitize"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func testViews() Views {
	return New(SiteConfig{
		Name:        "Cafe Blog",
		URL:         "https://example.com",
		Description: "Stories from the cafe",
		Links:       links.NewBuilder("/blog"),
	})
}

var renditions = &content.Renditions{
	Srcset:    "https://cdn.test/a.webp 300w",
	JPGSrcset: "https://cdn.test/a.jpg 300w",
	Small:     "https://cdn.test/a.jpg",
	Width:     300,
	Height:    200,
}

func TestContentModes(t *testing.T) {
	html := renderString(t, Content(sanitize.Clean("<p>Hi</p><script>evil()</script>")))
	assert.Equal(t, "<p>Hi</p>", html)

	text := renderString(t, Content(sanitize.Clean("one <br> two\n\nthree")))
	assert.Equal(t, "<p>one &lt;br&gt; two</p><p>three</p>", text)

	plain := renderString(t, Content(sanitize.Clean("1 < 2 & 3\nfour")))
	assert.Equal(t, "<p>1 &lt; 2 &amp; 3<br>four</p>", plain)

	assert.Empty(t, renderString(t, Content(sanitize.Content{})))
}

func TestTopicsPage(t *testing.T) {
	v := testViews()
	lb := links.NewBuilder("/blog")
	out := renderString(t, v.Topics(pages.TopicsPage{
		CompanyTitle: "Cafe Supremo",
		AboutURL:     "https://example.com/about",
		Topics: []pages.TopicCard{
			{ID: "t1", Name: "Travel", Href: lb.Topic("t1"), Renditions: renditions},
			{ID: "t2", Name: "Food", Href: lb.Topic("t2")},
		},
	}))

	assert.Contains(t, out, "<title>Cafe Supremo | Cafe Blog</title>")
	assert.Contains(t, out, `href="/blog/articles/t1"`)
	assert.Contains(t, out, `href="/blog/public/styles.css"`)
	assert.Contains(t, out, `<link rel="canonical" href="https://example.com/blog/">`)
	assert.Contains(t, out, "About Us")
	assert.NotContains(t, out, "Contact Us")
	assert.Equal(t, 1, strings.Count(out, "<picture>"))
	assert.Contains(t, out, `src="https://cdn.test/a.jpg"`)
	assert.Contains(t, out, `"@type":"WebSite"`)
}

func TestArticlesPage(t *testing.T) {
	v := testViews()
	lb := links.NewBuilder("/blog")
	out := renderString(t, v.Articles(pages.ArticlesPage{
		TopicID:   "t1",
		TopicName: "Travel",
		Articles: []pages.ArticleCard{
			{ID: "a1", Name: "Lisbon", Posted: "Posted on March 1, 2024", Href: lb.Article("a1")},
		},
		Breadcrumbs: lb.TopicTrail("Travel"),
	}))

	assert.Contains(t, out, `<a href="/blog/">Home</a>`)
	assert.Contains(t, out, `<span aria-current="page">Travel</span>`)
	assert.Contains(t, out, `href="/blog/article/a1"`)
	assert.Contains(t, out, "Posted on March 1, 2024")

	empty := renderString(t, v.Articles(pages.ArticlesPage{TopicID: "t2", TopicName: "Food"}))
	assert.Contains(t, empty, "No articles in this topic yet.")
}

func TestArticlePage(t *testing.T) {
	v := testViews()
	lb := links.NewBuilder("/blog")
	page := pages.ArticlePage{
		ID:           "a1",
		Name:         "Lisbon in a day",
		Author:       "Ana",
		Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Posted:       "Posted on March 1, 2024",
		Content:      sanitize.Clean("<p>Hi <b>there</b></p>"),
		ImageCaption: "Tram 28",
		Renditions:   renditions,
		TopicID:      "t1",
		TopicName:    "Travel",
		Breadcrumbs:  lb.ArticleTrail("t1", "Travel", "Lisbon in a day"),
	}
	out := renderString(t, v.Article(page))

	assert.Contains(t, out, `<div class="article-content"><p>Hi <b>there</b></p></div>`)
	assert.Contains(t, out, "<figcaption>Tram 28</figcaption>")
	assert.Contains(t, out, `<a href="/blog/articles/t1">Travel</a>`)
	assert.Contains(t, out, `<span aria-current="page">Lisbon in a day</span>`)
	assert.Contains(t, out, `<meta property="og:type" content="article">`)
	assert.Contains(t, out, `"@type":"BlogPosting"`)

	page.Content = sanitize.Clean("1 < 2 and <br> stays text")
	text := renderString(t, v.Article(page))
	assert.NotContains(t, text, "<br>")
}

func TestArticlePageHeroUsesLargeRendition(t *testing.T) {
	hero := &content.Renditions{
		Srcset:    "https://cdn.test/h.webp 1200w",
		JPGSrcset: "https://cdn.test/h-small.jpg 300w",
		Small:     "https://cdn.test/h-small.jpg",
		Large:     "https://cdn.test/h-large.jpg",
	}
	avatar := &content.Renditions{
		Srcset:    "https://cdn.test/ana.webp 150w",
		JPGSrcset: "https://cdn.test/ana-small.jpg 150w",
		Small:     "https://cdn.test/ana-small.jpg",
		Large:     "https://cdn.test/ana-large.jpg",
	}
	out := renderString(t, testViews().Article(pages.ArticlePage{
		ID:               "a1",
		Name:             "Lisbon in a day",
		Author:           "Ana",
		Renditions:       hero,
		AuthorRenditions: avatar,
	}))

	assert.Contains(t, out, `<img src="https://cdn.test/h-large.jpg" alt="Lisbon in a day"`)
	assert.Contains(t, out, `<img src="https://cdn.test/ana-small.jpg" alt="Ana"`)
	assert.Contains(t, out, `<meta property="og:image" content="https://cdn.test/h-large.jpg">`)
}

func TestErrorPages(t *testing.T) {
	v := testViews()
	assert.Contains(t, renderString(t, v.NotFound()), "Page not found")
	assert.Contains(t, renderString(t, v.ServerError()), "Something went wrong")
}
