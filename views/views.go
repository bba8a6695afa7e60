// Package views renders page bundles as HTML documents. Each page is a
// templ.Component backed by an embedded html/template set sharing one
// layout.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/topicblog/content"
	"github.com/eringen/topicblog/pages"
	"github.com/eringen/topicblog/sanitize"
)

//go:embed templates/*.html
var templateFS embed.FS

type picture struct {
	R     *content.Renditions
	Src   string
	Alt   string
	Sizes string
}

var funcs = template.FuncMap{
	"picture": func(r *content.Renditions, alt, sizes string) picture {
		return picture{R: r, Src: r.Fallback(), Alt: alt, Sizes: sizes}
	},
	// hero shows the large rendition in the raster <img>.
	"hero": func(r *content.Renditions, alt, sizes string) picture {
		return picture{R: r, Src: r.Prefer("large"), Alt: alt, Sizes: sizes}
	},
	"content": func(c sanitize.Content) (template.HTML, error) {
		return templ.ToGoHTML(context.Background(), Content(c))
	},
}

func parse(page string) *template.Template {
	return template.Must(template.New(page).Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html",
		"templates/partials.html",
		"templates/"+page+".html",
	))
}

var (
	topicsTmpl   = parse("topics")
	articlesTmpl = parse("articles")
	articleTmpl  = parse("article")
	notFoundTmpl = parse("notfound")
	errorTmpl    = parse("error")
)

type document struct {
	Site   SiteConfig
	Meta   PageMeta
	JSONLD template.JS
	Page   any
}

func render(t *template.Template, doc document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, "layout", doc)
	})
}

// Views are the default page components for one site.
type Views struct {
	cfg SiteConfig
}

// New returns the default views for cfg.
func New(cfg SiteConfig) Views {
	if cfg.Name == "" {
		cfg.Name = "Blog"
	}
	return Views{cfg: cfg}
}

func (v Views) title(s string) string {
	if s == "" || s == v.cfg.Name {
		return v.cfg.Name
	}
	return s + " | " + v.cfg.Name
}

// Topics renders the home page.
func (v Views) Topics(page pages.TopicsPage) templ.Component {
	meta := PageMeta{
		Title:       v.title(page.CompanyTitle),
		Description: v.cfg.Description,
		URL:         canonical(v.cfg, v.cfg.Links.Home()),
		OGType:      "website",
	}
	if page.CompanyThumbnail != nil {
		meta.Image = page.CompanyThumbnail.Fallback()
	}
	return render(topicsTmpl, document{Site: v.cfg, Meta: meta, JSONLD: WebsiteJsonLD(v.cfg), Page: page})
}

// Articles renders a topic's article list.
func (v Views) Articles(page pages.ArticlesPage) templ.Component {
	meta := PageMeta{
		Title:       v.title(page.TopicName),
		Description: v.cfg.Description,
		URL:         canonical(v.cfg, v.cfg.Links.Topic(page.TopicID)),
		OGType:      "website",
	}
	return render(articlesTmpl, document{Site: v.cfg, Meta: meta, Page: page})
}

// Article renders one article.
func (v Views) Article(page pages.ArticlePage) templ.Component {
	meta := PageMeta{
		Title:       v.title(page.Name),
		Description: page.ImageCaption,
		URL:         canonical(v.cfg, v.cfg.Links.Article(page.ID)),
		OGType:      "article",
	}
	if meta.Description == "" {
		meta.Description = v.cfg.Description
	}
	if page.Renditions != nil {
		meta.Image = page.Renditions.Prefer("large")
	}
	return render(articleTmpl, document{Site: v.cfg, Meta: meta, JSONLD: ArticleJsonLD(v.cfg, page), Page: page})
}

// NotFound renders the 404 page.
func (v Views) NotFound() templ.Component {
	return render(notFoundTmpl, document{Site: v.cfg, Meta: PageMeta{Title: v.title("Page not found"), OGType: "website"}})
}

// ServerError renders the 500 page.
func (v Views) ServerError() templ.Component {
	return render(errorTmpl, document{Site: v.cfg, Meta: PageMeta{Title: v.title("Error"), OGType: "website"}})
}
