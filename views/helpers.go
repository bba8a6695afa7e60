package views

import (
	"encoding/json"
	"html/template"
	"time"

	"github.com/eringen/topicblog/links"
	"github.com/eringen/topicblog/pages"
)

// canonical returns the absolute URL of t on the configured site.
func canonical(cfg SiteConfig, t links.Target) string {
	return cfg.Links.Absolute(cfg.URL, t)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) template.JS {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      canonical(cfg, cfg.Links.Home()),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	return jsonLD(data)
}

// ArticleJsonLD produces a BlogPosting JSON-LD block for an article page.
func ArticleJsonLD(cfg SiteConfig, page pages.ArticlePage) template.JS {
	url := canonical(cfg, cfg.Links.Article(page.ID))
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": page.Name,
		"url":      url,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   url,
		},
		"articleSection": page.TopicName,
	}
	if !page.Date.IsZero() {
		data["datePublished"] = page.Date.Format(time.RFC3339)
	}
	if page.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  page.Author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	return jsonLD(data)
}

// json.Marshal escapes <, > and &, so the result is safe inside a script
// element.
func jsonLD(data map[string]interface{}) template.JS {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return template.JS(b)
}
