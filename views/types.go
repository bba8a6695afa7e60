package views

import "github.com/eringen/topicblog/links"

// SiteConfig holds site-wide settings every page template needs. Nothing in
// the templates is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME
	URL         string // SITE_URL, without the base path
	Description string // SITE_DESCRIPTION
	Links       links.Builder
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
