// Package links owns every navigable path the site produces.
//
// Route paths ("/articles/t1") are what the generator writes to disk and
// what the server routes on. Targets are what pages link to: the route path
// behind the deployment base path. A Target can only be made by a Builder,
// so the prefix is applied in exactly one place.
package links

import (
	"net/url"
	"strings"
)

const (
	topicsPrefix  = "/articles/"
	articlePrefix = "/article/"
)

// HomePath is the route path of the topics list page.
func HomePath() string { return "/" }

// TopicPath is the route path of the articles list page of a topic.
func TopicPath(topicID string) string { return topicsPrefix + url.PathEscape(topicID) }

// ArticlePath is the route path of an article details page.
func ArticlePath(articleID string) string { return articlePrefix + url.PathEscape(articleID) }

// Target is a link destination with the base path already applied.
// The zero Target means "no link".
type Target struct {
	href string
}

// String returns the href.
func (t Target) String() string { return t.href }

// IsZero reports whether t points nowhere.
func (t Target) IsZero() bool { return t.href == "" }

// Builder applies the deployment base path to route paths.
type Builder struct {
	base string
}

// NewBuilder returns a Builder for basePath, normalized with NormalizeBase.
func NewBuilder(basePath string) Builder {
	return Builder{base: NormalizeBase(basePath)}
}

// NormalizeBase turns a configured base path into the form prepended to
// route paths: empty, or a leading slash and no trailing slash.
func NormalizeBase(raw string) string {
	base := strings.TrimSpace(raw)
	base = strings.TrimRight(base, "/")
	if base == "" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return base
}

// Base returns the normalized base path.
func (b Builder) Base() string { return b.base }

func (b Builder) target(routePath string) Target {
	return Target{href: b.base + routePath}
}

// Home links to the topics list page.
func (b Builder) Home() Target { return b.target(HomePath()) }

// Topic links to the articles list page of topicID.
func (b Builder) Topic(topicID string) Target { return b.target(TopicPath(topicID)) }

// Article links to the details page of articleID.
func (b Builder) Article(articleID string) Target { return b.target(ArticlePath(articleID)) }

// Asset links to a static file served under /public.
func (b Builder) Asset(name string) Target {
	return b.target("/public/" + strings.TrimLeft(name, "/"))
}

// File links to a root-level file such as feed.xml.
func (b Builder) File(name string) Target {
	return b.target("/" + strings.TrimLeft(name, "/"))
}

// Absolute returns t as an absolute URL on siteURL. siteURL must not carry
// the base path; t already does.
func (b Builder) Absolute(siteURL string, t Target) string {
	return strings.TrimRight(siteURL, "/") + t.href
}

// Strip removes the base path from a request path. It reports false when
// the path lies outside the base path.
func (b Builder) Strip(requestPath string) (string, bool) {
	if b.base == "" {
		return requestPath, true
	}
	if requestPath == b.base {
		return "/", true
	}
	rest, ok := strings.CutPrefix(requestPath, b.base+"/")
	if !ok {
		return requestPath, false
	}
	return "/" + rest, true
}
