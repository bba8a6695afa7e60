package pages

import (
	"time"

	"github.com/eringen/topicblog/content"
	"github.com/eringen/topicblog/links"
	"github.com/eringen/topicblog/sanitize"
)

// PostedLayout is the date line format of article cards and pages.
const PostedLayout = "January 2, 2006"

// Posted renders the "Posted on" line of t, or "" for the zero time.
func Posted(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return "Posted on " + t.Format(PostedLayout)
}

// TopicsPage is the bundle of the home page.
type TopicsPage struct {
	CompanyTitle     string
	CompanyThumbnail *content.Renditions
	AboutURL         string
	ContactURL       string
	Topics           []TopicCard
}

// TopicCard links a topic from the home page.
type TopicCard struct {
	ID          string
	Name        string
	Description string
	Href        links.Target
	Renditions  *content.Renditions
}

// ArticlesPage is the bundle of /articles/{topicId}.
type ArticlesPage struct {
	TopicID     string
	TopicName   string
	Articles    []ArticleCard
	Breadcrumbs []links.Crumb
}

// ArticleCard links an article from its topic page.
type ArticleCard struct {
	ID            string
	Name          string
	Description   string
	PublishedDate time.Time
	Posted        string
	Href          links.Target
	Renditions    *content.Renditions
}

// ArticlePage is the bundle of /article/{articleId}. Content has been
// sanitized and its render mode decided; views must not clean it again.
type ArticlePage struct {
	ID               string
	Name             string
	Author           string
	Date             time.Time
	Posted           string
	Content          sanitize.Content
	ImageCaption     string
	Renditions       *content.Renditions
	AuthorRenditions *content.Renditions
	TopicID          string
	TopicName        string
	Breadcrumbs      []links.Crumb
}
