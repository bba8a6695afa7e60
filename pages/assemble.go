package pages

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/topicblog/content"
	"github.com/eringen/topicblog/links"
	"github.com/eringen/topicblog/sanitize"
)

// Assembler turns one StaticPath into the bundle its view renders. A
// failure never yields a partial bundle.
type Assembler[B any] interface {
	Assemble(ctx context.Context, p StaticPath) (B, error)
}

// AssemblerFunc adapts a function to Assembler.
type AssemblerFunc[B any] func(ctx context.Context, p StaticPath) (B, error)

func (f AssemblerFunc[B]) Assemble(ctx context.Context, p StaticPath) (B, error) { return f(ctx, p) }

// HomeAssembler builds the topics list page.
type HomeAssembler struct {
	src   content.Source
	links links.Builder
}

func NewHomeAssembler(src content.Source, lb links.Builder) *HomeAssembler {
	return &HomeAssembler{src: src, links: lb}
}

func (a *HomeAssembler) Assemble(ctx context.Context, _ StaticPath) (TopicsPage, error) {
	home, err := a.src.HomePage(ctx)
	if err != nil {
		return TopicsPage{}, classify(RouteHome, "", err)
	}
	page := TopicsPage{
		CompanyTitle:     home.CompanyTitle,
		CompanyThumbnail: home.CompanyThumbnail,
		AboutURL:         home.AboutURL,
		ContactURL:       home.ContactURL,
		Topics:           make([]TopicCard, 0, len(home.Topics)),
	}
	for _, t := range home.Topics {
		page.Topics = append(page.Topics, TopicCard{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Href:        a.links.Topic(t.ID),
			Renditions:  t.Renditions,
		})
	}
	return page, nil
}

// TopicAssembler builds a topic's article list. The article list and the
// topic name are fetched concurrently and joined fail-fast.
type TopicAssembler struct {
	src   content.Source
	links links.Builder
}

func NewTopicAssembler(src content.Source, lb links.Builder) *TopicAssembler {
	return &TopicAssembler{src: src, links: lb}
}

func (a *TopicAssembler) Assemble(ctx context.Context, p StaticPath) (ArticlesPage, error) {
	var (
		list content.TopicArticles
		name string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = a.src.TopicArticles(gctx, p.ID)
		return err
	})
	g.Go(func() error {
		var err error
		name, err = a.src.TopicName(gctx, p.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ArticlesPage{}, classify(RouteArticles, p.ID, err)
	}

	page := ArticlesPage{
		TopicID:     p.ID,
		TopicName:   name,
		Articles:    make([]ArticleCard, 0, len(list.Articles)),
		Breadcrumbs: a.links.TopicTrail(name),
	}
	for _, art := range list.Articles {
		page.Articles = append(page.Articles, ArticleCard{
			ID:            art.ID,
			Name:          art.Name,
			Description:   art.Description,
			PublishedDate: art.PublishedDate,
			Posted:        Posted(art.PublishedDate),
			Href:          a.links.Article(art.ID),
			Renditions:    art.Renditions,
		})
	}
	return page, nil
}

// TopicSet answers whether a topic id resolves.
type TopicSet interface {
	Contains(ctx context.Context, topicID string) (bool, error)
}

type staticTopics map[string]bool

func (s staticTopics) Contains(_ context.Context, id string) (bool, error) { return s[id], nil }

// StaticTopics is a TopicSet fixed at enumeration time.
func StaticTopics(ids []string) TopicSet {
	s := make(staticTopics, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

type liveTopics struct{ src content.Source }

func (l liveTopics) Contains(ctx context.Context, id string) (bool, error) {
	ids, err := l.src.TopicIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, known := range ids {
		if known == id {
			return true, nil
		}
	}
	return false, nil
}

// LiveTopics asks src on every lookup.
func LiveTopics(src content.Source) TopicSet { return liveTopics{src: src} }

// ArticleAssembler builds an article page. Content is sanitized exactly
// once here; an article whose topic does not resolve is deferred.
type ArticleAssembler struct {
	src    content.Source
	links  links.Builder
	topics TopicSet
	policy *sanitize.Policy
}

// NewArticleAssembler returns an assembler checking topics against set. A
// nil policy uses the default allow-list.
func NewArticleAssembler(src content.Source, lb links.Builder, set TopicSet, policy *sanitize.Policy) *ArticleAssembler {
	if policy == nil {
		policy = sanitize.DefaultPolicy()
	}
	return &ArticleAssembler{src: src, links: lb, topics: set, policy: policy}
}

func (a *ArticleAssembler) Assemble(ctx context.Context, p StaticPath) (ArticlePage, error) {
	d, err := a.src.ArticleDetails(ctx, p.ID)
	if err != nil {
		return ArticlePage{}, classify(RouteArticle, p.ID, err)
	}

	ok := false
	if d.TopicID != "" {
		if ok, err = a.topics.Contains(ctx, d.TopicID); err != nil {
			return ArticlePage{}, classify(RouteArticle, p.ID, err)
		}
	}
	if !ok {
		return ArticlePage{}, &Error{
			Kind:  KindDeferred,
			Route: RouteArticle,
			ID:    p.ID,
			Err:   fmt.Errorf("topic %q: %w", d.TopicID, ErrTopicUnresolved),
		}
	}
	topicName := d.TopicName
	if topicName == "" {
		if topicName, err = a.src.TopicName(ctx, d.TopicID); err != nil {
			return ArticlePage{}, classify(RouteArticle, p.ID, err)
		}
	}

	return ArticlePage{
		ID:               d.ID,
		Name:             d.Name,
		Author:           d.Title,
		Date:             d.Date,
		Posted:           Posted(d.Date),
		Content:          a.policy.Clean(d.Content),
		ImageCaption:     d.ImageCaption,
		Renditions:       d.Renditions,
		AuthorRenditions: d.AuthorRenditions,
		TopicID:          d.TopicID,
		TopicName:        topicName,
		Breadcrumbs:      a.links.ArticleTrail(d.TopicID, topicName, d.Name),
	}, nil
}
