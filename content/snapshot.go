package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Snapshot is a complete, portable copy of the blog content. It is what
// Store imports and what the seed file format decodes into.
type Snapshot struct {
	Home     HomeRecord      `yaml:"home"`
	Topics   []Topic         `yaml:"topics"`
	Articles []ArticleRecord `yaml:"articles"`
}

// HomeRecord is the home page without its topic list.
type HomeRecord struct {
	CompanyTitle     string      `yaml:"companyTitle"`
	CompanyThumbnail *Renditions `yaml:"companyThumbnail,omitempty"`
	AboutURL         string      `yaml:"aboutUrl,omitempty"`
	ContactURL       string      `yaml:"contactUrl,omitempty"`
}

// ArticleRecord is the stored form of an article.
type ArticleRecord struct {
	ID               string      `yaml:"id"`
	TopicID          string      `yaml:"topicId"`
	Name             string      `yaml:"name"`
	Description      string      `yaml:"description,omitempty"`
	Author           string      `yaml:"author,omitempty"`
	Date             time.Time   `yaml:"date"`
	Content          string      `yaml:"content"`
	ImageCaption     string      `yaml:"imageCaption,omitempty"`
	Renditions       *Renditions `yaml:"renditions,omitempty"`
	AuthorRenditions *Renditions `yaml:"authorRenditions,omitempty"`
}

// LoadSnapshot decodes a YAML snapshot and validates it.
func LoadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return Snapshot{}, errors.New("content: empty snapshot")
		}
		return Snapshot{}, fmt.Errorf("content: decode snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Validate checks identity constraints. Articles may point at unknown
// topics; those pages are deferred at build time.
func (s Snapshot) Validate() error {
	if s.Home.CompanyTitle == "" {
		return errors.New("content: snapshot home needs a companyTitle")
	}
	topics := make(map[string]bool, len(s.Topics))
	for _, t := range s.Topics {
		if t.ID == "" {
			return errors.New("content: snapshot topic without id")
		}
		if topics[t.ID] {
			return fmt.Errorf("content: duplicate topic %q", t.ID)
		}
		topics[t.ID] = true
	}
	articles := make(map[string]bool, len(s.Articles))
	for _, a := range s.Articles {
		if a.ID == "" {
			return errors.New("content: snapshot article without id")
		}
		if articles[a.ID] {
			return fmt.Errorf("content: duplicate article %q", a.ID)
		}
		articles[a.ID] = true
	}
	return nil
}

// Capture reads everything reachable from src into a Snapshot. Article
// details are fetched with at most parallelism calls in flight.
func Capture(ctx context.Context, src Source, parallelism int) (Snapshot, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	home, err := src.HomePage(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("home page: %w", err)
	}
	snap := Snapshot{
		Home: HomeRecord{
			CompanyTitle:     home.CompanyTitle,
			CompanyThumbnail: home.CompanyThumbnail,
			AboutURL:         home.AboutURL,
			ContactURL:       home.ContactURL,
		},
		Topics: home.Topics,
	}

	// Descriptions only appear in the topic listings.
	descriptions := make(map[string]string)
	for _, t := range home.Topics {
		list, err := src.TopicArticles(ctx, t.ID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("topic %s articles: %w", t.ID, err)
		}
		for _, a := range list.Articles {
			descriptions[a.ID] = a.Description
		}
	}

	refs, err := src.AllArticles(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("all articles: %w", err)
	}
	snap.Articles = make([]ArticleRecord, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, ref := range refs {
		g.Go(func() error {
			d, err := src.ArticleDetails(gctx, ref.ID)
			if err != nil {
				return fmt.Errorf("article %s: %w", ref.ID, err)
			}
			snap.Articles[i] = ArticleRecord{
				ID:               d.ID,
				TopicID:          d.TopicID,
				Name:             d.Name,
				Description:      descriptions[d.ID],
				Author:           d.Title,
				Date:             d.Date,
				Content:          d.Content,
				ImageCaption:     d.ImageCaption,
				Renditions:       d.Renditions,
				AuthorRenditions: d.AuthorRenditions,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
