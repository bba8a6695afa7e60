// Package content fetches blog content from the headless backend and
// normalizes it into plain records.
//
// Source is the contract the page pipeline consumes. CMS talks to the
// backend's REST delivery API; Store serves a local SQLite snapshot of it.
package content

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when an identifier resolves to no item.
var ErrNotFound = errors.New("content: not found")

// Source is a read-only view of the blog content. Implementations must be
// safe for concurrent use; every call is an idempotent read.
type Source interface {
	// TopicIDs lists the ids of every topic on the home page.
	TopicIDs(ctx context.Context) ([]string, error)
	// TopicName returns the display name of a topic.
	TopicName(ctx context.Context, topicID string) (string, error)
	// TopicArticles lists the articles of a topic, newest first.
	TopicArticles(ctx context.Context, topicID string) (TopicArticles, error)
	// AllArticles lists the id of every published article.
	AllArticles(ctx context.Context) ([]ArticleRef, error)
	// ArticleDetails returns one article with its topic resolved.
	ArticleDetails(ctx context.Context, articleID string) (ArticleDetail, error)
	// HomePage returns the topics list page content.
	HomePage(ctx context.Context) (HomePage, error)
}

// FetchError describes a failed backend call that was not a miss.
type FetchError struct {
	Op     string
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("content: %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("content: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
