package pages

import (
	"context"
	"errors"

	"github.com/eringen/topicblog/content"
)

// Route names.
const (
	RouteHome     = "home"
	RouteArticles = "articles"
	RouteArticle  = "article"
)

// Policy says what happens to ids that were not enumerated at build time.
type Policy int

const (
	// Strict pages exist only for enumerated ids; anything else is a 404.
	Strict Policy = iota
	// Lenient pages may be generated on first request for unseen ids.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// Fallback reports whether unseen ids generate on demand.
func (p Policy) Fallback() bool { return p == Lenient }

// StaticPath is one concrete parameter set of a route. The home route has a
// single path with an empty ID.
type StaticPath struct {
	ID string
}

// Enumerator lists the pages of one route to pre-render.
type Enumerator interface {
	StaticPaths(ctx context.Context) ([]StaticPath, error)
}

// EnumeratorFunc adapts a function to Enumerator.
type EnumeratorFunc func(ctx context.Context) ([]StaticPath, error)

func (f EnumeratorFunc) StaticPaths(ctx context.Context) ([]StaticPath, error) { return f(ctx) }

// HomePaths enumerates the single home page.
func HomePaths() Enumerator {
	return EnumeratorFunc(func(context.Context) ([]StaticPath, error) {
		return []StaticPath{{}}, nil
	})
}

// TopicPaths enumerates one articles page per topic on the home page.
func TopicPaths(src content.Source) Enumerator {
	return EnumeratorFunc(func(ctx context.Context) ([]StaticPath, error) {
		ids, err := src.TopicIDs(ctx)
		if err != nil {
			return nil, &Error{Kind: KindEnumeration, Route: RouteArticles, Err: err}
		}
		return pathsOf(RouteArticles, ids)
	})
}

// ArticlePaths enumerates the articles visible now; it is only the seed set
// of a lenient route.
func ArticlePaths(src content.Source) Enumerator {
	return EnumeratorFunc(func(ctx context.Context) ([]StaticPath, error) {
		refs, err := src.AllArticles(ctx)
		if err != nil {
			return nil, &Error{Kind: KindEnumeration, Route: RouteArticle, Err: err}
		}
		ids := make([]string, len(refs))
		for i, r := range refs {
			ids[i] = r.ID
		}
		return pathsOf(RouteArticle, ids)
	})
}

// pathsOf drops duplicates and rejects empty ids, which would collide with
// the route index.
func pathsOf(route string, ids []string) ([]StaticPath, error) {
	seen := make(map[string]bool, len(ids))
	paths := make([]StaticPath, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, &Error{Kind: KindEnumeration, Route: route, Err: errors.New("empty id in listing")}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		paths = append(paths, StaticPath{ID: id})
	}
	return paths, nil
}
