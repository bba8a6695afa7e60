package pages

import (
	"errors"
	"fmt"

	"github.com/eringen/topicblog/content"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindEnumeration means the id listing for a route failed; no page of
	// that route can be generated.
	KindEnumeration Kind = iota + 1
	// KindNotFound means the identifier resolves to no entity.
	KindNotFound
	// KindFetch means a remote call failed during assembly.
	KindFetch
	// KindDeferred means the page cannot be built now and is left to
	// request-time generation.
	KindDeferred
)

func (k Kind) String() string {
	switch k {
	case KindEnumeration:
		return "enumeration"
	case KindNotFound:
		return "not_found"
	case KindFetch:
		return "fetch"
	case KindDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// ErrTopicUnresolved is wrapped when an article's topic id is not among the
// known topics.
var ErrTopicUnresolved = errors.New("article topic does not resolve")

// Error is a failure tied to one route and, when known, one page id.
type Error struct {
	Kind  Kind
	Route string
	ID    string
	Err   error
}

func (e *Error) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("pages: %s %s: %v", e.Route, e.Kind, e.Err)
	}
	return fmt.Sprintf("pages: %s %q %s: %v", e.Route, e.ID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// IsNotFound reports whether err means "no such page".
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound || errors.Is(err, content.ErrNotFound)
}

// IsDeferred reports whether err postpones a page to request time.
func IsDeferred(err error) bool { return KindOf(err) == KindDeferred }

// classify wraps a content error, separating misses from transport failures.
func classify(route, id string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	kind := KindFetch
	if errors.Is(err, content.ErrNotFound) {
		kind = KindNotFound
	}
	return &Error{Kind: kind, Route: route, ID: id, Err: err}
}
