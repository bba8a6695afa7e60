package topicblog

import (
	"context"

	"github.com/a-h/templ"

	"github.com/eringen/topicblog/links"
	"github.com/eringen/topicblog/pages"
)

// Route couples a route template with its enumeration policy, its
// assembler and its view.
type Route interface {
	Name() string
	Policy() pages.Policy
	// Dir is the output directory of the route below the output root;
	// pages live in Dir/<id>/index.html, or index.html for the home page.
	Dir() string
	StaticPaths(ctx context.Context) ([]pages.StaticPath, error)
	Target(p pages.StaticPath) links.Target
	Render(ctx context.Context, p pages.StaticPath) (Rendered, error)
}

// Rendered is an assembled page ready to be written.
type Rendered struct {
	Component templ.Component
	Bundle    any
}

type route[B any] struct {
	name   string
	policy pages.Policy
	dir    string
	enum   pages.Enumerator
	asm    pages.Assembler[B]
	target func(pages.StaticPath) links.Target
	view   func(B) templ.Component
}

// NewRoute builds a Route from an enumerator, an assembler and a view over
// the same bundle type.
func NewRoute[B any](
	name string,
	policy pages.Policy,
	dir string,
	enum pages.Enumerator,
	asm pages.Assembler[B],
	target func(pages.StaticPath) links.Target,
	view func(B) templ.Component,
) Route {
	return &route[B]{name: name, policy: policy, dir: dir, enum: enum, asm: asm, target: target, view: view}
}

func (r *route[B]) Name() string         { return r.name }
func (r *route[B]) Policy() pages.Policy { return r.policy }
func (r *route[B]) Dir() string          { return r.dir }

func (r *route[B]) StaticPaths(ctx context.Context) ([]pages.StaticPath, error) {
	return r.enum.StaticPaths(ctx)
}

func (r *route[B]) Target(p pages.StaticPath) links.Target { return r.target(p) }

func (r *route[B]) Render(ctx context.Context, p pages.StaticPath) (Rendered, error) {
	bundle, err := r.asm.Assemble(ctx, p)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Component: r.view(bundle), Bundle: bundle}, nil
}
