// Package resolvable exposes content objects to the template expression
// language. Every object type has a table of named properties; accessing a
// property through a Resolvable records a dependency in the Tracker carried by
// the context, so that renderings can be invalidated when the object changes.
package resolvable

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"contentnode/internal/domain"
)

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrUnresolved      = errors.New("unresolved")
)

// Resolvable is an object whose properties can be read by name
type Resolvable interface {
	Get(ctx context.Context, key string) (any, error)
	Keys() []string
}

// ObjectResolvable is a Resolvable backed by a content object
type ObjectResolvable interface {
	Resolvable
	Object() domain.NodeObject
}

// Renderable values produce their own output when rendered
type Renderable interface {
	Render(ctx context.Context) (string, error)
}

// Property reads one named property of T. Deps names further properties of
// the same object the result is derived from.
type Property[T domain.NodeObject] struct {
	Get  func(ctx context.Context, obj T) (any, error)
	Deps []string
}

// Properties is the property table of a type
type Properties[T domain.NodeObject] map[string]Property[T]

// Keys returns the property names sorted
func (p Properties[T]) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bind returns a Resolvable for obj backed by the table
func (p Properties[T]) Bind(obj T) ObjectResolvable {
	return &object[T]{obj: obj, props: p}
}

type object[T domain.NodeObject] struct {
	obj   T
	props Properties[T]
}

func (o *object[T]) Get(ctx context.Context, key string) (any, error) {
	p, ok := o.props[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", o.obj.Describe(), ErrUnknownProperty, key)
	}
	if tr := TrackerFrom(ctx); tr != nil {
		tr.Record(Dependency{Type: o.obj.TType(), ID: o.obj.GetID(), Property: key})
		for _, d := range p.Deps {
			tr.Record(Dependency{Type: o.obj.TType(), ID: o.obj.GetID(), Property: d})
		}
	}
	return p.Get(ctx, o.obj)
}

func (o *object[T]) Keys() []string { return o.props.Keys() }

func (o *object[T]) Object() domain.NodeObject { return o.obj }

// Dependency is one property of one object a rendering read
type Dependency struct {
	Type     domain.ObjectType `json:"type"`
	ID       int               `json:"id"`
	Property string            `json:"property"`
}

func (d Dependency) String() string {
	return fmt.Sprintf("%s:%d:%s", d.Type, d.ID, d.Property)
}

// Tracker collects dependencies; safe for concurrent use
type Tracker struct {
	mu   sync.Mutex
	deps map[Dependency]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{deps: make(map[Dependency]struct{})}
}

// Record adds a dependency
func (t *Tracker) Record(d Dependency) {
	t.mu.Lock()
	t.deps[d] = struct{}{}
	t.mu.Unlock()
}

// Dependencies returns the recorded dependencies ordered by type, ID and property
func (t *Tracker) Dependencies() []Dependency {
	t.mu.Lock()
	out := make([]Dependency, 0, len(t.deps))
	for d := range t.deps {
		out = append(out, d)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Property < out[j].Property
	})
	return out
}

// DependsOn reports whether the object was read at all
func (t *Tracker) DependsOn(typ domain.ObjectType, id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for d := range t.deps {
		if d.Type == typ && d.ID == id {
			return true
		}
	}
	return false
}

type trackerKey struct{}

// WithTracker attaches a tracker to the context
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFrom returns the tracker of the context, nil if none
func TrackerFrom(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}

func record(ctx context.Context, obj domain.NodeObject, prop string) {
	if tr := TrackerFrom(ctx); tr != nil && obj != nil {
		tr.Record(Dependency{Type: obj.TType(), ID: obj.GetID(), Property: prop})
	}
}

// Loader loads referenced objects while resolving
type Loader interface {
	Load(ctx context.Context, t domain.ObjectType, id int) (domain.NodeObject, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, t domain.ObjectType, id int) (domain.NodeObject, error)

func (f LoaderFunc) Load(ctx context.Context, t domain.ObjectType, id int) (domain.NodeObject, error) {
	return f(ctx, t, id)
}

// Lister is optionally implemented by loaders that can list the contents of a folder
type Lister interface {
	ListInFolder(ctx context.Context, t domain.ObjectType, folderID int) ([]domain.NodeObject, error)
}

type loaderKey struct{}

// WithLoader attaches a loader to the context
func WithLoader(ctx context.Context, l Loader) context.Context {
	return context.WithValue(ctx, loaderKey{}, l)
}

// LoaderFrom returns the loader of the context, nil if none
func LoaderFrom(ctx context.Context) Loader {
	l, _ := ctx.Value(loaderKey{}).(Loader)
	return l
}

// loadAs loads a referenced object; a zero ID or missing loader yields the zero value
func loadAs[T domain.NodeObject](ctx context.Context, t domain.ObjectType, id int) (T, error) {
	var zero T
	l := LoaderFrom(ctx)
	if id == 0 || l == nil {
		return zero, nil
	}
	obj, err := l.Load(ctx, t, id)
	if err != nil {
		return zero, fmt.Errorf("load %s %d: %w", t, id, err)
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("load %s %d: unexpected %T", t, id, obj)
	}
	return typed, nil
}

// loadResolvable loads a referenced object and wraps it, nil when absent
func loadResolvable(ctx context.Context, t domain.ObjectType, id int) (any, error) {
	l := LoaderFrom(ctx)
	if id == 0 || l == nil {
		return nil, nil
	}
	obj, err := l.Load(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("load %s %d: %w", t, id, err)
	}
	return wrapAny(obj), nil
}
