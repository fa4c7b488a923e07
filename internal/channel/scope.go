package channel

import (
	"context"
	"errors"
	"fmt"

	"contentnode/internal/domain"
)

type ctxKey struct{}

// WithChannel scopes the context to a channel; 0 clears the scope
func WithChannel(ctx context.Context, channelID int) context.Context {
	return context.WithValue(ctx, ctxKey{}, channelID)
}

// FromContext returns the channel the context is scoped to, 0 if none
func FromContext(ctx context.Context) int {
	id, _ := ctx.Value(ctxKey{}).(int)
	return id
}

// Store is the part of the repository the view reads from
type Store interface {
	Get(ctx context.Context, t domain.ObjectType, id int) (domain.NodeObject, error)
	ChannelSet(ctx context.Context, t domain.ObjectType, channelSetID int) ([]domain.NodeObject, error)
}

// View loads objects as seen from the channel in the context
type View struct {
	store     Store
	hierarchy *Hierarchy
}

// NewView creates a view over the store
func NewView(store Store, h *Hierarchy) *View {
	return &View{store: store, hierarchy: h}
}

// Hierarchy returns the channel hierarchy the view resolves against
func (v *View) Hierarchy() *Hierarchy { return v.hierarchy }

// Load returns the object by ID, replaced by the variant visible in the scoped channel
func (v *View) Load(ctx context.Context, t domain.ObjectType, id int) (domain.NodeObject, error) {
	obj, err := v.store.Get(ctx, t, id)
	if err != nil {
		return nil, err
	}
	channelID := FromContext(ctx)
	if channelID == 0 {
		return obj, nil
	}
	l, ok := domain.AsLocalizable(obj)
	if !ok {
		return obj, nil
	}
	variants, err := v.Variants(ctx, t, l.ChannelInfo().ChannelSetID)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		variants = []domain.LocalizableNodeObject{l}
	}
	visible, err := Resolve(v.hierarchy, variants, channelID)
	if err != nil {
		return nil, err
	}
	return visible, nil
}

// Variants returns all variants of a channel set
func (v *View) Variants(ctx context.Context, t domain.ObjectType, channelSetID int) ([]domain.LocalizableNodeObject, error) {
	objs, err := v.store.ChannelSet(ctx, t, channelSetID)
	if err != nil {
		return nil, fmt.Errorf("load channel set %d: %w", channelSetID, err)
	}
	out := make([]domain.LocalizableNodeObject, 0, len(objs))
	for _, o := range objs {
		if l, ok := domain.AsLocalizable(o); ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// Filter keeps the objects visible in the scoped channel, replacing each by its
// visible variant and dropping duplicates of the same channel set
func (v *View) Filter(ctx context.Context, objs []domain.NodeObject) ([]domain.NodeObject, error) {
	channelID := FromContext(ctx)
	if channelID == 0 {
		return objs, nil
	}
	out := make([]domain.NodeObject, 0, len(objs))
	seen := make(map[[2]int]bool)
	for _, o := range objs {
		l, ok := domain.AsLocalizable(o)
		if !ok {
			out = append(out, o)
			continue
		}
		key := [2]int{int(o.TType()), l.ChannelInfo().ChannelSetID}
		if seen[key] {
			continue
		}
		seen[key] = true
		variants, err := v.Variants(ctx, o.TType(), l.ChannelInfo().ChannelSetID)
		if err != nil {
			return nil, err
		}
		if len(variants) == 0 {
			variants = []domain.LocalizableNodeObject{l}
		}
		visible, err := Resolve(v.hierarchy, variants, channelID)
		if errors.Is(err, ErrNotVisible) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, visible)
	}
	return out, nil
}
