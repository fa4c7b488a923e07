package resolvable

import (
	"context"
	"strings"

	"contentnode/internal/domain"
)

// tagResolvable exposes the fixed tag properties plus one property per part keyword
type tagResolvable struct {
	object[*domain.Tag]
}

func (t *tagResolvable) Get(ctx context.Context, key string) (any, error) {
	if _, ok := t.props[key]; ok {
		return t.object.Get(ctx, key)
	}
	v, ok := t.obj.Value(key)
	if !ok {
		return t.object.Get(ctx, key)
	}
	record(ctx, t.obj, key)
	return Wrap(v), nil
}

func (t *tagResolvable) Keys() []string {
	keys := t.props.Keys()
	return append(keys, t.obj.ValueKeywords()...)
}

// Render outputs the values of the visible parts in construct order
func (t *tagResolvable) Render(ctx context.Context) (string, error) {
	record(ctx, t.obj, "visible")
	if !t.obj.Enabled {
		return "", nil
	}
	keywords := t.obj.ValueKeywords()
	construct, err := loadAs[*domain.Construct](ctx, domain.TypeConstruct, t.obj.ConstructID)
	if err != nil {
		return "", err
	}
	if construct != nil {
		keywords = keywords[:0]
		for _, p := range construct.SortedParts() {
			if !p.Hidden {
				keywords = append(keywords, p.Keyword)
			}
		}
	}

	var out strings.Builder
	for _, kw := range keywords {
		v, ok := t.obj.Value(kw)
		if !ok {
			continue
		}
		record(ctx, t.obj, kw)
		s, err := Wrap(v).(Renderable).Render(ctx)
		if err != nil {
			return "", err
		}
		out.WriteString(s)
	}
	return out.String(), nil
}

type valueResolvable struct {
	object[*domain.Value]
}

// Render outputs the text, or the URL of the referenced object for link parts
func (v *valueResolvable) Render(ctx context.Context) (string, error) {
	switch v.obj.PartType {
	case domain.PartTypeURLPage, domain.PartTypeURLFile, domain.PartTypeURLImage:
		if v.obj.ValueRef == 0 {
			return v.obj.Text, nil
		}
		target, err := v.Get(ctx, "target")
		if err != nil || target == nil {
			return "", err
		}
		url, err := target.(Resolvable).Get(ctx, "url")
		if err != nil {
			return "", err
		}
		s, _ := url.(string)
		return s, nil
	}
	return v.obj.Text, nil
}
