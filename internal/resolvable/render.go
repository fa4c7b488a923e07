package resolvable

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Resolve follows a dotted path like page.folder.node.host starting at root.
// Segments address properties of resolvables, keys of maps and indexes of lists.
func Resolve(ctx context.Context, root any, path string) (any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty path")
	}
	segments := strings.Split(path, ".")
	cur := root
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("invalid path %q", path)
		}
		next, err := step(ctx, cur, seg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.Join(segments[:i+1], "."), err)
		}
		cur = next
	}
	return cur, nil
}

func step(ctx context.Context, cur any, seg string) (any, error) {
	switch v := cur.(type) {
	case nil:
		return nil, ErrUnresolved
	case Resolvable:
		return v.Get(ctx, seg)
	case map[string]any:
		x, ok := v[seg]
		if !ok {
			return nil, ErrUnresolved
		}
		return x, nil
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, fmt.Errorf("index %q: %w", seg, ErrUnresolved)
		}
		return v[idx], nil
	}
	return nil, fmt.Errorf("cannot resolve %q on %T: %w", seg, cur, ErrUnresolved)
}

// String converts a resolved value to its rendered form
func String(ctx context.Context, v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case Renderable:
		return x.Render(ctx)
	case ObjectResolvable:
		return x.Object().Describe(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		if x.IsZero() {
			return "", nil
		}
		return x.Format(time.RFC3339), nil
	case *time.Time:
		if x == nil {
			return "", nil
		}
		return String(ctx, *x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			s, err := String(ctx, e)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ","), nil
	}
	return fmt.Sprint(v), nil
}

const (
	openTag  = "<node"
	closeTag = ">"
)

// Render replaces <node path> placeholders in tmpl with the resolved values.
// Paths that cannot be resolved render empty and are returned as misses.
// Unclosed or empty placeholders are errors.
func Render(ctx context.Context, tmpl string, roots map[string]any) (string, []string, error) {
	if tmpl == "" {
		return "", nil, nil
	}

	var out strings.Builder
	var misses []string
	rest := tmpl
	for {
		start := strings.Index(rest, openTag)
		if start == -1 {
			out.WriteString(rest)
			return out.String(), misses, nil
		}
		after := rest[start+len(openTag):]
		if after != "" && after[0] != ' ' && after[0] != '>' {
			// something like <nodes>, not a placeholder
			out.WriteString(rest[:start+len(openTag)])
			rest = after
			continue
		}

		out.WriteString(rest[:start])
		end := strings.Index(after, closeTag)
		if end == -1 {
			return "", misses, fmt.Errorf("unclosed placeholder at offset %d", len(tmpl)-len(rest)+start)
		}
		path := strings.TrimSpace(after[:end])
		if path == "" {
			return "", misses, fmt.Errorf("empty placeholder at offset %d", len(tmpl)-len(rest)+start)
		}

		s, err := renderPath(ctx, roots, path)
		if err != nil {
			misses = append(misses, path)
		} else {
			out.WriteString(s)
		}
		rest = after[end+len(closeTag):]
	}
}

func renderPath(ctx context.Context, roots map[string]any, path string) (string, error) {
	v, err := Resolve(ctx, roots, path)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", fmt.Errorf("%s: %w", path, ErrUnresolved)
	}
	return String(ctx, v)
}
